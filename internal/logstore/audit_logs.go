package logstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultLimit caps a log page when the caller does not ask for one.
	DefaultLimit = 50
	// MaxLimit is the hard ceiling on a single log page.
	MaxLimit = 500

	defaultAuditWindow = 7 * 24 * time.Hour
)

// AuditLogFilter narrows an audit log query. A zero From/To pair falls back
// to the trailing seven days.
type AuditLogFilter struct {
	Action     string
	ActionType string
	Resource   string
	ResourceID string
	UserID     string
	Success    *bool
	From       time.Time
	To         time.Time
	Limit      int
	Skip       int
}

// InsertAuditLog appends one audit entry. The timestamp is stamped here if
// the caller left it zero.
func (s *Store) InsertAuditLog(ctx context.Context, entry *AuditLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.audit.InsertOne(ctx, entry)
	return err
}

func (f *AuditLogFilter) query() bson.M {
	from, to := boundedWindow(f.From, f.To, defaultAuditWindow)
	query := bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}
	if f.Action != "" {
		query["action"] = f.Action
	}
	if f.ActionType != "" {
		query["action_type"] = f.ActionType
	}
	if f.Resource != "" {
		query["resource"] = f.Resource
	}
	if f.ResourceID != "" {
		query["resource_id"] = f.ResourceID
	}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	if f.Success != nil {
		query["success"] = *f.Success
	}
	return query
}

// ListAuditLogs returns one page of audit entries, newest first, plus the
// total count matching the filter.
func (s *Store) ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLog, int64, error) {
	query := filter.query()

	total, err := s.audit.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(filter.Skip)).
		SetLimit(int64(clampLimit(filter.Limit)))

	cursor, err := s.audit.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	logs := []AuditLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ActionTypeCount is one bucket of the per-action-type breakdown.
type ActionTypeCount struct {
	ActionType string `bson:"_id" json:"actionType"`
	Count      int64  `bson:"count" json:"count"`
}

// UserActivityCount is one row of the most-active-users breakdown.
type UserActivityCount struct {
	UserID string `bson:"_id" json:"userId"`
	Count  int64  `bson:"count" json:"count"`
}

// ResourceCount is one bucket of the per-resource breakdown.
type ResourceCount struct {
	Resource string `bson:"_id" json:"resource"`
	Count    int64  `bson:"count" json:"count"`
}

// AuditStats summarizes audit activity inside a time window.
type AuditStats struct {
	Total        int64               `json:"total"`
	Succeeded    int64               `json:"succeeded"`
	Failed       int64               `json:"failed"`
	SuccessRate  float64             `json:"successRate"`
	ByActionType []ActionTypeCount   `json:"byActionType"`
	TopUsers     []UserActivityCount `json:"topUsers"`
	ByResource   []ResourceCount     `json:"byResource"`
}

// GetAuditStats aggregates totals, success rate, and the action-type, user,
// and resource breakdowns for the given window.
func (s *Store) GetAuditStats(ctx context.Context, from, to time.Time) (*AuditStats, error) {
	from, to = boundedWindow(from, to, defaultAuditWindow)
	match := bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}

	stats := &AuditStats{
		ByActionType: []ActionTypeCount{},
		TopUsers:     []UserActivityCount{},
		ByResource:   []ResourceCount{},
	}

	var err error
	if stats.Total, err = s.audit.CountDocuments(ctx, match); err != nil {
		return nil, err
	}
	succeededMatch := bson.M{"timestamp": match["timestamp"], "success": true}
	if stats.Succeeded, err = s.audit.CountDocuments(ctx, succeededMatch); err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Succeeded
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
	}

	if err := s.groupCount(ctx, s.audit, match, "$action_type", 0, &stats.ByActionType); err != nil {
		return nil, err
	}
	userMatch := bson.M{"timestamp": match["timestamp"], "user_id": bson.M{"$ne": ""}}
	if err := s.groupCount(ctx, s.audit, userMatch, "$user_id", 10, &stats.TopUsers); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, s.audit, match, "$resource", 0, &stats.ByResource); err != nil {
		return nil, err
	}

	return stats, nil
}

// groupCount runs a match, group-by-count, sort-descending pipeline and
// decodes the buckets into out. A zero limit means no limit stage.
func (s *Store) groupCount(ctx context.Context, coll *mongo.Collection, match bson.M, field string, limit int, out interface{}) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// boundedWindow fills in missing window edges: a zero To becomes now, a zero
// From becomes To minus the default span.
func boundedWindow(from, to time.Time, span time.Duration) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-span)
	}
	return from, to
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
