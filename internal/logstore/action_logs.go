package logstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultActionWindow = 30 * 24 * time.Hour

// Well-known business action types written by the auth and user handlers.
const (
	ActionUserLogin        = "user_login"
	ActionUserRegistration = "user_registration"
	ActionUserCreated      = "user_created"
	ActionUserUpdated      = "user_updated"
	ActionUserLocked       = "user_locked"
	ActionUserUnlocked     = "user_unlocked"
	ActionRoleChanged      = "user_role_changed"
	ActionEmailVerified    = "email_verified"
	ActionUsersExported    = "users_exported"
)

// ActionLogFilter narrows an action log query. A zero From/To pair falls
// back to the trailing thirty days.
type ActionLogFilter struct {
	ActionType   string
	UserID       string
	Username     string
	ResourceType string
	ResourceID   string
	Success      *bool
	From         time.Time
	To           time.Time
	Limit        int
	Skip         int
}

// InsertActionLog appends one business action entry. The timestamp is
// stamped here if the caller left it zero.
func (s *Store) InsertActionLog(ctx context.Context, entry *ActionLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.action.InsertOne(ctx, entry)
	return err
}

func (f *ActionLogFilter) query() bson.M {
	from, to := boundedWindow(f.From, f.To, defaultActionWindow)
	query := bson.M{"timestamp": bson.M{"$gte": from, "$lte": to}}
	if f.ActionType != "" {
		query["action_type"] = f.ActionType
	}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	if f.Username != "" {
		query["username"] = f.Username
	}
	if f.ResourceType != "" {
		query["resource_type"] = f.ResourceType
	}
	if f.ResourceID != "" {
		query["resource_id"] = f.ResourceID
	}
	if f.Success != nil {
		query["success"] = *f.Success
	}
	return query
}

// ListActionLogs returns one page of action entries, newest first, plus the
// total count matching the filter.
func (s *Store) ListActionLogs(ctx context.Context, filter ActionLogFilter) ([]ActionLog, int64, error) {
	query := filter.query()

	total, err := s.action.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(filter.Skip)).
		SetLimit(int64(clampLimit(filter.Limit)))

	cursor, err := s.action.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	logs := []ActionLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// ListActionLogsByUser returns the action history of one user.
func (s *Store) ListActionLogsByUser(ctx context.Context, userID string, filter ActionLogFilter) ([]ActionLog, int64, error) {
	filter.UserID = userID
	return s.ListActionLogs(ctx, filter)
}

// ListFailedActionLogs returns failed actions only.
func (s *Store) ListFailedActionLogs(ctx context.Context, filter ActionLogFilter) ([]ActionLog, int64, error) {
	failed := false
	filter.Success = &failed
	return s.ListActionLogs(ctx, filter)
}

// DailyCount is one day's bucket in a report series. The day is the UTC date
// in YYYY-MM-DD form.
type DailyCount struct {
	Date  string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

// RegistrationReport is the daily registration series over a window.
type RegistrationReport struct {
	From  time.Time    `json:"from"`
	To    time.Time    `json:"to"`
	Total int64        `json:"total"`
	Daily []DailyCount `json:"daily"`
}

// GetRegistrationReport buckets successful registrations by UTC day.
func (s *Store) GetRegistrationReport(ctx context.Context, from, to time.Time) (*RegistrationReport, error) {
	from, to = boundedWindow(from, to, defaultActionWindow)
	match := bson.M{
		"action_type": ActionUserRegistration,
		"success":     true,
		"timestamp":   bson.M{"$gte": from, "$lte": to},
	}

	daily, err := s.dailyBuckets(ctx, match)
	if err != nil {
		return nil, err
	}

	report := &RegistrationReport{From: from, To: to, Daily: daily}
	for _, d := range daily {
		report.Total += d.Count
	}
	return report, nil
}

// LoginDay is one day of login attempts in the login report.
type LoginDay struct {
	Date      string  `bson:"_id" json:"date"`
	Attempts  int64   `bson:"attempts" json:"attempts"`
	Successes int64   `bson:"successes" json:"successes"`
	Rate      float64 `json:"rate"`
}

// LoginReport is the daily login success series over a window.
type LoginReport struct {
	From        time.Time  `json:"from"`
	To          time.Time  `json:"to"`
	Attempts    int64      `json:"attempts"`
	Successes   int64      `json:"successes"`
	SuccessRate float64    `json:"successRate"`
	Daily       []LoginDay `json:"daily"`
}

// GetLoginReport buckets login attempts by UTC day with per-day and overall
// success rates.
func (s *Store) GetLoginReport(ctx context.Context, from, to time.Time) (*LoginReport, error) {
	from, to = boundedWindow(from, to, defaultActionWindow)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"action_type": ActionUserLogin,
			"timestamp":   bson.M{"$gte": from, "$lte": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%d",
				"date":     "$timestamp",
				"timezone": "UTC",
			}},
			"attempts": bson.M{"$sum": 1},
			"successes": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$success", 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.action.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	daily := []LoginDay{}
	if err := cursor.All(ctx, &daily); err != nil {
		return nil, err
	}

	report := &LoginReport{From: from, To: to, Daily: daily}
	for i := range daily {
		if daily[i].Attempts > 0 {
			daily[i].Rate = float64(daily[i].Successes) / float64(daily[i].Attempts)
		}
		report.Attempts += daily[i].Attempts
		report.Successes += daily[i].Successes
	}
	if report.Attempts > 0 {
		report.SuccessRate = float64(report.Successes) / float64(report.Attempts)
	}
	return report, nil
}

// dailyBuckets groups matching action entries by UTC date.
func (s *Store) dailyBuckets(ctx context.Context, match bson.M) ([]DailyCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   "%Y-%m-%d",
				"date":     "$timestamp",
				"timezone": "UTC",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := s.action.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	daily := []DailyCount{}
	if err := cursor.All(ctx, &daily); err != nil {
		return nil, err
	}
	return daily, nil
}
