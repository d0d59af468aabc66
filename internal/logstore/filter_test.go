package logstore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ---------------------------------------------------------------------------
// Window defaults
// ---------------------------------------------------------------------------

func TestBoundedWindow_Defaults(t *testing.T) {
	before := time.Now().UTC()
	from, to := boundedWindow(time.Time{}, time.Time{}, defaultAuditWindow)
	after := time.Now().UTC()

	if to.Before(before) || to.After(after) {
		t.Errorf("expected To to default to now, got %v", to)
	}
	if got := to.Sub(from); got != defaultAuditWindow {
		t.Errorf("expected a %v window, got %v", defaultAuditWindow, got)
	}
}

func TestBoundedWindow_ExplicitEdgesKept(t *testing.T) {
	wantFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	from, to := boundedWindow(wantFrom, wantTo, defaultActionWindow)
	if !from.Equal(wantFrom) || !to.Equal(wantTo) {
		t.Errorf("expected window [%v, %v], got [%v, %v]", wantFrom, wantTo, from, to)
	}
}

func TestBoundedWindow_OnlyToSet(t *testing.T) {
	wantTo := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	from, to := boundedWindow(time.Time{}, wantTo, defaultActionWindow)
	if !to.Equal(wantTo) {
		t.Errorf("expected To %v, got %v", wantTo, to)
	}
	if want := wantTo.Add(-defaultActionWindow); !from.Equal(want) {
		t.Errorf("expected From %v, got %v", want, from)
	}
}

// ---------------------------------------------------------------------------
// Limit clamping
// ---------------------------------------------------------------------------

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"within range kept", 100, 100},
		{"above ceiling clamped", 10000, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit); got != tt.want {
				t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Filter queries
// ---------------------------------------------------------------------------

func TestAuditLogFilter_Query(t *testing.T) {
	success := true
	f := AuditLogFilter{
		Action:     "update_user",
		ActionType: "update",
		Resource:   "users",
		ResourceID: "42",
		UserID:     "abc",
		Success:    &success,
		From:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC),
	}

	query := f.query()
	if query["action"] != "update_user" {
		t.Errorf("expected action filter, got %v", query["action"])
	}
	if query["action_type"] != "update" {
		t.Errorf("expected action_type filter, got %v", query["action_type"])
	}
	if query["resource"] != "users" || query["resource_id"] != "42" {
		t.Errorf("expected resource filters, got %v / %v", query["resource"], query["resource_id"])
	}
	if query["user_id"] != "abc" {
		t.Errorf("expected user_id filter, got %v", query["user_id"])
	}
	if query["success"] != true {
		t.Errorf("expected success filter, got %v", query["success"])
	}

	window, ok := query["timestamp"].(bson.M)
	if !ok {
		t.Fatalf("expected a timestamp window, got %T", query["timestamp"])
	}
	if !window["$gte"].(time.Time).Equal(f.From) || !window["$lte"].(time.Time).Equal(f.To) {
		t.Errorf("unexpected window: %v", window)
	}
}

func TestAuditLogFilter_Query_EmptyFieldsOmitted(t *testing.T) {
	f := AuditLogFilter{}
	query := f.query()

	if len(query) != 1 {
		t.Errorf("expected only the timestamp window, got %v", query)
	}
	if _, ok := query["timestamp"]; !ok {
		t.Error("expected a default timestamp window")
	}
}

func TestActionLogFilter_Query(t *testing.T) {
	failed := false
	f := ActionLogFilter{
		ActionType:   ActionUserLogin,
		Username:     "jdoe",
		ResourceType: "user",
		Success:      &failed,
	}

	query := f.query()
	if query["action_type"] != ActionUserLogin {
		t.Errorf("expected action_type filter, got %v", query["action_type"])
	}
	if query["username"] != "jdoe" {
		t.Errorf("expected username filter, got %v", query["username"])
	}
	if query["resource_type"] != "user" {
		t.Errorf("expected resource_type filter, got %v", query["resource_type"])
	}
	if query["success"] != false {
		t.Errorf("expected success=false filter, got %v", query["success"])
	}
}
