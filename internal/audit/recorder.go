package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/admin-console/admin-console/internal/logstore"
	"github.com/admin-console/admin-console/internal/safego"
	"github.com/admin-console/admin-console/internal/telemetry"
)

// writeTimeout bounds one background log store write.
const writeTimeout = 5 * time.Second

// Writer is the persistence surface the recorder needs from the log store.
type Writer interface {
	InsertAuditLog(ctx context.Context, entry *logstore.AuditLog) error
	InsertActionLog(ctx context.Context, entry *logstore.ActionLog) error
}

// Recorder accepts audit and action entries for asynchronous persistence.
// Implementations must never surface a persistence failure to the caller.
type Recorder interface {
	RecordAudit(entry *logstore.AuditLog)
	RecordAction(entry *logstore.ActionLog)
}

// Service records entries to the log store in the background and fans audit
// entries out to the configured shippers. Failures are logged and counted,
// never returned.
type Service struct {
	writer  Writer
	shipper Shipper
	wg      sync.WaitGroup
}

// NewService creates a recorder over the given writer. shipper may be nil.
func NewService(writer Writer, shipper Shipper) *Service {
	return &Service{writer: writer, shipper: shipper}
}

// RecordAudit persists a request-level entry in the background.
func (s *Service) RecordAudit(entry *logstore.AuditLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.wg.Add(1)
	safego.Go(func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.writer.InsertAuditLog(ctx, entry); err != nil {
			telemetry.AuditEntriesDroppedTotal.WithLabelValues("audit").Inc()
			slog.Error("Failed to write audit log entry",
				"action", entry.Action,
				"endpoint", entry.Endpoint,
				"error", err)
		} else {
			telemetry.AuditEntriesWrittenTotal.WithLabelValues("audit").Inc()
		}

		if s.shipper != nil {
			if err := s.shipper.Ship(ctx, entry); err != nil {
				slog.Error("Failed to ship audit log entry", "error", err)
			}
		}
	})
}

// RecordAction persists a business-level entry in the background.
func (s *Service) RecordAction(entry *logstore.ActionLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.wg.Add(1)
	safego.Go(func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := s.writer.InsertActionLog(ctx, entry); err != nil {
			telemetry.AuditEntriesDroppedTotal.WithLabelValues("action").Inc()
			slog.Error("Failed to write action log entry",
				"action_type", entry.ActionType,
				"username", entry.Username,
				"error", err)
		} else {
			telemetry.AuditEntriesWrittenTotal.WithLabelValues("action").Inc()
		}
	})
}

// Wait blocks until all in-flight writes have finished. Used during shutdown
// and by tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close waits for in-flight writes and closes the shippers.
func (s *Service) Close() error {
	s.Wait()
	if s.shipper != nil {
		return s.shipper.Close()
	}
	return nil
}
