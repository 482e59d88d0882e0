package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs. Report generation is
// audited so compliance reviewers can see who pulled which statement when.
type AuditLog struct {
	ID     uuid.UUID
	Actor  string
	Action string
	Entity string
	Meta   map[string]any
	At     time.Time
}

// ErrAuditUnavailable indicates the audit_logs table is not provisioned.
var ErrAuditUnavailable = errors.New("shared: audit log storage unavailable")

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. Audit writes are best-effort from the
// caller's perspective; callers log and continue on failure.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("shared: audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" {
		return errors.New("shared: audit log requires action and entity")
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, actor, action, entity, meta, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.Actor, log.Action, log.Entity, metaJSON, log.At,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return ErrAuditUnavailable
		}
		return err
	}
	return nil
}
