package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditLogger writes security audit events to the structured log
type AuditLogger struct {
	logger *slog.Logger
	env    string
}

// NewAuditLogger creates a new audit logger. In production, usernames are
// masked before they reach the log stream.
func NewAuditLogger(logger *slog.Logger, env string) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		env:    env,
	}
}

// LogLoginAttempt logs a recorded login attempt. Failed attempts are
// logged at warn level. In production the username is masked and the IP
// address redacted; the attempt record keeps both.
func (al *AuditLogger) LogLoginAttempt(ctx context.Context, id int64, username, status, ipAddress string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "login_attempt"),
		slog.Int64("attempt_id", id),
		slog.String("status", status),
		al.usernameAttr(username),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if ipAddress != "" {
		attrs = append(attrs, RedactedAttr("ip_address", ipAddress, al.env))
	}

	level := slog.LevelInfo
	if status != "success" {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogRetentionSweep logs the outcome of a retention sweep
func (al *AuditLogger) LogRetentionSweep(ctx context.Context, cutoff time.Time, deleted int64, err error) {
	attrs := []slog.Attr{
		slog.String("audit_type", "retention"),
		slog.String("event_type", "sweep"),
		slog.Time("cutoff", cutoff),
		slog.Int64("rows_deleted", deleted),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		al.logger.LogAttrs(ctx, slog.LevelError, "audit", attrs...)
		return
	}
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
}

// LogSettingsChange logs a change to the retention settings
func (al *AuditLogger) LogSettingsChange(ctx context.Context, actor string, enabled bool, retainDays int) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "settings"),
		slog.String("event_type", "retention_update"),
		slog.String("actor", actor),
		slog.Bool("enabled", enabled),
		slog.Int("retain_days", retainDays),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogProvisioning logs install and uninstall of the attempt store
func (al *AuditLogger) LogProvisioning(ctx context.Context, action string) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "provisioning"),
		slog.String("event_type", action),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

func (al *AuditLogger) usernameAttr(username string) slog.Attr {
	if al.env == "production" {
		return slog.String("username", MaskedUsername(username))
	}
	return slog.String("username", username)
}
