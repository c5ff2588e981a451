package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes lifecycle audit entries to the process log. A
// durable sink can replace it behind the AuditLogger interface.
type StdoutAuditLogger struct {
	clock func() time.Time
}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{clock: time.Now}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", l.clock().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	)
}
