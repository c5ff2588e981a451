package bootstrap

import "context"

// AuditLog is a lifecycle event worth keeping outside the request path,
// such as startup and shutdown markers.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
