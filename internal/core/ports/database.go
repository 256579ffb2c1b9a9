// internal/core/ports/database.go
package ports

import "context"

// Database is the connection-level view of the storage engine used by
// health checks and process shutdown.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]any
	Close()
}
