package auditlog

import "context"

// Repository persists log records. Records are never updated or deleted.
type Repository interface {
	Insert(ctx context.Context, r *Record) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
