package audit

import (
	"context"

	"github.com/meridian-commerce/core/internal/shared/types"
)

// AuditRepository defines storage operations for the hash-chained mutation log.
type AuditRepository interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, entry *AuditEntry) error
	FindByID(ctx context.Context, id types.ID) (*AuditEntry, error)
	List(ctx context.Context, filter ListEntriesFilter) ([]AuditEntry, int, error)
	GetByResource(ctx context.Context, resourceType string, resourceID types.ID, limit int) ([]AuditEntry, error)
	VerifyChain(ctx context.Context, limit int, includeDetails bool) (*VerifyResult, error)
	GetLastHash() string
	Count(ctx context.Context) (int, error)
}

var _ AuditRepository = (*Repository)(nil)
