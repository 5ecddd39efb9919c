package repositories

import (
	"context"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
)

// PropertyRepository is the indexer's narrow view of the property store.
// The property service owns the full schema; the indexer only resolves the
// token linkage and writes the denormalized owner field.
type PropertyRepository interface {
	// GetByTokenID retrieves the property linked to a token, nil if none
	GetByTokenID(ctx context.Context, tokenID int64) (*entities.Property, error)

	// UpdateOwner overwrites the denormalized owner of a property
	UpdateOwner(ctx context.Context, propertyID int64, owner string) error
}
