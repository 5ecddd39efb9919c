package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/datjpro/viepropchain-indexer/internal/domain/entities"
	"github.com/datjpro/viepropchain-indexer/internal/domain/repositories"
)

// Ensure PropertyRepo implements PropertyRepository
var _ repositories.PropertyRepository = (*PropertyRepo)(nil)

// PropertyRepo implements PropertyRepository using PostgreSQL.
// The properties table is owned by the property service; only the columns the
// indexer touches are selected here.
type PropertyRepo struct {
	db *sqlx.DB
}

// NewPropertyRepo creates a new property repository
func NewPropertyRepo(db *sqlx.DB) *PropertyRepo {
	return &PropertyRepo{db: db}
}

// GetByTokenID retrieves the property linked to a token, nil if none
func (r *PropertyRepo) GetByTokenID(ctx context.Context, tokenID int64) (*entities.Property, error) {
	var property entities.Property
	query := `SELECT id, token_id, owner_address, updated_at FROM properties WHERE token_id = $1`

	if err := r.db.GetContext(ctx, &property, query, tokenID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return &property, nil
}

// UpdateOwner overwrites the denormalized owner of a property
func (r *PropertyRepo) UpdateOwner(ctx context.Context, propertyID int64, owner string) error {
	query := `
		UPDATE properties SET
			owner_address = $2,
			updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, propertyID, owner)
	if err != nil {
		return fmt.Errorf("failed to update property owner: %w", err)
	}

	return nil
}
