package entities

import (
	"time"
)

// Property is the off-chain property record owned by the property CRUD service.
// The indexer only reads the token linkage and overwrites the denormalized owner
// after a successful ownership sync.
type Property struct {
	ID           int64     `db:"id"`
	TokenID      *int64    `db:"token_id"`
	OwnerAddress string    `db:"owner_address"`
	UpdatedAt    time.Time `db:"updated_at"`
}
