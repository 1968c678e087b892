package port

import (
	"context"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
)

// IdentityRepository persists enrolled identities.
type IdentityRepository interface {
	// CreateIdentity inserts a new identity. Unique violations on cedula or
	// email are reported as ErrDuplicateIdentity.
	CreateIdentity(ctx context.Context, id *domain.Identity) (*domain.Identity, error)

	// GetIdentity returns the identity for a cedula or ErrIdentityNotFound.
	GetIdentity(ctx context.Context, externalID string) (*domain.Identity, error)

	// ListFaceEntries returns the (cedula, embedding) projection of every identity.
	ListFaceEntries(ctx context.Context) ([]domain.FaceEntry, error)

	// SetDocument records the RUT path and modification time.
	SetDocument(ctx context.Context, externalID, path string, at time.Time) error

	// TouchDocument refreshes the modification time of an existing RUT.
	TouchDocument(ctx context.Context, externalID string, at time.Time) error
}

// RatingRepository persists chat ratings.
type RatingRepository interface {
	InsertRating(ctx context.Context, r *domain.Rating) (*domain.Rating, error)
}
