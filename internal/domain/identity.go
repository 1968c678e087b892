package domain

import "time"

// Identity is an enrolled citizen. The embedding is the mean of the
// enrollment images and is never re-averaged afterwards.
type Identity struct {
	ID           int64      `json:"id"            db:"id"`
	ExternalID   string     `json:"cedula"        db:"external_id"`
	DisplayName  string     `json:"name"          db:"display_name"`
	Email        string     `json:"email"         db:"email"`
	Embedding    []float64  `json:"-"             db:"embedding"`
	DocumentPath *string    `json:"document_path" db:"document_path"`
	LastModified *time.Time `json:"last_modified" db:"last_modified"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
}

// HasDocument reports whether a RUT document has been generated for the identity.
func (i *Identity) HasDocument() bool {
	return i.DocumentPath != nil && *i.DocumentPath != ""
}

// FaceEntry is the in-memory projection of an identity used for matching.
type FaceEntry struct {
	IdentityID string
	Embedding  []float64
}

// UnknownIdentity is reported to clients when a face does not match anyone.
const UnknownIdentity = "Desconocido"
