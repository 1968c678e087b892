package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// CreateIdentity inserts a new identity. Uniqueness of cedula and email is
// left to the table constraints.
func (s *SQLStore) CreateIdentity(ctx context.Context, id *domain.Identity) (*domain.Identity, error) {
	query := s.rebind(`INSERT INTO identities (display_name, external_id, email, embedding, created_at)
	          VALUES (?, ?, ?, ?, ?)
	          RETURNING id`)

	created := *id
	created.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx, query,
		id.DisplayName, id.ExternalID, id.Email, encodeEmbedding(id.Embedding), created.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, port.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create identity: %w: %w", port.ErrStorage, err)
	}
	return &created, nil
}

// GetIdentity retrieves an identity by cedula.
func (s *SQLStore) GetIdentity(ctx context.Context, externalID string) (*domain.Identity, error) {
	query := s.rebind(`SELECT id, display_name, external_id, email, embedding, document_path, last_modified, created_at
	          FROM identities WHERE external_id = ?`)

	var (
		ident    domain.Identity
		blob     []byte
		docPath  sql.NullString
		modified sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, externalID).Scan(
		&ident.ID, &ident.DisplayName, &ident.ExternalID, &ident.Email,
		&blob, &docPath, &modified, &ident.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w: %w", port.ErrStorage, err)
	}

	if ident.Embedding, err = decodeEmbedding(blob); err != nil {
		return nil, fmt.Errorf("get identity: %w: %w", port.ErrStorage, err)
	}
	if docPath.Valid {
		ident.DocumentPath = &docPath.String
	}
	if modified.Valid {
		ident.LastModified = &modified.Time
	}
	return &ident, nil
}

// ListFaceEntries returns the (cedula, embedding) projection of every identity.
// A corrupt blob fails the whole listing with ErrStorage.
func (s *SQLStore) ListFaceEntries(ctx context.Context) ([]domain.FaceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT external_id, embedding FROM identities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list face entries: %w: %w", port.ErrStorage, err)
	}
	defer rows.Close()

	var entries []domain.FaceEntry
	for rows.Next() {
		var (
			externalID string
			blob       []byte
		)
		if err := rows.Scan(&externalID, &blob); err != nil {
			return nil, fmt.Errorf("scan face entry: %w: %w", port.ErrStorage, err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decode embedding of %s: %w: %w", externalID, port.ErrStorage, err)
		}
		entries = append(entries, domain.FaceEntry{IdentityID: externalID, Embedding: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list face entries: %w: %w", port.ErrStorage, err)
	}
	return entries, nil
}

// SetDocument records the RUT path and modification time.
func (s *SQLStore) SetDocument(ctx context.Context, externalID, path string, at time.Time) error {
	query := s.rebind(`UPDATE identities SET document_path = ?, last_modified = ? WHERE external_id = ?`)
	return s.execOne(ctx, "set document", query, path, at.UTC(), externalID)
}

// TouchDocument refreshes the modification time of an existing RUT.
func (s *SQLStore) TouchDocument(ctx context.Context, externalID string, at time.Time) error {
	query := s.rebind(`UPDATE identities SET last_modified = ? WHERE external_id = ?`)
	return s.execOne(ctx, "touch document", query, at.UTC(), externalID)
}

// execOne runs an UPDATE that must affect exactly one identity.
func (s *SQLStore) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, port.ErrStorage, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, port.ErrStorage, err)
	}
	if n == 0 {
		return port.ErrIdentityNotFound
	}
	return nil
}
