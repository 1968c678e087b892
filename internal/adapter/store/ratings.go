package store

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
)

// InsertRating appends a rating record.
func (s *SQLStore) InsertRating(ctx context.Context, r *domain.Rating) (*domain.Rating, error) {
	query := s.rebind(`INSERT INTO ratings (external_id, score, created_at) VALUES (?, ?, ?) RETURNING id`)

	created := *r
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if err := s.db.QueryRowContext(ctx, query, r.ExternalID, r.Score, created.CreatedAt).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("insert rating: %w: %w", port.ErrStorage, err)
	}
	return &created, nil
}

// ListRatings returns the ratings left by an identity, newest first.
func (s *SQLStore) ListRatings(ctx context.Context, externalID string) ([]domain.Rating, error) {
	query := s.rebind(`SELECT id, external_id, score, created_at FROM ratings
	          WHERE external_id = ? ORDER BY created_at DESC, id DESC`)

	rows, err := s.db.QueryContext(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w: %w", port.ErrStorage, err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var r domain.Rating
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Score, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w: %w", port.ErrStorage, err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
