package store

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
)

// WriteAudit implements middleware.AuditWriter.
func (s *SQLStore) WriteAudit(identityID, action, resource, details, ip, userAgent string) error {
	cast := "?"
	if s.dialect == DialectPostgres {
		cast = "?::jsonb"
	}
	query := s.rebind(`INSERT INTO audit_logs (identity_id, action, resource, details, ip, user_agent, created_at)
	          VALUES (?, ?, ?, ` + cast + `, ?, ?, ?)`)
	_, err := s.db.ExecContext(context.Background(), query,
		identityID, action, resource, details, ip, userAgent, time.Now().UTC(),
	)
	return err
}

// ListAuditLogs returns recent audit logs with an optional action filter.
func (s *SQLStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	details := "COALESCE(details, '')"
	if s.dialect == DialectPostgres {
		details = "COALESCE(details::text, '')"
	}
	query := `SELECT id, identity_id, action, resource, ` + details + `, COALESCE(ip, ''), COALESCE(user_agent, ''), created_at
	          FROM audit_logs`
	args := []interface{}{}

	if action != "" {
		query += " WHERE action = ?"
		args = append(args, action)
	}

	query += " ORDER BY id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.IdentityID, &l.Action, &l.Resource,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
