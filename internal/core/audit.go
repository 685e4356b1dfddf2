package core

import (
	"context"
	"fmt"

	"github.com/edvin/credgate/internal/model"
	"github.com/edvin/credgate/internal/platform"
)

// AuditService appends and queries audit records. Records are append-only:
// there is no update or delete path.
type AuditService struct {
	db DB
}

// NewAuditService creates a new AuditService.
func NewAuditService(db DB) *AuditService {
	return &AuditService{db: db}
}

// Append inserts one audit record. The record's ID and OccurredAt are
// filled in when unset.
func (s *AuditService) Append(ctx context.Context, rec *model.AuditRecord) error {
	if rec.ID == "" {
		rec.ID = platform.NewID()
	}
	var tenantID *string
	if rec.TenantID != "" {
		tenantID = &rec.TenantID
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_records (id, occurred_at, fingerprint, tenant_id, event, decision, reason, latency_ms, method, path)
		 VALUES ($1, COALESCE($2, now()), $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, nullableTime(rec), rec.Fingerprint, tenantID, rec.Event, rec.Decision,
		rec.Reason, rec.LatencyMS, rec.Method, rec.Path,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// ListByTenant retrieves a tenant's audit records, newest first, with
// cursor-based pagination.
func (s *AuditService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.AuditRecord, bool, error) {
	query := `SELECT id, occurred_at, fingerprint, COALESCE(tenant_id, ''), event, decision, reason, latency_ms, method, path
	            FROM audit_records WHERE tenant_id = $1`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id < $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY occurred_at DESC, id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var recs []model.AuditRecord
	for rows.Next() {
		var rec model.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.OccurredAt, &rec.Fingerprint, &rec.TenantID,
			&rec.Event, &rec.Decision, &rec.Reason, &rec.LatencyMS, &rec.Method, &rec.Path); err != nil {
			return nil, false, fmt.Errorf("scan audit record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate audit records: %w", err)
	}

	hasMore := len(recs) > limit
	if hasMore {
		recs = recs[:limit]
	}
	return recs, hasMore, nil
}

func nullableTime(rec *model.AuditRecord) any {
	if rec.OccurredAt.IsZero() {
		return nil
	}
	return rec.OccurredAt
}
