package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/credgate/internal/model"
	"github.com/edvin/credgate/internal/platform"
)

// recordColumns is the select list for credential records, matching the
// scan order in scanRecord.
const recordColumns = `id, token_hash, token_prefix, family, tenant_id, user_id, scopes,
	expires_at, revoked_at, revoke_reason, rate_limit_per_min, version,
	superseded_at, superseded_by, created_at`

// CredentialService manages credential records against the store database.
// Lifecycle mutations (extend, replace, revoke) are single atomic
// statements guarded by a compare-and-swap on the active-record version,
// so concurrent mutations of one credential serialize at the store.
type CredentialService struct {
	db DB
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(db DB) *CredentialService {
	return &CredentialService{db: db}
}

// IssueParams holds the inputs for issuing a new credential.
type IssueParams struct {
	TenantID        string
	UserID          *string
	Family          string
	Scopes          []string
	TTL             time.Duration
	RateLimitPerMin int
}

// Issue mints a new credential, stores its hash, and returns the record
// along with the raw token. The raw token must be shown to the caller
// exactly once.
func (s *CredentialService) Issue(ctx context.Context, params IssueParams) (*model.CredentialRecord, string, error) {
	raw, err := MintToken(params.Family)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.IssueWithToken(ctx, raw, params)
	if err != nil {
		return nil, "", err
	}
	return rec, raw, nil
}

// IssueWithToken stores a credential with a caller-provided raw token.
// Used for well-known dev/test tokens where the raw value must be
// deterministic.
func (s *CredentialService) IssueWithToken(ctx context.Context, raw string, params IssueParams) (*model.CredentialRecord, error) {
	family, ok := ParseToken(raw)
	if !ok {
		return nil, fmt.Errorf("malformed token value")
	}
	if params.Family != "" && params.Family != family {
		return nil, fmt.Errorf("token family %q does not match requested family %q", family, params.Family)
	}

	if params.TTL <= 0 {
		params.TTL = 30 * 24 * time.Hour
	}
	if params.RateLimitPerMin <= 0 {
		params.RateLimitPerMin = 600
	}
	if params.Scopes == nil {
		params.Scopes = []string{}
	}

	rec := &model.CredentialRecord{
		ID:              platform.NewID(),
		TokenHash:       HashToken(raw),
		TokenPrefix:     TokenPrefix(raw),
		Family:          family,
		TenantID:        params.TenantID,
		UserID:          params.UserID,
		Scopes:          params.Scopes,
		ExpiresAt:       time.Now().Add(params.TTL),
		RateLimitPerMin: params.RateLimitPerMin,
		Version:         1,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO credentials (id, token_hash, token_prefix, family, tenant_id, user_id, scopes, expires_at, rate_limit_per_min, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		 RETURNING created_at`,
		rec.ID, rec.TokenHash, rec.TokenPrefix, rec.Family, rec.TenantID, rec.UserID,
		rec.Scopes, rec.ExpiresAt, rec.RateLimitPerMin, rec.Version,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return rec, nil
}

// LookupByHash retrieves the single active record for a token hash.
// Returns ErrNotFound when no active record exists.
func (s *CredentialService) LookupByHash(ctx context.Context, hash string) (*model.CredentialRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM credentials WHERE token_hash = $1 AND superseded_at IS NULL`, hash,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup credential: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a credential record by its ID, active or historized.
func (s *CredentialService) GetByID(ctx context.Context, id string) (*model.CredentialRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM credentials WHERE id = $1`, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}
	return rec, nil
}

// ListByTenant retrieves a tenant's active credential records with
// cursor-based pagination.
func (s *CredentialService) ListByTenant(ctx context.Context, tenantID string, limit int, cursor string) ([]model.CredentialRecord, bool, error) {
	query := `SELECT ` + recordColumns + ` FROM credentials WHERE tenant_id = $1 AND superseded_at IS NULL`
	args := []any{tenantID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var recs []model.CredentialRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan credential: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate credentials: %w", err)
	}

	hasMore := len(recs) > limit
	if hasMore {
		recs = recs[:limit]
	}
	return recs, hasMore, nil
}

// extendSQL end-dates the active version and inserts its successor with a
// pushed-out expiry in one statement. The token hash and value are
// preserved. Zero rows means the CAS lost or the record is revoked.
const extendSQL = `
WITH old AS (
	UPDATE credentials
	   SET superseded_at = now(), superseded_by = $1
	 WHERE token_hash = $2 AND version = $3
	   AND superseded_at IS NULL AND revoked_at IS NULL
	RETURNING token_hash, token_prefix, family, tenant_id, user_id, scopes, rate_limit_per_min, version
)
INSERT INTO credentials (id, token_hash, token_prefix, family, tenant_id, user_id, scopes, expires_at, rate_limit_per_min, version, created_at)
SELECT $1, token_hash, token_prefix, family, tenant_id, user_id, scopes, $4, rate_limit_per_min, version + 1, now()
  FROM old
RETURNING ` + recordColumns

// ExtendExpiry pushes the active record's expiry to newExpiry while
// preserving the token value. When a concurrent extension wins the CAS,
// the winner's resulting record is returned instead, so every racer
// observes the same outcome. Extending a revoked credential returns
// ErrCannotMutateRevoked.
func (s *CredentialService) ExtendExpiry(ctx context.Context, hash string, newExpiry time.Time) (*model.CredentialRecord, error) {
	current, err := s.LookupByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if current.Revoked() {
		return nil, ErrCannotMutateRevoked
	}

	row := s.db.QueryRow(ctx, extendSQL, platform.NewID(), hash, current.Version, newExpiry)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("extend credential: %w", err)
	}

	// CAS lost: another request already extended (or revoked) this
	// credential. Surface the winner's record.
	winner, err := s.LookupByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if winner.Revoked() {
		return nil, ErrCannotMutateRevoked
	}
	return winner, nil
}

// replaceSQL end-dates the active version and inserts a successor carrying
// a brand-new token hash. The old value is permanently unusable afterward.
const replaceSQL = `
WITH old AS (
	UPDATE credentials
	   SET superseded_at = now(), superseded_by = $1
	 WHERE token_hash = $2 AND version = $3
	   AND superseded_at IS NULL AND revoked_at IS NULL
	RETURNING family, tenant_id, user_id, scopes, rate_limit_per_min, version
)
INSERT INTO credentials (id, token_hash, token_prefix, family, tenant_id, user_id, scopes, expires_at, rate_limit_per_min, version, created_at)
SELECT $1, $4, $5, family, tenant_id, user_id, scopes, $6, rate_limit_per_min, version + 1, now()
  FROM old
RETURNING ` + recordColumns

// Replace mints a new token value for the credential identified by hash,
// end-dates the old record, and returns the new record with its raw token.
// Returns ErrCannotMutateRevoked for revoked credentials and ErrNotFound
// when no active record matches.
func (s *CredentialService) Replace(ctx context.Context, hash string) (*model.CredentialRecord, string, error) {
	current, err := s.LookupByHash(ctx, hash)
	if err != nil {
		return nil, "", err
	}
	if current.Revoked() {
		return nil, "", ErrCannotMutateRevoked
	}

	newRaw, err := MintToken(current.Family)
	if err != nil {
		return nil, "", err
	}
	newExpiry := time.Now().Add(30 * 24 * time.Hour)

	row := s.db.QueryRow(ctx, replaceSQL,
		platform.NewID(), hash, current.Version,
		HashToken(newRaw), TokenPrefix(newRaw), newExpiry,
	)
	rec, err := scanRecord(row)
	if err == nil {
		return rec, newRaw, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("replace credential: %w", err)
	}

	// CAS lost. The racer's raw token is unknowable here, so the caller
	// gets no replacement this round; the old value is already dead.
	winner, lookupErr := s.LookupByHash(ctx, hash)
	if lookupErr == nil && winner.Revoked() {
		return nil, "", ErrCannotMutateRevoked
	}
	return nil, "", ErrNotFound
}

// Revoke marks the active record for a token hash as revoked. Revocation
// is terminal: the record stays active (and lookupable) but permanently
// fails validation.
func (s *CredentialService) Revoke(ctx context.Context, hash, reason string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE credentials SET revoked_at = now(), revoke_reason = $2
		  WHERE token_hash = $1 AND superseded_at IS NULL AND revoked_at IS NULL`,
		hash, reason,
	)
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeByID revokes a credential by record ID. Used by the admin plane
// where the raw token (and so its hash) is not available.
func (s *CredentialService) RevokeByID(ctx context.Context, id, reason string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE credentials SET revoked_at = now(), revoke_reason = $2
		  WHERE id = $1 AND superseded_at IS NULL AND revoked_at IS NULL`,
		id, reason,
	)
	if err != nil {
		return fmt.Errorf("revoke credential %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scannable covers pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.CredentialRecord, error) {
	var rec model.CredentialRecord
	err := row.Scan(
		&rec.ID, &rec.TokenHash, &rec.TokenPrefix, &rec.Family, &rec.TenantID, &rec.UserID,
		&rec.Scopes, &rec.ExpiresAt, &rec.RevokedAt, &rec.RevokeReason, &rec.RateLimitPerMin,
		&rec.Version, &rec.SupersededAt, &rec.SupersededBy, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
