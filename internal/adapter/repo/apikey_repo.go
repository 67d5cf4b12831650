package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudio/internal/domain"
)

// APIKeyRepositoryPG implements domain.APIKeyRepository.
type APIKeyRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository creates a new API key repository backed by PostgreSQL.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepositoryPG {
	return &APIKeyRepositoryPG{pool: pool}
}

// Create inserts a new provider credential. One credential per user and
// provider is enforced by a unique constraint.
func (r *APIKeyRepositoryPG) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
INSERT INTO api_keys (id, user_id, provider, label, token)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.UserID,
		key.Provider,
		key.Label,
		key.Token,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateKey
	}
	return err
}

// ListByUser returns all credentials the user has connected.
func (r *APIKeyRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	query := `
SELECT id, user_id, provider, label, token, created_at
FROM api_keys
WHERE user_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.Provider,
			&key.Label,
			&key.Token,
			&key.CreatedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// GetByID fetches one credential, scoped to the owner.
func (r *APIKeyRepositoryPG) GetByID(ctx context.Context, userID, keyID string) (*domain.APIKey, error) {
	query := `
SELECT id, user_id, provider, label, token, created_at
FROM api_keys
WHERE user_id = $1 AND id = $2;
`
	row := r.pool.QueryRow(ctx, query, userID, keyID)
	var key domain.APIKey
	if err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.Provider,
		&key.Label,
		&key.Token,
		&key.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

// Delete removes one credential, scoped to the owner.
func (r *APIKeyRepositoryPG) Delete(ctx context.Context, userID, keyID string) error {
	query := `
DELETE FROM api_keys
WHERE user_id = $1 AND id = $2;
`
	tag, err := r.pool.Exec(ctx, query, userID, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
