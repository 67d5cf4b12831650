package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudio/internal/domain"
)

// WizardStateRepositoryPG implements domain.WizardStateRepository. The whole
// flow state is stored as one JSONB document per user; partial selections
// are plain records persisted verbatim.
type WizardStateRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewWizardStateRepository creates a new wizard state repository backed by PostgreSQL.
func NewWizardStateRepository(pool *pgxpool.Pool) *WizardStateRepositoryPG {
	return &WizardStateRepositoryPG{pool: pool}
}

// Get fetches the user's saved wizard progress.
func (r *WizardStateRepositoryPG) Get(ctx context.Context, userID string) (*domain.WizardFlowState, error) {
	query := `
SELECT state
FROM wizard_states
WHERE user_id = $1;
`
	row := r.pool.QueryRow(ctx, query, userID)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var state domain.WizardFlowState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode wizard state: %w", err)
	}
	return &state, nil
}

// Save upserts the user's wizard progress.
func (r *WizardStateRepositoryPG) Save(ctx context.Context, userID string, state *domain.WizardFlowState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode wizard state: %w", err)
	}
	query := `
INSERT INTO wizard_states (user_id, state, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id)
DO UPDATE SET state = EXCLUDED.state, updated_at = NOW();
`
	_, err = r.pool.Exec(ctx, query, userID, raw)
	return err
}
