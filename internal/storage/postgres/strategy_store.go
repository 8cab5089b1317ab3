package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"leap-portfolio-lab/internal/domain"
	"leap-portfolio-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const strategyColumns = `id, name, description, parameters, created_at`

// Insert adds a new strategy. Returns ErrDuplicateKey if the id or name exists.
func (s *StrategyStore) Insert(ctx context.Context, st *domain.SavedStrategy) error {
	if st == nil || st.ID == "" || st.Name == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(st.Params)
	if err != nil {
		return fmt.Errorf("encode strategy parameters: %w", err)
	}

	query := `INSERT INTO saved_strategies (` + strategyColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err = s.pool.Exec(ctx, query, st.ID, st.Name, st.Description, params, st.CreatedAt)
	if err != nil {
		return translate("insert strategy", err)
	}
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, id string) (*domain.SavedStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM saved_strategies WHERE id = $1`
	st, err := scanStrategy(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate("get strategy by id", err)
	}
	return st, nil
}

// GetByName retrieves a strategy by name. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByName(ctx context.Context, name string) (*domain.SavedStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM saved_strategies WHERE name = $1`
	st, err := scanStrategy(s.pool.QueryRow(ctx, query, name))
	if err != nil {
		return nil, translate("get strategy by name", err)
	}
	return st, nil
}

// List retrieves all strategies, ordered by created_at ASC, name ASC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.SavedStrategy, error) {
	query := `SELECT ` + strategyColumns + ` FROM saved_strategies ORDER BY created_at ASC, name ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	result := []*domain.SavedStrategy{}
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}
	return result, nil
}

// scanStrategy scans a single row into a SavedStrategy.
func scanStrategy(row pgx.Row) (*domain.SavedStrategy, error) {
	var (
		st     domain.SavedStrategy
		params []byte
	)
	if err := row.Scan(&st.ID, &st.Name, &st.Description, &params, &st.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &st.Params); err != nil {
		return nil, fmt.Errorf("decode strategy parameters: %w", err)
	}
	st.CreatedAt = st.CreatedAt.UTC()
	return &st, nil
}
