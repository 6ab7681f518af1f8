package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"event-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads the question catalog from the questions table, one
// JSONB document per question ordered by position.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	questions = domain.IndexQuestions(questions)
	if err := domain.ValidateCatalog(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// SeedCatalog replaces the stored catalog with questions, keeping their order.
func SeedCatalog(ctx context.Context, pool *pgxpool.Pool, questions []domain.Question) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions`); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for i, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO questions (position, data) VALUES ($1, $2)`, i, raw); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
