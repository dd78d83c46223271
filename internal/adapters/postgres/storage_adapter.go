package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorageAdapter реализует порты хранения батчей и объектов
// поверх одного пула соединений. Вся работа идет сырым SQL.
type PostgresStorageAdapter struct {
	pool *pgxpool.Pool
}

func NewPostgresStorageAdapter(pool *pgxpool.Pool) (*PostgresStorageAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: pool is nil")
	}
	return &PostgresStorageAdapter{pool: pool}, nil
}
