package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigurationRepository is the tenant-scoped key/value configuration
// store (tracker credentials, integration settings). A missing key reads
// as an empty value.
type ConfigurationRepository interface {
	GetConfiguration(ctx context.Context, dataspace, key string) (string, error)
	SetConfiguration(ctx context.Context, dataspace, key, value string) error
}

type configurationRepository struct {
	pool *pgxpool.Pool
}

// NewConfigurationRepository instantiates repository.
func NewConfigurationRepository(pool *pgxpool.Pool) ConfigurationRepository {
	return &configurationRepository{pool: pool}
}

func (r *configurationRepository) GetConfiguration(ctx context.Context, dataspace, key string) (string, error) {
	const query = `SELECT value FROM dataspace_configuration WHERE dataspace=$1 AND key=$2`
	var value string
	err := r.pool.QueryRow(ctx, query, dataspace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *configurationRepository) SetConfiguration(ctx context.Context, dataspace, key, value string) error {
	const query = `
        INSERT INTO dataspace_configuration (dataspace, key, value)
        VALUES ($1,$2,$3)
        ON CONFLICT (dataspace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, dataspace, key, value)
	return err
}
