// Package repository implements persistence of API key records.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(), and a MongoDB implementation that stores descriptions
// field-encrypted with the partition key.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// pgUniqueViolation is the SQLSTATE of a unique constraint violation.
const pgUniqueViolation = "23505"

// PostgreSQLAPIKeyRepository implements APIKey persistence for PostgreSQL.
// Scopes are stored in a TEXT[] column.
type PostgreSQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new APIKey into the PostgreSQL database.
func (p *PostgreSQLAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO api_keys (id, secret_hash, partition, scopes, description, created_at, revoked_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		apiKey.ID,
		apiKey.SecretHash,
		string(apiKey.Partition),
		pq.Array([]string(apiKey.Scopes)),
		apiKey.Description,
		apiKey.CreatedAt,
		apiKey.RevokedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return apperrors.Wrap(apperrors.ErrConflict, "api key id already exists")
		}
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Get retrieves an APIKey by id and partition from the PostgreSQL database.
func (p *PostgreSQLAPIKeyRepository) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_hash, partition, scopes, description, created_at, revoked_at
			  FROM api_keys WHERE id = $1 AND partition = $2`

	apiKey, err := scanPostgreSQLAPIKey(querier.QueryRowContext(ctx, query, id, string(partition)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return apiKey, nil
}

// List retrieves the APIKeys of a partition ordered by creation time, newest first.
func (p *PostgreSQLAPIKeyRepository) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, secret_hash, partition, scopes, description, created_at, revoked_at
			  FROM api_keys WHERE partition = $1
			  ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, string(partition), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	apiKeys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		apiKey, err := scanPostgreSQLAPIKey(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}
		apiKeys = append(apiKeys, apiKey)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	return apiKeys, nil
}

// Revoke sets revoked_at on an APIKey.
func (p *PostgreSQLAPIKeyRepository) Revoke(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
	revokedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE api_keys SET revoked_at = $1 WHERE id = $2 AND partition = $3`

	result, err := querier.ExecContext(ctx, query, revokedAt, id, string(partition))
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke api key")
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var (
		apiKey    authDomain.APIKey
		partition string
		scopes    []string
	)

	err := row.Scan(
		&apiKey.ID,
		&apiKey.SecretHash,
		&partition,
		pq.Array(&scopes),
		&apiKey.Description,
		&apiKey.CreatedAt,
		&apiKey.RevokedAt,
	)
	if err != nil {
		return nil, err
	}

	apiKey.Partition = cryptoDomain.Partition(partition)
	apiKey.Scopes = scopes
	return &apiKey, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return authDomain.ErrAPIKeyNotFound
	}
	return nil
}

// NewPostgreSQLAPIKeyRepository creates a new PostgreSQL APIKey repository.
func NewPostgreSQLAPIKeyRepository(db *sql.DB) *PostgreSQLAPIKeyRepository {
	return &PostgreSQLAPIKeyRepository{db: db}
}
