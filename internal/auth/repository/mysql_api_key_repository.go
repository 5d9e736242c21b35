package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	authDomain "github.com/allisson/keyguard/internal/auth/domain"
	cryptoDomain "github.com/allisson/keyguard/internal/crypto/domain"
	"github.com/allisson/keyguard/internal/database"
	apperrors "github.com/allisson/keyguard/internal/errors"
)

// mysqlDuplicateEntry is the MySQL error number of a unique key violation.
const mysqlDuplicateEntry = 1062

// MySQLAPIKeyRepository implements APIKey persistence for MySQL.
// Scopes are stored in a JSON column.
type MySQLAPIKeyRepository struct {
	db *sql.DB
}

// Create inserts a new APIKey into the MySQL database.
func (m *MySQLAPIKeyRepository) Create(ctx context.Context, apiKey *authDomain.APIKey) error {
	querier := database.GetTx(ctx, m.db)

	scopes, err := json.Marshal([]string(apiKey.Scopes))
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal scopes")
	}

	query := "INSERT INTO api_keys (id, secret_hash, `partition`, scopes, description, created_at, revoked_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"

	_, err = querier.ExecContext(
		ctx,
		query,
		apiKey.ID,
		apiKey.SecretHash,
		string(apiKey.Partition),
		scopes,
		apiKey.Description,
		apiKey.CreatedAt,
		apiKey.RevokedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return apperrors.Wrap(apperrors.ErrConflict, "api key id already exists")
		}
		return apperrors.Wrap(err, "failed to create api key")
	}
	return nil
}

// Get retrieves an APIKey by id and partition from the MySQL database.
func (m *MySQLAPIKeyRepository) Get(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
) (*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, secret_hash, `partition`, scopes, description, created_at, revoked_at " +
		"FROM api_keys WHERE id = ? AND `partition` = ?"

	apiKey, err := scanMySQLAPIKey(querier.QueryRowContext(ctx, query, id, string(partition)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrAPIKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}
	return apiKey, nil
}

// List retrieves the APIKeys of a partition ordered by creation time, newest first.
func (m *MySQLAPIKeyRepository) List(
	ctx context.Context,
	partition cryptoDomain.Partition,
	offset, limit int,
) ([]*authDomain.APIKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := "SELECT id, secret_hash, `partition`, scopes, description, created_at, revoked_at " +
		"FROM api_keys WHERE `partition` = ? ORDER BY created_at DESC LIMIT ? OFFSET ?"

	rows, err := querier.QueryContext(ctx, query, string(partition), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	apiKeys := make([]*authDomain.APIKey, 0)
	for rows.Next() {
		apiKey, err := scanMySQLAPIKey(rows)
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
func (m *MySQLAPIKeyRepository) Revoke(
	ctx context.Context,
	id string,
	partition cryptoDomain.Partition,
	revokedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := "UPDATE api_keys SET revoked_at = ? WHERE id = ? AND `partition` = ?"

	result, err := querier.ExecContext(ctx, query, revokedAt, id, string(partition))
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke api key")
	}
	return checkAffected(result)
}

func scanMySQLAPIKey(row rowScanner) (*authDomain.APIKey, error) {
	var (
		apiKey    authDomain.APIKey
		partition string
		scopes    []byte
	)

	err := row.Scan(
		&apiKey.ID,
		&apiKey.SecretHash,
		&partition,
		&scopes,
		&apiKey.Description,
		&apiKey.CreatedAt,
		&apiKey.RevokedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(scopes, &apiKey.Scopes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal scopes")
	}
	apiKey.Partition = cryptoDomain.Partition(partition)
	return &apiKey, nil
}

// NewMySQLAPIKeyRepository creates a new MySQL APIKey repository.
func NewMySQLAPIKeyRepository(db *sql.DB) *MySQLAPIKeyRepository {
	return &MySQLAPIKeyRepository{db: db}
}
