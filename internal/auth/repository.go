package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Repository is the postgres-backed CredentialStore.
type Repository struct {
	DB *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{DB: db}
}

var _ CredentialStore = (*Repository)(nil)

const accountColumns = `id, email, external_id, password_hash, email_verified, active, created_at, last_login_at`

func (r *Repository) CreateAccount(ctx context.Context, email string, externalID *string, verified bool) (*Account, error) {
	id := uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO accounts (id, email, external_id, email_verified)
		VALUES ($1, $2, $3, $4)
		RETURNING `+accountColumns,
		id, email, externalID, verified)

	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateAccount
		}
		return nil, storageErr("create account", err)
	}
	return account, nil
}

func (r *Repository) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	account, err := scanAccount(row)
	return accountOrNotFound(account, err, "find account by email")
}

func (r *Repository) AccountByID(ctx context.Context, id string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	return accountOrNotFound(account, err, "find account by id")
}

func (r *Repository) AccountByExternalID(ctx context.Context, externalID string) (*Account, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE external_id = $1`, externalID)
	account, err := scanAccount(row)
	return accountOrNotFound(account, err, "find account by external id")
}

func (r *Repository) SetEmailVerified(ctx context.Context, accountID string) error {
	return r.updateAccount(ctx, "mark email verified",
		`UPDATE accounts SET email_verified = TRUE WHERE id = $1`, accountID)
}

func (r *Repository) SetPassword(ctx context.Context, accountID, passwordHash string) error {
	return r.updateAccount(ctx, "set password",
		`UPDATE accounts SET password_hash = $2 WHERE id = $1`, accountID, passwordHash)
}

func (r *Repository) SetExternalID(ctx context.Context, accountID, externalID string) error {
	return r.updateAccount(ctx, "set external id",
		`UPDATE accounts SET external_id = $2 WHERE id = $1`, accountID, externalID)
}

func (r *Repository) RecordLogin(ctx context.Context, accountID string, at time.Time) error {
	return r.updateAccount(ctx, "record login",
		`UPDATE accounts SET last_login_at = $2 WHERE id = $1`, accountID, at)
}

func (r *Repository) updateAccount(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return storageErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func tokenTable(kind TokenKind) string {
	if kind == TokenKindReset {
		return "reset_tokens"
	}
	return "verification_tokens"
}

func (r *Repository) ReplaceToken(ctx context.Context, kind TokenKind, accountID, secretHash string, expiresAt time.Time) (*Token, error) {
	// account_id carries a unique constraint, so supersession is one upsert.
	// A delete+insert pair is not enough here: under READ COMMITTED two
	// racing transactions can each miss the other's uncommitted insert and
	// commit two active rows. The conflict clause makes the second writer
	// overwrite the first instead.
	id := uuid.NewString()
	if _, err := r.DB.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, account_id, secret_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET id = EXCLUDED.id,
		    secret_hash = EXCLUDED.secret_hash,
		    expires_at = EXCLUDED.expires_at,
		    consumed_at = NULL`,
		tokenTable(kind)),
		id, accountID, secretHash, expiresAt); err != nil {
		return nil, storageErr("issue token", err)
	}

	return &Token{ID: id, AccountID: accountID, ExpiresAt: expiresAt}, nil
}

func (r *Repository) LookupToken(ctx context.Context, kind TokenKind, secretHash string) (*Token, error) {
	row := r.DB.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, account_id, expires_at, consumed_at
		FROM %s
		WHERE secret_hash = $1 AND consumed_at IS NULL AND expires_at > NOW()`,
		tokenTable(kind)), secretHash)

	var (
		tok        Token
		consumedAt sql.NullTime
	)
	if err := row.Scan(&tok.ID, &tok.AccountID, &tok.ExpiresAt, &consumedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr("lookup token", err)
	}
	if consumedAt.Valid {
		tok.ConsumedAt = &consumedAt.Time
	}
	return &tok, nil
}

func (r *Repository) ConsumeToken(ctx context.Context, kind TokenKind, secretHash string, at time.Time) (bool, error) {
	// Conditional update: only a still-valid token flips, so two racing
	// consumers cannot both observe success.
	tag, err := r.DB.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET consumed_at = $2
		WHERE secret_hash = $1 AND consumed_at IS NULL AND expires_at > $2`,
		tokenTable(kind)), secretHash, at)
	if err != nil {
		return false, storageErr("consume token", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context, before time.Time) error {
	for _, table := range []string{"verification_tokens", "reset_tokens"} {
		if _, err := r.DB.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, table), before); err != nil {
			return storageErr("prune tokens", err)
		}
	}
	return nil
}

func accountOrNotFound(account *Account, err error, op string) (*Account, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storageErr(op, err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a           Account
		externalID  sql.NullString
		password    sql.NullString
		lastLoginAt sql.NullTime
	)
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&externalID,
		&password,
		&a.EmailVerified,
		&a.Active,
		&a.CreatedAt,
		&lastLoginAt,
	); err != nil {
		return nil, err
	}
	if externalID.Valid {
		a.ExternalID = &externalID.String
	}
	if password.Valid {
		a.PasswordHash = &password.String
	}
	if lastLoginAt.Valid {
		a.LastLoginAt = &lastLoginAt.Time
	}
	return &a, nil
}
