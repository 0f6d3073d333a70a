package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

var accountColumns = []string{
	"id",
	"name",
	"email",
	"phone",
	"password_hash",
	"avatar",
	"reset_token",
	"reset_token_expires_at",
	"created_at",
	"last_login",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row. A unique-violation on the email index is
// reported as repository.ErrDuplicate so callers can map it without inspecting
// driver error codes.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	var phoneValue any
	if account.Phone != nil && *account.Phone != "" {
		phoneValue = *account.Phone
	}

	stmt, args, err := r.builder.Insert("accounts").
		Columns(
			"id",
			"name",
			"email",
			"phone",
			"password_hash",
			"created_at",
		).
		Values(
			account.ID,
			account.Name,
			account.Email,
			phoneValue,
			account.PasswordHash,
			account.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id}, "account")
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email}, "account by email")
}

func (r *AccountRepository) getBy(ctx context.Context, pred any, what string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("accounts").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s sql: %w", what, err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}

	return account, nil
}

// SetResetToken stores a reset token on the account, overwriting any prior one.
func (r *AccountRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return r.updateByID(ctx, id, map[string]any{
		"reset_token":            token,
		"reset_token_expires_at": expiresAt,
	}, "set reset token")
}

// ClearResetToken removes any live reset token from the account.
func (r *AccountRepository) ClearResetToken(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, map[string]any{
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	}, "clear reset token")
}

// ConsumeResetToken swaps the password hash and clears the token in one
// statement keyed on the exact token value. The single-row UPDATE makes
// concurrent consumption of the same token one-winner: the loser matches zero
// rows and gets repository.ErrNotFound.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.Account, error) {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("reset_token", nil).
		Set("reset_token_expires_at", nil).
		Where(squirrel.Eq{"reset_token": token}).
		Where(squirrel.Or{
			squirrel.Eq{"reset_token_expires_at": nil},
			squirrel.Gt{"reset_token_expires_at": now},
		}).
		Suffix("RETURNING " + strings.Join(accountColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build consume reset token sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}

	return account, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return r.updateByID(ctx, id, map[string]any{"password_hash": passwordHash}, "update password hash")
}

// UpdateProfile modifies the mutable profile fields.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	var phoneValue any
	if update.Phone != nil && *update.Phone != "" {
		phoneValue = *update.Phone
	}

	err := r.updateByID(ctx, id, map[string]any{
		"name":  update.Name,
		"email": update.Email,
		"phone": phoneValue,
	}, "update profile")
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repository.ErrDuplicate
		}
	}
	return err
}

// UpdateAvatarRef records the stored avatar reference for the account.
func (r *AccountRepository) UpdateAvatarRef(ctx context.Context, id, ref string) error {
	return r.updateByID(ctx, id, map[string]any{"avatar": ref}, "update avatar")
}

// TouchLastLogin records the time of a successful authentication.
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, map[string]any{"last_login": at}, "touch last login")
}

func (r *AccountRepository) updateByID(ctx context.Context, id string, sets map[string]any, what string) error {
	stmt, args, err := r.builder.Update("accounts").
		SetMap(sets).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", what, err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account      domain.Account
		phone        sql.NullString
		avatar       sql.NullString
		resetToken   sql.NullString
		resetExpires sql.NullTime
		lastLogin    sql.NullTime
	)

	if err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&phone,
		&account.PasswordHash,
		&avatar,
		&resetToken,
		&resetExpires,
		&account.CreatedAt,
		&lastLogin,
	); err != nil {
		return nil, err
	}

	if phone.Valid {
		val := phone.String
		account.Phone = &val
	}
	if avatar.Valid {
		val := avatar.String
		account.AvatarRef = &val
	}
	if resetToken.Valid {
		val := resetToken.String
		account.ResetToken = &val
	}
	if resetExpires.Valid {
		val := resetExpires.Time
		account.ResetTokenExpires = &val
	}
	if lastLogin.Valid {
		val := lastLogin.Time
		account.LastLogin = &val
	}

	return &account, nil
}
