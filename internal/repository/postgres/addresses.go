package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

var addressColumns = []string{
	"id",
	"account_id",
	"type",
	"name",
	"phone",
	"address_line1",
	"address_line2",
	"city",
	"state",
	"pincode",
	"created_at",
	"updated_at",
}

// AddressRepository implements port.AddressRepository using PostgreSQL.
// Every statement is scoped by account_id so one account can never touch
// another account's rows.
type AddressRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAddressRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAddressRepository(exec pgExecutor) *AddressRepository {
	return &AddressRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new address row.
func (r *AddressRepository) Create(ctx context.Context, address domain.Address) error {
	var line2Value any
	if address.Line2 != nil && *address.Line2 != "" {
		line2Value = *address.Line2
	}

	stmt, args, err := r.builder.Insert("account_addresses").
		Columns(addressColumns...).
		Values(
			address.ID,
			address.AccountID,
			address.Type,
			address.Name,
			address.Phone,
			address.Line1,
			line2Value,
			address.City,
			address.State,
			address.Pincode,
			address.CreatedAt,
			address.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert address sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return nil
}

// Update modifies an address owned by the supplied account. Updating a row
// that belongs to a different account matches nothing and returns
// repository.ErrNotFound.
func (r *AddressRepository) Update(ctx context.Context, accountID string, address domain.Address) error {
	var line2Value any
	if address.Line2 != nil && *address.Line2 != "" {
		line2Value = *address.Line2
	}

	stmt, args, err := r.builder.Update("account_addresses").
		SetMap(map[string]any{
			"type":          address.Type,
			"name":          address.Name,
			"phone":         address.Phone,
			"address_line1": address.Line1,
			"address_line2": line2Value,
			"city":          address.City,
			"state":         address.State,
			"pincode":       address.Pincode,
			"updated_at":    address.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": address.ID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update address sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByAccount returns all addresses owned by the account.
func (r *AddressRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Address, error) {
	stmt, args, err := r.builder.
		Select(addressColumns...).
		From("account_addresses").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list addresses sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, *address)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate addresses: %w", err)
	}

	return addresses, nil
}

// GetByID retrieves a single address scoped to its owning account.
func (r *AddressRepository) GetByID(ctx context.Context, accountID, id string) (*domain.Address, error) {
	stmt, args, err := r.builder.
		Select(addressColumns...).
		From("account_addresses").
		Where(squirrel.Eq{"id": id, "account_id": accountID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select address sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	address, err := scanAddress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	return address, nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var (
		address domain.Address
		line2   sql.NullString
	)

	if err := row.Scan(
		&address.ID,
		&address.AccountID,
		&address.Type,
		&address.Name,
		&address.Phone,
		&address.Line1,
		&line2,
		&address.City,
		&address.State,
		&address.Pincode,
		&address.CreatedAt,
		&address.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if line2.Valid {
		val := line2.String
		address.Line2 = &val
	}

	return &address, nil
}
