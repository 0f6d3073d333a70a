package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

// ErrAddressNotFound indicates no address with the id belongs to the account.
var ErrAddressNotFound = errors.New("address not found")

// AddressInput carries the caller-supplied address fields.
type AddressInput struct {
	Type    string
	Name    string
	Phone   string
	Line1   string
	Line2   *string
	City    string
	State   string
	Pincode string
}

func (in *AddressInput) normalize() {
	in.Type = strings.TrimSpace(in.Type)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.Pincode = strings.TrimSpace(in.Pincode)
	if in.Line2 != nil {
		trimmed := strings.TrimSpace(*in.Line2)
		if trimmed == "" {
			in.Line2 = nil
		} else {
			in.Line2 = &trimmed
		}
	}
}

func (in AddressInput) validate() error {
	if in.Type == "" || in.Name == "" || in.Phone == "" || in.Line1 == "" ||
		in.City == "" || in.State == "" || in.Pincode == "" {
		return ErrMissingFields
	}
	return nil
}

// AddressService manages account-owned addresses. Every operation is scoped
// to the authenticated account id; addresses of other accounts are
// unreachable through this service.
type AddressService struct {
	addresses port.AddressRepository
	log       *zap.Logger
}

// NewAddressService constructs an address service.
func NewAddressService(addresses port.AddressRepository, log *zap.Logger) *AddressService {
	return &AddressService{addresses: addresses, log: log}
}

// Create stores a new address for the account.
func (s *AddressService) Create(ctx context.Context, accountID string, input AddressInput) (*domain.Address, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	address := domain.Address{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Type:      input.Type,
		Name:      input.Name,
		Phone:     input.Phone,
		Line1:     input.Line1,
		Line2:     input.Line2,
		City:      input.City,
		State:     input.State,
		Pincode:   input.Pincode,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return &address, nil
}

// Update replaces the fields of an address the account owns.
func (s *AddressService) Update(ctx context.Context, accountID, addressID string, input AddressInput) (*domain.Address, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	address := domain.Address{
		ID:        addressID,
		AccountID: accountID,
		Type:      input.Type,
		Name:      input.Name,
		Phone:     input.Phone,
		Line1:     input.Line1,
		Line2:     input.Line2,
		City:      input.City,
		State:     input.State,
		Pincode:   input.Pincode,
		UpdatedAt: time.Now().UTC(),
	}

	if err := s.addresses.Update(ctx, accountID, address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("update address: %w", err)
	}

	return s.addresses.GetByID(ctx, accountID, addressID)
}

// List returns every address the account owns, oldest first.
func (s *AddressService) List(ctx context.Context, accountID string) ([]domain.Address, error) {
	addresses, err := s.addresses.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}
