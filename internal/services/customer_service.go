package services

import (
	"context"
	"fmt"
	"strings"

	"digimall/internal/common"
	"digimall/internal/models"
	"digimall/internal/repositories"

	"github.com/google/uuid"
)

type CustomerService interface {
	GetProfile(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, update *models.Customer) (*models.Customer, error)
}

type customerService struct {
	customerRepo repositories.CustomerRepository
}

func NewCustomerService(customerRepo repositories.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

// ValidateAddress checks a postal address, recording problems under prefix.
func ValidateAddress(v *common.ValidationError, prefix string, addr *models.Address) {
	addr.Line1 = strings.TrimSpace(addr.Line1)
	addr.Line2 = strings.TrimSpace(addr.Line2)
	addr.City = strings.TrimSpace(addr.City)
	addr.Region = strings.TrimSpace(addr.Region)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))

	v.Check(prefix+".line1", common.ValidateRequiredString(addr.Line1, "line1"))
	v.Check(prefix+".city", common.ValidateRequiredString(addr.City, "city"))
	v.Check(prefix+".postal_code", common.ValidateRequiredString(addr.PostalCode, "postal_code"))
	if len(addr.Country) != 2 {
		v.Add(prefix+".country", "country must be a 2-letter ISO code")
	}
}

func (s *customerService) GetProfile(ctx context.Context, tenantID, userID uuid.UUID) (*models.Customer, error) {
	return s.customerRepo.GetByUserID(ctx, tenantID, userID)
}

func (s *customerService) UpdateProfile(ctx context.Context, tenantID, userID uuid.UUID, update *models.Customer) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	v := common.NewValidationError()
	v.Check("phone", common.ValidateOptionalString(update.Phone, "phone", 32))
	if update.ShippingAddress.IsZero() {
		update.ShippingAddress = nil
	} else {
		ValidateAddress(v, "shipping_address", update.ShippingAddress)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	customer.Phone = update.Phone
	customer.ShippingAddress = update.ShippingAddress
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}
