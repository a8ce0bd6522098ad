package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/pkg/apperr"
)

// CustomerService manages customer-owned resources (addresses).
type CustomerService struct {
	addresses AddressRepository
}

func NewCustomerService(addresses AddressRepository) *CustomerService {
	return &CustomerService{addresses: addresses}
}

// AddressInput is the validated address payload.
type AddressInput struct {
	Apartment  string   `json:"apartment" validate:"nullable,max=100"`
	Line       string   `json:"line" validate:"required,max=200"`
	City       string   `json:"city" validate:"required,max=100"`
	PostalCode string   `json:"postalCode" validate:"required,regex=^[0-9]{6}$"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	IsDefault  bool     `json:"isDefault"`
}

// CreateAddress adds an address owned by the calling customer.
func (s *CustomerService) CreateAddress(ctx context.Context, userID string, in AddressInput) (*models.Address, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Authentication("Invalid principal")
	}

	now := time.Now()
	address := &models.Address{
		UserID:     uid,
		Apartment:  in.Apartment,
		Line:       in.Line,
		City:       in.City,
		PostalCode: in.PostalCode,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		IsDefault:  in.IsDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.addresses.Create(ctx, address); err != nil {
		return nil, apperr.Wrap(err, "create address")
	}
	return address, nil
}

// ListAddresses returns the caller's addresses.
func (s *CustomerService) ListAddresses(ctx context.Context, userID string) ([]models.Address, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Authentication("Invalid principal")
	}
	out, err := s.addresses.ListByUser(ctx, uid)
	if err != nil {
		return nil, apperr.Wrap(err, "list addresses")
	}
	return out, nil
}

// UpdateAddress edits an address the caller owns.
func (s *CustomerService) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (*models.Address, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Authentication("Invalid principal")
	}
	aid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return nil, apperr.NotFound("Address not found")
	}

	address, err := s.addresses.FindByID(ctx, aid)
	if err != nil || address.UserID != uid {
		return nil, apperr.NotFound("Address not found")
	}

	address.Apartment = in.Apartment
	address.Line = in.Line
	address.City = in.City
	address.PostalCode = in.PostalCode
	address.Latitude = in.Latitude
	address.Longitude = in.Longitude
	address.IsDefault = in.IsDefault
	address.UpdatedAt = time.Now()

	if err := s.addresses.Update(ctx, address); err != nil {
		return nil, apperr.Wrap(err, "update address")
	}
	return address, nil
}

// DeleteAddress removes an address the caller owns.
func (s *CustomerService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return apperr.Authentication("Invalid principal")
	}
	aid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return apperr.NotFound("Address not found")
	}
	if err := s.addresses.Delete(ctx, aid, uid); err != nil {
		if err == ErrNotFound {
			return apperr.NotFound("Address not found")
		}
		return apperr.Wrap(err, "delete address")
	}
	return nil
}
