package services

import (
	"context"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/pkg/apperr"
	"dukaan/pkg/cache"
)

const leaderboardCacheTTL = time.Minute

// DriverService manages delivery profiles: vehicle details, availability,
// location updates and the delivery leaderboard.
type DriverService struct {
	users        UserRepository
	profiles     ProfileRepository
	transactions TransactionRepository
}

func NewDriverService(users UserRepository, profiles ProfileRepository, transactions TransactionRepository) *DriverService {
	return &DriverService{users: users, profiles: profiles, transactions: transactions}
}

// Profile returns the caller's delivery profile.
func (s *DriverService) Profile(ctx context.Context, userID string) (*models.DeliveryProfile, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.Authentication("Invalid principal")
	}
	profile, err := s.profiles.FindByUser(ctx, uid)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("Delivery profile not found")
		}
		return nil, apperr.Wrap(err, "find profile")
	}
	return profile, nil
}

// ProfileInput is the validated profile-update payload.
type ProfileInput struct {
	VehicleType   string `json:"vehicleType" validate:"nullable,in=bike,scooter,car,van"`
	VehicleNumber string `json:"vehicleNumber" validate:"nullable,max=20"`
	LicenseNumber string `json:"licenseNumber" validate:"nullable,max=30"`
}

// UpdateProfile edits vehicle and license details. Delivery counters are
// untouchable through this path.
func (s *DriverService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.DeliveryProfile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.VehicleType = in.VehicleType
	profile.VehicleNumber = in.VehicleNumber
	profile.LicenseNumber = in.LicenseNumber
	profile.UpdatedAt = time.Now()

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperr.Wrap(err, "update profile")
	}
	return profile, nil
}

// SetAvailability flips the driver's availability flag.
func (s *DriverService) SetAvailability(ctx context.Context, userID string, available bool) (*models.DeliveryProfile, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.IsAvailable = available
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperr.Wrap(err, "update availability")
	}
	return profile, nil
}

// UpdateLocation records the driver's last known position.
func (s *DriverService) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Latitude = &lat
	profile.Longitude = &lng
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Update(ctx, profile); err != nil {
		return apperr.Wrap(err, "update location")
	}
	return nil
}

// LeaderboardRow is the back-office projection of a driver's standing.
// Identity, license and location fields never leave the profile.
type LeaderboardRow struct {
	Name       string  `json:"name"`
	Deliveries int     `json:"deliveries"`
	Earnings   float64 `json:"earnings"`
	Rating     float64 `json:"rating"`
}

// Leaderboard returns the top drivers by delivery count, cached briefly.
func (s *DriverService) Leaderboard(ctx context.Context, topN int) ([]LeaderboardRow, error) {
	if topN <= 0 {
		topN = 10
	}

	key := "leaderboard:" + strconv.Itoa(topN)
	var cached []LeaderboardRow
	if cache.Get(key, &cached) {
		return cached, nil
	}

	profiles, err := s.profiles.Leaderboard(ctx, topN)
	if err != nil {
		return nil, apperr.Wrap(err, "leaderboard")
	}
	out := make([]LeaderboardRow, 0, len(profiles))
	for _, p := range profiles {
		user, err := s.users.FindByID(ctx, p.UserID)
		if err != nil {
			continue // orphaned profile, keep the board consistent
		}
		out = append(out, LeaderboardRow{
			Name:       user.Name,
			Deliveries: p.TotalDeliveries,
			Earnings:   p.TotalEarnings,
			Rating:     p.Rating,
		})
	}
	cache.Set(key, out, leaderboardCacheTTL) //nolint:errcheck
	return out, nil
}

// Earnings returns the driver's transaction history.
func (s *DriverService) Earnings(ctx context.Context, userID string, page, limit int) ([]models.Transaction, int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, apperr.Authentication("Invalid principal")
	}
	return s.transactions.ListByDriver(ctx, uid, page, limit)
}
