package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"dukaan/app/models"
	"dukaan/pkg/apperr"
	"dukaan/pkg/auth"
	"dukaan/pkg/logger"
)

// ResetTokenTTL is how long a password-reset token stays valid.
const ResetTokenTTL = time.Hour

// AuthService implements registration, login and the password-reset flow.
type AuthService struct {
	users    UserRepository
	profiles ProfileRepository
	notifier ResetNotifier
}

func NewAuthService(users UserRepository, profiles ProfileRepository, notifier ResetNotifier) *AuthService {
	return &AuthService{users: users, profiles: profiles, notifier: notifier}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Name     string      `json:"name" validate:"required,min=2,max=100"`
	Email    string      `json:"email" validate:"nullable,email"`
	Phone    string      `json:"phone" validate:"nullable,regex=^[0-9]{10}$"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"nullable,in=customer,delivery_boy,admin"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register creates a user and, for drivers, an empty delivery profile.
// Fails with ConflictError when the email or phone is already taken.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Email == "" && in.Phone == "" {
		return nil, apperr.Validation("Either email or phone is required")
	}

	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() {
		return nil, apperr.Validation("Unknown role")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "hash password")
	}

	now := time.Now()
	user := &models.User{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  hash,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if err == ErrDuplicate {
			return nil, apperr.Conflict("A user with this email or phone already exists")
		}
		return nil, apperr.Wrap(err, "create user")
	}

	if role == models.RoleDeliveryBoy {
		profile := &models.DeliveryProfile{
			UserID:      user.ID,
			IsAvailable: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, apperr.Wrap(err, "create delivery profile")
		}
	}

	token, err := auth.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login authenticates by email or phone. Absent, inactive and wrong-password
// cases all return the same AuthenticationError so callers cannot probe for
// registered identifiers.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	invalid := apperr.Authentication("Invalid credentials")

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == ErrNotFound {
			// Burn a hash comparison so the miss path costs the same.
			auth.CheckPassword("", password)
			return nil, invalid
		}
		return nil, apperr.Wrap(err, "find user")
	}
	if !user.IsActive {
		return nil, invalid
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, invalid
	}

	token, err := auth.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Refresh verifies the old token, re-resolves the user and issues a fresh
// token with the same claims. The user must still exist and be active.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*AuthResult, error) {
	claims, err := auth.ValidateToken(oldToken)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.Authentication("Invalid token")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil || !user.IsActive {
		return nil, apperr.Authentication("Invalid token")
	}

	token, err := auth.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, apperr.Wrap(err, "issue token")
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// ResetRequestMessage is returned whether or not the identifier matches a
// user, so the response never reveals account existence.
const ResetRequestMessage = "If an account exists, a reset link has been sent"

// RequestPasswordReset starts the reset flow. The token is handed to the
// notifier for out-of-band delivery and only its digest is persisted.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", apperr.Validation("Email or phone is required")
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if err == ErrNotFound {
			return ResetRequestMessage, nil
		}
		return "", apperr.Wrap(err, "find user")
	}

	token := auth.NewResetToken()
	expiry := time.Now().Add(ResetTokenTTL)
	user.ResetPasswordToken = auth.DigestToken(token)
	user.ResetPasswordExpiry = &expiry
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return "", apperr.Wrap(err, "store reset token")
	}

	if s.notifier != nil {
		s.notifier.SendResetToken(user, token)
	} else {
		logger.Warn("auth: no reset notifier configured, token dropped", "user", user.ID.Hex())
	}

	return ResetRequestMessage, nil
}

// ResetPassword consumes a reset token and overwrites the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apperr.Validation("Token and new password are required")
	}

	user, err := s.users.FindByResetDigest(ctx, auth.DigestToken(token), time.Now())
	if err != nil {
		if err == ErrNotFound {
			return apperr.Authentication("Invalid or expired reset token")
		}
		return apperr.Wrap(err, "find reset token")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(err, "hash password")
	}

	user.Password = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpiry = nil
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Wrap(err, "update password")
	}
	return nil
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Wrap(err, "find user")
	}
	pub := user.Public()
	return &pub, nil
}
