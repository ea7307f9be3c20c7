package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"rentease/internal/email"
	userserrors "rentease/internal/users/errors"
	"rentease/internal/users/repository"
	"rentease/internal/users/validator"
	"rentease/pkg/blob"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/kafka"
	"rentease/pkg/model"
	"rentease/pkg/sanitizer"
	"rentease/pkg/sealer"
)

type UserService interface {
	Register(ctx context.Context, user *model.User, password string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, emailAddr string) error
	Login(ctx context.Context, emailAddr string, password string) (string, *model.User, error)
	Logout(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error)
	UploadValidID(ctx context.Context, id string, img model.ImageUpload) (*model.User, error)
	ChangePassword(ctx context.Context, id string, currentPassword string, newPassword string) error
	GetAll(ctx context.Context, filter repository.UserFilter, page int, limit int) ([]*model.User, int64, error)
	ApproveID(ctx context.Context, id string) (*model.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	Stats(ctx context.Context) (*model.UserStats, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	sealer    *sealer.Sealer
	publisher email.Publisher
	blobs     blob.Store
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	s *sealer.Sealer,
	publisher email.Publisher,
	blobs blob.Store,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		sealer:    s,
		publisher: publisher,
		blobs:     blobs,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, user *model.User, password string) error {
	s.sanitize(user)
	s.applyDefaults(user)

	if user.UserType != model.RoleRentor {
		return apperrors.Forbidden("Only rentor accounts can self-register")
	}

	if err := s.validator.ValidatePassword(password); err != nil {
		return apperrors.Validation("Password does not meet requirements", map[string]any{"error": err.Error()})
	}

	if err := s.validate(user); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	user.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return apperrors.Conflict("Email address is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return apperrors.Internal("Failed to register user", err)
	}

	if err := s.publishVerification(ctx, user); err != nil {
		// Registration succeeded; the user can request a resend.
		s.cfg.Log.Error("Failed to publish verification event", "user_id", user.ID, "error", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID, "email", user.Email)
	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.sealer.Open(token, sealer.PurposeVerifyEmail)
	if err != nil {
		if errors.Is(err, sealer.ErrExpiredToken) {
			return apperrors.Unauthorized("Verification link has expired, please request a new one")
		}
		return apperrors.Unauthorized("Invalid verification link")
	}

	user, err := s.GetByID(ctx, claims.Subject)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return nil
	}

	if err := s.repo.UpdateFields(ctx, user.ID, bson.M{"is_verified": true}); err != nil {
		s.cfg.Log.Error("Failed to mark email verified", "id", user.ID, "error", err)
		return apperrors.Internal("Failed to verify email", err)
	}

	s.cfg.Log.Info("Email verified", "id", user.ID)
	return nil
}

func (s *userService) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if emailAddr == "" {
		return apperrors.InvalidInput("Email address is required")
	}

	user, err := s.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			// Do not reveal whether the address is registered.
			return nil
		}
		return apperrors.Internal("Failed to look up user", err)
	}

	if user.IsVerified {
		return nil
	}

	if err := s.publishVerification(ctx, user); err != nil {
		s.cfg.Log.Error("Failed to publish verification event", "user_id", user.ID, "error", err)
		return apperrors.Internal("Failed to send verification email", err)
	}

	return nil
}

func (s *userService) Login(ctx context.Context, emailAddr string, password string) (string, *model.User, error) {
	emailAddr = sanitizer.NormalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return "", nil, apperrors.InvalidInput("Email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return "", nil, apperrors.Unauthorized("Invalid email or password")
		}
		return "", nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthorized("Invalid email or password")
	}

	if !user.IsActive {
		return "", nil, apperrors.Forbidden("Account is deactivated")
	}

	if !user.IsVerified {
		return "", nil, apperrors.Forbidden("Please verify your email address before logging in")
	}

	// Rentors additionally wait for an admin to approve their valid ID.
	if user.UserType == model.RoleRentor && !user.IsIDVerified {
		return "", nil, apperrors.Forbidden("Your ID is pending admin approval")
	}

	token, err := s.sealer.Seal(sealer.Claims{
		Subject:   user.ID,
		Role:      user.UserType,
		Purpose:   sealer.PurposeAccess,
		ExpiresAt: time.Now().Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return "", nil, apperrors.Internal("Failed to issue token", err)
	}

	user.LastActivity = time.Now().UTC().Truncate(time.Millisecond)
	if err := s.repo.UpdateFields(ctx, user.ID, bson.M{"last_activity": user.LastActivity}); err != nil {
		s.cfg.Log.Warn("Failed to record login activity", "id", user.ID, "error", err)
	}

	s.cfg.Log.Info("User logged in", "id", user.ID)
	return token, user, nil
}

// Logout records the activity timestamp. Tokens are stateless, so the
// client discards its copy; they expire on their own.
func (s *userService) Logout(ctx context.Context, id string) error {
	if err := s.repo.UpdateFields(ctx, id, bson.M{"last_activity": time.Now().UTC().Truncate(time.Millisecond)}); err != nil {
		s.cfg.Log.Warn("Failed to record logout activity", "id", id, "error", err)
	}

	s.cfg.Log.Info("User logged out", "id", id)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, updates *model.UserUpdate) (*model.User, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	fields := bson.M{}
	if updates.FullName != "" {
		fields["full_name"] = sanitizer.NormalizeName(updates.FullName)
	}
	if updates.Age != nil {
		fields["age"] = *updates.Age
	}
	if updates.Address != "" {
		fields["address"] = sanitizer.TrimAndNormalize(updates.Address)
	}
	if updates.Phone != "" {
		fields["phone"] = sanitizer.TrimAndNormalize(updates.Phone)
	}

	if len(fields) == 0 {
		return nil, apperrors.InvalidInput("No fields to update")
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update profile", err)
	}

	s.cfg.Log.Info("Profile updated", "id", id)
	return s.GetByID(ctx, id)
}

func (s *userService) UploadValidID(ctx context.Context, id string, img model.ImageUpload) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := blob.ImageExtension(img.FileName)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	data, err := blob.DecodeImage(img.Data)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	key := fmt.Sprintf("valid-ids/%s%s", uuid.New().String(), ext)
	if err := s.blobs.Save(key, data); err != nil {
		s.cfg.Log.Error("Failed to store valid ID image", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to store ID image", err)
	}

	// A new document resets the approval flag for re-review.
	fields := bson.M{"valid_id": key, "is_id_verified": false}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if delErr := s.blobs.Delete(key); delErr != nil {
			s.cfg.Log.Warn("Failed to clean up orphaned ID image", "key", key, "error", delErr)
		}
		s.cfg.Log.Error("Failed to save valid ID reference", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to save ID document", err)
	}

	if user.ValidID != "" && user.ValidID != key {
		if err := s.blobs.Delete(user.ValidID); err != nil {
			s.cfg.Log.Warn("Failed to delete replaced ID image", "key", user.ValidID, "error", err)
		}
	}

	s.cfg.Log.Info("Valid ID uploaded", "id", id, "key", key)
	return s.GetByID(ctx, id)
}

func (s *userService) ChangePassword(ctx context.Context, id string, currentPassword string, newPassword string) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	if err := s.validator.ValidatePassword(newPassword); err != nil {
		return apperrors.Validation("Password does not meet requirements", map[string]any{"error": err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}

	if err := s.repo.UpdateFields(ctx, id, bson.M{"password_hash": string(hash)}); err != nil {
		s.cfg.Log.Error("Failed to change password", "id", id, "error", err)
		return apperrors.Internal("Failed to change password", err)
	}

	s.cfg.Log.Info("Password changed", "id", id)
	return nil
}

func (s *userService) GetAll(ctx context.Context, filter repository.UserFilter, page int, limit int) ([]*model.User, int64, error) {
	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, filter, page, limit)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return users, count, nil
}

func (s *userService) ApproveID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.ValidID == "" {
		return nil, apperrors.Conflict("User has not uploaded a valid ID document")
	}

	if user.IsIDVerified {
		return user, nil
	}

	if err := s.repo.UpdateFields(ctx, id, bson.M{"is_id_verified": true}); err != nil {
		s.cfg.Log.Error("Failed to approve user ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to approve ID", err)
	}

	msg := kafka.NewMessage().
		WithKey(user.ID).
		WithEventType(email.EventUserIDVerified).
		WithSource(s.cfg.ServiceName).
		WithValue(email.IDVerifiedEvent{
			UserID:   user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		}).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish ID-verified event", "user_id", user.ID, "error", err)
	}

	s.cfg.Log.Info("User ID approved", "id", id)
	return s.GetByID(ctx, id)
}

func (s *userService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.UpdateFields(ctx, id, bson.M{"is_active": active}); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to set user active flag", "id", id, "error", err)
		return apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User active flag updated", "id", id, "active", active)
	return nil
}

func (s *userService) Stats(ctx context.Context) (*model.UserStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate user stats", "error", err)
		return nil, apperrors.Internal("Failed to compute user statistics", err)
	}

	return stats, nil
}

// --- Helpers ---

func (s *userService) sanitize(u *model.User) {
	u.FullName = sanitizer.NormalizeName(u.FullName)
	u.Email = sanitizer.NormalizeEmail(u.Email)
	u.Address = sanitizer.TrimAndNormalize(u.Address)
	u.Phone = sanitizer.TrimAndNormalize(u.Phone)
}

func (s *userService) applyDefaults(u *model.User) {
	if u.UserType == "" {
		u.UserType = model.RoleRentor
	}
	u.IsVerified = false
	u.IsIDVerified = false
	u.IsActive = true
	u.PasswordHash = ""
	u.ValidID = ""
}

func (s *userService) validate(user *model.User) error {
	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *userService) publishVerification(ctx context.Context, user *model.User) error {
	token, err := s.sealer.Seal(sealer.Claims{
		Subject:   user.ID,
		Role:      user.UserType,
		Purpose:   sealer.PurposeVerifyEmail,
		ExpiresAt: time.Now().Add(s.cfg.VerifyTokenTTL),
	})
	if err != nil {
		return err
	}

	msg := kafka.NewMessage().
		WithKey(user.ID).
		WithEventType(email.EventUserRegistered).
		WithSource(s.cfg.ServiceName).
		WithValue(email.VerificationEvent{
			UserID:   user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Token:    token,
		}).
		Build()

	return s.publisher.Publish(ctx, msg)
}
