package service

import (
	"context"
	"encoding/base64"
	"io"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"rentease/internal/users/repository"
	"rentease/internal/users/validator"
	"rentease/pkg/blob"
	"rentease/pkg/config"
	apperrors "rentease/pkg/errors"
	"rentease/pkg/kafka"
	"rentease/pkg/logger"
	"rentease/pkg/model"
	"rentease/pkg/sealer"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockUserRepository struct {
	createFunc       func(ctx context.Context, user *model.User) error
	findByIDFunc     func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc  func(ctx context.Context, email string) (*model.User, error)
	updateFieldsFunc func(ctx context.Context, id string, fields bson.M) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) FindAll(ctx context.Context, filter repository.UserFilter, page int, limit int) ([]*model.User, error) {
	return []*model.User{}, nil
}

func (m *mockUserRepository) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	return 0, nil
}

func (m *mockUserRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	if m.updateFieldsFunc != nil {
		return m.updateFieldsFunc(ctx, id, fields)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockUserRepository) Stats(ctx context.Context) (*model.UserStats, error) {
	return &model.UserStats{}, nil
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

type mockBlobStore struct {
	saved   map[string][]byte
	deleted []string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{saved: make(map[string][]byte)}
}

func (m *mockBlobStore) Save(key string, data []byte) error {
	m.saved[key] = data
	return nil
}

func (m *mockBlobStore) Open(key string) (io.ReadCloser, error) {
	return nil, blob.ErrNotFound
}

func (m *mockBlobStore) Delete(key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockBlobStore) Exists(key string) bool {
	_, ok := m.saved[key]
	return ok
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServiceName:    "test",
		BcryptCost:     bcrypt.MinCost,
		TokenTTL:       time.Hour,
		VerifyTokenTTL: 24 * time.Hour,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

func testSealer(t *testing.T) *sealer.Sealer {
	t.Helper()

	key, err := base64.StdEncoding.DecodeString("lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60=")
	if err != nil {
		t.Fatalf("failed to decode key: %v", err)
	}

	s, err := sealer.New(key)
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	return s
}

func newTestService(t *testing.T, repo *mockUserRepository, pub *mockPublisher) UserService {
	t.Helper()

	cfg := testConfig(t)
	return NewUserService(repo, validator.NewUserValidator(cfg.Log), testSealer(t), pub, newMockBlobStore(), cfg)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

// ────────────────────────────────────────────────
// Register
// ────────────────────────────────────────────────

func TestRegister_HashesPasswordAndPublishes(t *testing.T) {
	var created *model.User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			user.ID = "507f1f77bcf86cd799439011"
			created = user
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(t, repo, pub)

	user := &model.User{
		FullName: "Juan Dela Cruz",
		Email:    "Juan@Example.COM",
		UserType: model.RoleRentor,
	}

	if err := svc.Register(context.Background(), user, "sekrit1234"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if created == nil {
		t.Fatal("expected user to be created")
	}
	if created.Email != "juan@example.com" {
		t.Errorf("expected normalized email, got %q", created.Email)
	}
	if created.PasswordHash == "" || created.PasswordHash == "sekrit1234" {
		t.Error("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("sekrit1234")); err != nil {
		t.Error("stored hash does not match original password")
	}
	if created.IsVerified || created.IsIDVerified {
		t.Error("new accounts must start unverified")
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	if got := pub.published[0].GetEventType(); got != "user.registered" {
		t.Errorf("expected user.registered event, got %q", got)
	}
}

func TestRegister_RejectsWeakPassword(t *testing.T) {
	svc := newTestService(t, &mockUserRepository{}, &mockPublisher{})

	user := &model.User{FullName: "Juan Dela Cruz", Email: "juan@example.com", UserType: model.RoleRentor}

	err := svc.Register(context.Background(), user, "short")
	if err == nil {
		t.Fatal("expected error for weak password")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRegister_RejectsNonRentorRole(t *testing.T) {
	svc := newTestService(t, &mockUserRepository{}, &mockPublisher{})

	user := &model.User{FullName: "Eve Admin", Email: "eve@example.com", UserType: model.RoleAdmin}

	err := svc.Register(context.Background(), user, "sekrit1234")
	if err == nil {
		t.Fatal("expected error for admin self-registration")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

// ────────────────────────────────────────────────
// Login
// ────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "507f1f77bcf86cd799439011",
				Email:        email,
				UserType:     model.RoleRentor,
				PasswordHash: hashPassword(t, "sekrit1234"),
				IsVerified:   true,
				IsIDVerified: true,
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	token, user, err := svc.Login(context.Background(), "juan@example.com", "sekrit1234")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if user.ID != "507f1f77bcf86cd799439011" {
		t.Errorf("unexpected user: %+v", user)
	}

	claims, err := testSealer(t).Open(token, sealer.PurposeAccess)
	if err != nil {
		t.Fatalf("issued token failed to open: %v", err)
	}
	if claims.Subject != user.ID || claims.Role != model.RoleRentor {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				PasswordHash: hashPassword(t, "sekrit1234"),
				IsVerified:   true,
				IsIDVerified: true,
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	_, _, err := svc.Login(context.Background(), "juan@example.com", "wrong-password")
	if err == nil {
		t.Fatal("expected error for wrong password")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}

func TestLogin_RejectsUnverifiedEmail(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				PasswordHash: hashPassword(t, "sekrit1234"),
				UserType:     model.RoleRentor,
				IsVerified:   false,
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	_, _, err := svc.Login(context.Background(), "juan@example.com", "sekrit1234")
	if err == nil {
		t.Fatal("expected error for unverified email")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestLogin_RejectsRentorPendingIDApproval(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				PasswordHash: hashPassword(t, "sekrit1234"),
				UserType:     model.RoleRentor,
				IsVerified:   true,
				IsIDVerified: false,
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	_, _, err := svc.Login(context.Background(), "juan@example.com", "sekrit1234")
	if err == nil {
		t.Fatal("expected error for pending ID approval")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestLogin_StaffSkipsIDApprovalGate(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "507f1f77bcf86cd799439012",
				PasswordHash: hashPassword(t, "sekrit1234"),
				UserType:     model.RoleStaff,
				IsVerified:   true,
				IsIDVerified: false,
				IsActive:     true,
			}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	if _, _, err := svc.Login(context.Background(), "staff@example.com", "sekrit1234"); err != nil {
		t.Fatalf("expected staff login to succeed without ID approval, got %v", err)
	}
}

func TestLogout_RecordsActivity(t *testing.T) {
	var updated bson.M
	repo := &mockUserRepository{
		updateFieldsFunc: func(ctx context.Context, id string, fields bson.M) error {
			updated = fields
			return nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	if err := svc.Logout(context.Background(), "507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, ok := updated["last_activity"]; !ok {
		t.Errorf("expected last_activity update, got %v", updated)
	}
}

// ────────────────────────────────────────────────
// VerifyEmail / ApproveID
// ────────────────────────────────────────────────

func TestVerifyEmail_SetsVerifiedFlag(t *testing.T) {
	var updated bson.M
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, IsVerified: false}, nil
		},
		updateFieldsFunc: func(ctx context.Context, id string, fields bson.M) error {
			updated = fields
			return nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	token, err := testSealer(t).Seal(sealer.Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Purpose:   sealer.PurposeVerifyEmail,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seal token: %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if v, ok := updated["is_verified"].(bool); !ok || !v {
		t.Errorf("expected is_verified=true update, got %v", updated)
	}
}

func TestVerifyEmail_RejectsAccessToken(t *testing.T) {
	svc := newTestService(t, &mockUserRepository{}, &mockPublisher{})

	token, err := testSealer(t).Seal(sealer.Claims{
		Subject:   "507f1f77bcf86cd799439011",
		Purpose:   sealer.PurposeAccess,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seal token: %v", err)
	}

	if err := svc.VerifyEmail(context.Background(), token); err == nil {
		t.Fatal("expected access token to be rejected for email verification")
	}
}

func TestApproveID_RequiresUploadedDocument(t *testing.T) {
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, ValidID: ""}, nil
		},
	}
	svc := newTestService(t, repo, &mockPublisher{})

	_, err := svc.ApproveID(context.Background(), "507f1f77bcf86cd799439011")
	if err == nil {
		t.Fatal("expected error when no ID document uploaded")
	}

	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestApproveID_PublishesEvent(t *testing.T) {
	calls := 0
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			calls++
			verified := calls > 1
			return &model.User{
				ID:           id,
				Email:        "juan@example.com",
				FullName:     "Juan Dela Cruz",
				ValidID:      "valid-ids/abc.jpg",
				IsIDVerified: verified,
			}, nil
		},
	}
	pub := &mockPublisher{}
	svc := newTestService(t, repo, pub)

	user, err := svc.ApproveID(context.Background(), "507f1f77bcf86cd799439011")
	if err != nil {
		t.Fatalf("ApproveID failed: %v", err)
	}
	if !user.IsIDVerified {
		t.Error("expected returned user to be ID-verified")
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	if got := pub.published[0].GetEventType(); got != "user.id-verified" {
		t.Errorf("expected user.id-verified event, got %q", got)
	}
}
