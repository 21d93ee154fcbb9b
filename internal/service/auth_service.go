package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DemoAccount is a credential seeded at start.
type DemoAccount struct {
	ID       string
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

var DemoAccounts = []DemoAccount{
	{ID: "1", Email: "admin@wowotech.dev", Password: "Admin123!", FullName: "Admin WowoTech", Role: domain.RoleAdmin},
	{ID: "2", Email: "user@wowotech.dev", Password: "User123!", FullName: "Demo User", Role: domain.RoleUser},
}

// AuthResult is returned by a successful login or registration.
type AuthResult struct {
	User domain.User `json:"user"`
	Role domain.Role `json:"role"`
}

type authState struct {
	User  *domain.User            `json:"user"`
	Users []domain.UserCredential `json:"users"`
}

type AuthService struct {
	mu       sync.RWMutex
	store    storage.Store
	logger   *zap.Logger
	hashCost int
	now      func() time.Time

	current *domain.User
	users   []domain.UserCredential
}

type AuthOption func(*AuthService)

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService seeds the demo accounts. Nothing is persisted until the
// first mutation.
func NewAuthService(store storage.Store, logger *zap.Logger, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		store:    store,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, acc := range DemoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash demo password for %s: %w", acc.Email, err)
		}
		s.users = append(s.users, domain.UserCredential{
			ID:           acc.ID,
			Email:        acc.Email,
			PasswordHash: string(hash),
			FullName:     acc.FullName,
			Role:         acc.Role,
			CreatedAt:    s.now(),
		})
	}
	return s, nil
}

// Load restores the current user and the credential set. Seeded accounts
// missing from the persisted set are kept.
func (s *AuthService) Load(ctx context.Context) error {
	var persisted authState
	err := s.store.Load(ctx, storage.KeyAuth, &persisted)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load auth: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := persisted.Users
	for _, seeded := range s.users {
		if indexOfEmail(users, seeded.Email) < 0 {
			users = append(users, seeded)
		}
	}
	s.users = users
	s.current = persisted.User
	return nil
}

// Login matches email and password. A failure leaves the current user as is.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfEmail(s.users, email)
	if i < 0 {
		return AuthResult{}, ErrInvalidCredentials
	}
	cred := s.users[i]
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	profile := cred.Profile()
	if err := s.persist(ctx, &profile, s.users); err != nil {
		return AuthResult{}, err
	}
	s.current = &profile

	s.logger.Info("user logged in", zap.String("user_id", profile.ID), zap.String("role", string(profile.Role)))
	return AuthResult{User: profile, Role: profile.Role}, nil
}

// Register appends a credential with role user and signs it in.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (AuthResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	if indexOfEmail(s.users, email) >= 0 {
		return AuthResult{}, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	cred := domain.UserCredential{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         domain.RoleUser,
		CreatedAt:    s.now(),
	}

	users := make([]domain.UserCredential, len(s.users), len(s.users)+1)
	copy(users, s.users)
	users = append(users, cred)

	profile := cred.Profile()
	if err := s.persist(ctx, &profile, users); err != nil {
		return AuthResult{}, err
	}
	s.users = users
	s.current = &profile

	s.logger.Info("user registered", zap.String("user_id", profile.ID))
	return AuthResult{User: profile, Role: profile.Role}, nil
}

// QuickLogin signs in as the seeded account of role.
func (s *AuthService) QuickLogin(ctx context.Context, role domain.Role) (AuthResult, error) {
	for _, acc := range DemoAccounts {
		if acc.Role == role {
			return s.Login(ctx, acc.Email, acc.Password)
		}
	}
	return AuthResult{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
}

func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, nil, s.users); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// CurrentUser returns the signed-in user, if any.
func (s *AuthService) CurrentUser() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

func (s *AuthService) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

func (s *AuthService) IsAdmin() bool {
	u, ok := s.CurrentUser()
	return ok && u.Role == domain.RoleAdmin
}

// Users returns the public profiles of the credential set.
func (s *AuthService) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Profile())
	}
	return out
}

func (s *AuthService) persist(ctx context.Context, current *domain.User, users []domain.UserCredential) error {
	if err := s.store.Save(ctx, storage.KeyAuth, authState{User: current, Users: users}); err != nil {
		s.logger.Error("persist auth failed", zap.Error(err))
		return fmt.Errorf("persist auth: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func indexOfEmail(users []domain.UserCredential, email string) int {
	email = normalizeEmail(email)
	for i, u := range users {
		if normalizeEmail(u.Email) == email {
			return i
		}
	}
	return -1
}
