package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/txn2/chat-platform/pkg/auth"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// IDAllocator supplies unique account ids.
type IDAllocator interface {
	NextID() (int64, error)
}

// TokenIssuer mints access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID int64, role auth.Role) (string, error)
	TTL() time.Duration
}

// SignUpInput carries registration data.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginResult is returned from a successful login.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        *User  `json:"-"`
}

// Service handles registration and login.
type Service struct {
	store    Store
	ids      IDAllocator
	tokens   TokenIssuer
	activity ActivityRecorder
	cost     int
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithActivityRecorder records signup and login events.
func WithActivityRecorder(r ActivityRecorder) ServiceOption {
	return func(s *Service) {
		s.activity = r
	}
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) ServiceOption {
	return func(s *Service) {
		s.cost = cost
	}
}

// WithServiceClock overrides the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a user service.
func NewService(store Store, ids IDAllocator, tokens TokenIssuer, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		ids:    ids,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp registers a member account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	u, err := s.register(ctx, in, auth.RoleMember)
	if err != nil {
		return nil, err
	}
	s.record(ctx, u.ID, ActivitySignup)
	return u, nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
func (s *Service) EnsureAdmin(ctx context.Context, in SignUpInput) error {
	_, err := s.register(ctx, in, auth.RoleAdmin)
	if errors.Is(err, ErrDuplicateEmail) {
		return nil
	}
	return err
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	token, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	s.record(ctx, u.ID, ActivityLogin)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        u,
	}, nil
}

// Get returns an account. Returns ErrNotFound if it does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Exists reports whether the account exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("checking user: %w", err)
	}
	return ok, nil
}

func (s *Service) register(ctx context.Context, in SignUpInput, role auth.Role) (*User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := validate(email, in.Password, name); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	id, err := s.ids.NextID()
	if err != nil {
		return nil, fmt.Errorf("allocating user id: %w", err)
	}

	u := &User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// record logs and drops activity failures.
func (s *Service) record(ctx context.Context, userID int64, activity Activity) {
	if s.activity == nil {
		return
	}
	if err := s.activity.RecordActivity(ctx, userID, activity); err != nil {
		slog.Warn("failed to record activity", "user_id", userID, "activity", activity, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(email, password, name string) error {
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}
