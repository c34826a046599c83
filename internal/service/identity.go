package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ayo6706/banking-ledger/internal/auth"
	"github.com/ayo6706/banking-ledger/internal/domain"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const accountNumberAttempts = 5

// AdminCredentials are the operator login secrets. All three empty disables
// admin login.
type AdminCredentials struct {
	Key      string
	Email    string
	Password string
}

func (c AdminCredentials) enabled() bool {
	return c.Key != "" && c.Email != "" && c.Password != ""
}

type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// Session is returned by every login flavour.
type Session struct {
	User  *models.UserView `json:"user,omitempty"`
	Token string           `json:"token"`
	Role  string           `json:"role,omitempty"`
}

// IdentityService owns registration, login and profile reads.
type IdentityService struct {
	repo             *repository.Repository
	hasher           PasswordHasher
	tokens           TokenSigner
	admin            AdminCredentials
	clock            Clock
	newAccountNumber func() string
}

func NewIdentityService(repo *repository.Repository, hasher PasswordHasher, tokens TokenSigner, admin AdminCredentials, clock Clock) *IdentityService {
	return &IdentityService{
		repo:             repo,
		hasher:           hasher,
		tokens:           tokens,
		admin:            admin,
		clock:            clock,
		newAccountNumber: randomAccountNumber,
	}
}

// randomAccountNumber returns a 10 digit number that never starts with zero.
func randomAccountNumber() string {
	return strconv.FormatInt(1_000_000_000+rand.Int64N(9_000_000_000), 10)
}

func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("register: %w: all fields are required", models.ErrValidation)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	taken := make(map[string]struct{}, len(users))
	for _, u := range users {
		if strings.EqualFold(u.Email, in.Email) || u.Username == in.Username {
			return nil, fmt.Errorf("register: %w: user already exists", models.ErrConflict)
		}
		taken[u.AccountNumber] = struct{}{}
	}

	accountNumber := ""
	for range accountNumberAttempts {
		candidate := s.newAccountNumber()
		if _, dup := taken[candidate]; !dup {
			accountNumber = candidate
			break
		}
	}
	if accountNumber == "" {
		return nil, fmt.Errorf("register: could not allocate a unique account number")
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user := models.User{
		ID:               uuid.NewString(),
		FullName:         in.FullName,
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     digest,
		AccountNumber:    accountNumber,
		Balance:          decimal.Zero,
		Status:           domain.StatusActive,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		CreatedAt:        s.clock.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Sign(auth.Identity{UserID: user.ID, Email: user.Email, Role: domain.RoleUser})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	zap.L().Info("user registered", zap.String("user_id", user.ID), zap.String("account_number", user.AccountNumber))

	view := user.View()
	return &Session{User: &view, Token: token}, nil
}

// Login accepts either the email or the username as identifier.
func (s *IdentityService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("login: %w: email/username and password are required", models.ErrValidation)
	}

	user, err := s.repo.FindUserByLogin(ctx, identifier)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("login: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("login: %w", models.ErrUnauthorized)
	}
	if user.Status == domain.StatusBanned {
		zap.L().Warn("banned user login refused", zap.String("user_id", user.ID))
		return nil, fmt.Errorf("login: %w: account is banned", models.ErrForbidden)
	}

	token, err := s.tokens.Sign(auth.Identity{UserID: user.ID, Email: user.Email, Role: domain.RoleUser})
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	view := user.View()
	return &Session{User: &view, Token: token}, nil
}

// AdminLogin checks the operator key and credentials in constant time.
func (s *IdentityService) AdminLogin(ctx context.Context, key, email, password string) (*Session, error) {
	if !s.admin.enabled() {
		return nil, fmt.Errorf("admin login: %w: operator login is not configured", models.ErrUnauthorized)
	}
	if !secretEqual(key, s.admin.Key) {
		return nil, fmt.Errorf("admin login: %w: invalid admin key", models.ErrUnauthorized)
	}
	emailOK := secretEqual(strings.ToLower(strings.TrimSpace(email)), strings.ToLower(s.admin.Email))
	passwordOK := secretEqual(password, s.admin.Password)
	if !emailOK || !passwordOK {
		zap.L().Warn("admin login refused")
		return nil, fmt.Errorf("admin login: %w: invalid admin credentials", models.ErrUnauthorized)
	}

	token, err := s.tokens.Sign(auth.Identity{UserID: domain.AdminSubject, Email: s.admin.Email, Role: domain.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	return &Session{Token: token, Role: domain.RoleAdmin}, nil
}

func (s *IdentityService) Profile(ctx context.Context, userID string) (*models.UserView, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	view := user.View()
	return &view, nil
}

// LookupAccount exposes only the holder name of an account.
func (s *IdentityService) LookupAccount(ctx context.Context, accountNumber string) (*models.AccountSummary, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if accountNumber == "" {
		return nil, fmt.Errorf("lookup account: %w: account number is required", models.ErrValidation)
	}
	user, err := s.repo.FindUserByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return &models.AccountSummary{FullName: user.FullName, AccountNumber: user.AccountNumber}, nil
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
