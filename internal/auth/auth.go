package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/atharvakonge/paper-trader/internal/models"
	"github.com/atharvakonge/paper-trader/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidToken       = errors.New("invalid or expired session token")
)

// Service handles registration, login and credential changes. Sessions are
// held in process; restarting the server logs everyone out.
type Service struct {
	store           store.Store
	hasher          PasswordHasher
	startingBalance decimal.Decimal

	mu       sync.RWMutex
	sessions map[string]int // token -> account id
}

func NewService(st store.Store, hasher PasswordHasher, startingBalance decimal.Decimal) *Service {
	return &Service{
		store:           st,
		hasher:          hasher,
		startingBalance: startingBalance,
		sessions:        make(map[string]int),
	}
}

// Register creates an account with the configured starting balance
func (s *Service) Register(ctx context.Context, username, password string) (*models.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.store.Accounts().Create(ctx, username, hash, s.startingBalance)
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	log.Info().Int("account_id", account.ID).Str("username", username).Msg("account created")
	return account, nil
}

// Login verifies credentials and issues a session token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	account, err := s.store.Accounts().FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("storage: %w", err)
	}

	if err := s.hasher.Compare(account.CredentialHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = account.ID
	s.mu.Unlock()

	log.Info().Int("account_id", account.ID).Msg("login")
	return token, nil
}

// Authenticate resolves a session token to an account id
func (s *Service) Authenticate(token string) (int, error) {
	s.mu.RLock()
	accountID, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrInvalidToken
	}
	return accountID, nil
}

// Logout revokes a session token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ChangePassword verifies the old credential before writing the new hash
func (s *Service) ChangePassword(ctx context.Context, accountID int, oldPassword, newPassword string) error {
	account, err := s.store.Accounts().FindByID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if err := s.hasher.Compare(account.CredentialHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.Accounts().UpdateCredential(ctx, accountID, hash); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	log.Info().Int("account_id", accountID).Msg("password changed")
	return nil
}
