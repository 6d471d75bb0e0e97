package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/account/repo"
	"github.com/ovaphlow/pitchfork/service-community-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-community-go/pkg/apperr"
)

// PasswordHasher is the hashing seam shared with registration.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Accounts is the account storage the service needs.
type Accounts interface {
	GetByID(ctx context.Context, id int64) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	List(ctx context.Context) ([]*entity.Account, error)
	IncrementFailedLogin(ctx context.Context, id int64) (int, error)
	LockIfThreshold(ctx context.Context, id int64, threshold int, until time.Time) (bool, error)
	ResetLoginSuccess(ctx context.Context, id int64) error
}

// Sessions stores refresh sessions by token hash.
type Sessions interface {
	Save(ctx context.Context, tokenHash string, accountID int64, expiresAt time.Time) (int64, error)
	Take(ctx context.Context, tokenHash string) (*repo.Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

var (
	ErrBadCredentials = apperr.Authentication("credenciales incorrectas")
	ErrLocked         = apperr.Authorization("cuenta bloqueada temporalmente, intente más tarde")
	ErrSuspended      = apperr.Authorization("la cuenta está suspendida")
	ErrNotActive      = apperr.Authorization("la cuenta no está activa")
	errSession        = apperr.Authentication("sesión inválida o expirada")
)

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	Account      *entity.Account `json:"account"`
}

// Service orchestrates login, session rotation and account lookups.
type Service struct {
	accounts Accounts
	sessions Sessions
	tokens   *auth.TokenIssuer
	hasher   PasswordHasher
	now      func() time.Time

	MaxFailed    int
	LockDuration time.Duration
	RefreshTTL   time.Duration

	dummyHash string
}

func NewService(accounts Accounts, sessions Sessions, tokens *auth.TokenIssuer, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	s := &Service{
		accounts:     accounts,
		sessions:     sessions,
		tokens:       tokens,
		hasher:       hasher,
		now:          time.Now,
		MaxFailed:    5,
		LockDuration: 15 * time.Minute,
		RefreshTTL:   30 * 24 * time.Hour,
	}
	// verified against when the email is unknown so both paths cost a hash
	s.dummyHash, _ = hasher.Hash("not-a-real-password")
	return s
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords yield the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrBadCredentials
	}
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.hasher.Verify(s.dummyHash, password)
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	now := s.now()
	// a locked account only reveals the lock to a caller holding the password
	if acc.LockedUntil != nil && acc.LockedUntil.After(now) {
		if !s.hasher.Verify(acc.PasswordHash, password) {
			return nil, ErrBadCredentials
		}
		return nil, ErrLocked
	}

	if !s.hasher.Verify(acc.PasswordHash, password) {
		if n, incErr := s.accounts.IncrementFailedLogin(ctx, acc.ID); incErr == nil && n >= s.MaxFailed {
			_, _ = s.accounts.LockIfThreshold(ctx, acc.ID, s.MaxFailed, now.Add(s.LockDuration))
		}
		return nil, ErrBadCredentials
	}

	switch acc.Status {
	case entity.StatusActive:
	case entity.StatusSuspended:
		return nil, ErrSuspended
	default:
		return nil, ErrNotActive
	}

	if err := s.accounts.ResetLoginSuccess(ctx, acc.ID); err != nil {
		return nil, err
	}
	acc.FailedLoginAttempts = 0
	acc.LockedUntil = nil
	return s.issue(ctx, acc)
}

// Refresh rotates a refresh token: the old one is consumed, a new pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, errSession
	}
	sess, err := s.sessions.Take(ctx, hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errSession
		}
		return nil, err
	}
	if sess.ExpiresAt.Before(s.now()) {
		return nil, errSession
	}
	acc, err := s.accounts.GetByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, errSession
		}
		return nil, err
	}
	if acc.Status != entity.StatusActive {
		return nil, errSession
	}
	return s.issue(ctx, acc)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.Delete(ctx, hashToken(refreshToken))
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, id int64) (*entity.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// List returns the account directory.
func (s *Service) List(ctx context.Context) ([]*entity.Account, error) {
	return s.accounts.List(ctx)
}

func (s *Service) issue(ctx context.Context, acc *entity.Account) (*TokenPair, error) {
	access, err := s.tokens.Issue(acc.ID, acc.RoleName)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	refresh := base64.RawURLEncoding.EncodeToString(buf)
	if _, err := s.sessions.Save(ctx, hashToken(refresh), acc.ID, s.now().Add(s.RefreshTTL)); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
		Account:      acc,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
