package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/config"
	"github.com/mrlokans/bookcatalog/internal/entities"
)

// DefaultTypeAuthen is stored when signup omits the account type.
const DefaultTypeAuthen = "local"

// MaxUsernameLength matches the width of the users.username column.
const MaxUsernameLength = 100

var (
	ErrUsernameRequired = apperr.Validation("username is required")
	ErrUsernameTooLong  = apperr.Validation(fmt.Sprintf("username must be at most %d characters", MaxUsernameLength))
	ErrUserExists       = apperr.Conflict("username already registered")

	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike.
	ErrInvalidCredentials = apperr.Unauthorized("incorrect username or password")
)

// UserStore is the credential store the service depends on.
type UserStore interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// SignupRequest carries the fields of a new account.
type SignupRequest struct {
	Username    string
	Password    string
	DisplayName string
	TypeAuthen  string
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// Service handles signup, credential checks and token resolution.
type Service struct {
	users     UserStore
	tokens    *TokenService
	config    config.Auth
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(users UserStore, tokens *TokenService, cfg config.Auth) (*Service, error) {
	// compared against when the username is unknown so both failures cost one bcrypt check
	dummy, err := HashPassword("not-a-real-password", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hashing: %w", err)
	}

	return &Service{
		users:     users,
		tokens:    tokens,
		config:    cfg,
		dummyHash: dummy,
	}, nil
}

// Tokens exposes the token service backing this auth service.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Signup validates and stores a new user with a hashed password.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*entities.User, error) {
	if req.Username == "" {
		return nil, ErrUsernameRequired
	}
	if utf8.RuneCountInString(req.Username) > MaxUsernameLength {
		return nil, ErrUsernameTooLong
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(req.Password) > MaxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	exists, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		TypeAuthen:   req.TypeAuthen,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.Username
	}
	if user.TypeAuthen == "" {
		user.TypeAuthen = DefaultTypeAuthen
	}

	// a concurrent signup can still lose the race on the unique index
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate validates credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = CheckPassword(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}

	return user, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	signed, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Token{AccessToken: signed, TokenType: TokenType, ExpiresAt: expiresAt}, nil
}

// CurrentUser resolves a bearer token to a stored user.
func (s *Service) CurrentUser(ctx context.Context, token string) (*entities.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
