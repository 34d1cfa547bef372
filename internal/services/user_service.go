package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/models"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
	ErrRegistrationFailed = errors.New("registration failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credentials is the register/login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UserService struct {
	db       core.DbClient
	tokens   *auth.Tokens
	validate *validator.Validate
	cost     int
}

func NewUserService(db core.DbClient, tokens *auth.Tokens) *UserService {
	return &UserService{db: db, tokens: tokens, validate: validator.New(), cost: bcrypt.DefaultCost}
}

// Register creates the account and returns a session token for it.
func (s *UserService) Register(ctx context.Context, c Credentials) (string, error) {
	c.Email = strings.TrimSpace(strings.ToLower(c.Email))
	if err := s.check(c); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.cost)
	if err != nil {
		return "", ErrRegistrationFailed
	}

	user := &models.User{Email: c.Email, PasswordHash: string(hash)}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return "", ErrRegistrationFailed
		}
		return "", err
	}
	return s.tokens.Issue(user.ID)
}

// Login verifies the credentials. Every mismatch yields ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, c Credentials) (string, error) {
	email := strings.TrimSpace(strings.ToLower(c.Email))
	user, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID)
}

func (s *UserService) check(c Credentials) error {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Password" {
				return ErrWeakPassword
			}
		}
		return ErrInvalidEmail
	}
	return err
}
