package core

import (
	"context"
	"errors"
	"io"

	"github.com/markdave123-py/docchat/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicate   = errors.New("already exists")
	ErrInvalidRole = errors.New("message role cannot be persisted")
)

// DbClient defines all persistence operations the services need.
// Every chat operation is scoped to the owning user.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	ListChats(ctx context.Context, userID string) ([]models.Chat, error)
	CountChats(ctx context.Context, userID string) (int, error)
	GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error)
	CreateChat(ctx context.Context, userID string, chat *models.Chat) (*models.Chat, error)
	UpdateMessages(ctx context.Context, userID, chatID string, messages []models.Message) error

	Close() error
}

// ObjectClient stores uploaded files and returns the URL they are served from.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
}
