package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/models"
)

var ErrNoDocument = errors.New("no document provided")

// Encoder is the part of encoder.Encoder the service depends on.
type Encoder interface {
	Encode(ctx context.Context, userID, name, contentType string, r io.Reader) (models.Document, error)
}

// DocumentService encodes uploads and starts chats on them.
type DocumentService struct {
	db      core.DbClient
	encoder Encoder
	logger  *zap.Logger
	now     func() time.Time
}

func NewDocumentService(db core.DbClient, enc Encoder, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{db: db, encoder: enc, logger: logger, now: time.Now}
}

// Encode converts an upload into its inline form.
func (s *DocumentService) Encode(ctx context.Context, ident auth.Identity, name, contentType string, r io.Reader) (models.Document, error) {
	if !ident.Authenticated() {
		return models.Document{}, ErrUnauthenticated
	}
	return s.encoder.Encode(ctx, ident.UserID, name, contentType, r)
}

// StartChat creates an empty chat bound to doc, titled after the number of
// chats the user already has.
func (s *DocumentService) StartChat(ctx context.Context, ident auth.Identity, doc models.Document) (*models.Chat, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if doc.Data == "" {
		return nil, ErrNoDocument
	}

	n, err := s.db.CountChats(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("count chats: %w", err)
	}

	chat, err := s.db.CreateChat(ctx, ident.UserID, &models.Chat{
		Title:     fmt.Sprintf("Chat %d", n+1),
		CreatedAt: s.now(),
		File:      doc,
		Messages:  []models.Message{},
	})
	if err != nil {
		s.logger.Error("creating chat failed", zap.String("user_id", ident.UserID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("chat started", zap.String("user_id", ident.UserID), zap.String("chat_id", chat.ID))
	return chat, nil
}

// Upload encodes the file and starts a chat on it.
func (s *DocumentService) Upload(ctx context.Context, ident auth.Identity, name, contentType string, r io.Reader) (*models.Chat, error) {
	doc, err := s.Encode(ctx, ident, name, contentType, r)
	if err != nil {
		return nil, err
	}
	return s.StartChat(ctx, ident, doc)
}
