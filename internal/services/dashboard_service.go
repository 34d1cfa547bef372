package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/core/chatlist"
	"github.com/markdave123-py/docchat/internal/models"
)

// Dashboard modes.
const (
	ModeUpload = "upload"
	ModeChat   = "chat"
)

// Dashboard is what the main page needs in one round trip.
type Dashboard struct {
	Mode  string             `json:"mode"`
	Chats []chatlist.Summary `json:"chats"`
	Hint  string             `json:"hint,omitempty"`
	Chat  *models.Chat       `json:"chat,omitempty"`
}

type DashboardService struct {
	db     core.DbClient
	logger *zap.Logger
}

func NewDashboardService(db core.DbClient, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{db: db, logger: logger}
}

// Load fetches the chat list and, when chatID is set, the selected chat.
// A selected chat that is missing or fails to load falls back to the
// upload view.
func (s *DashboardService) Load(ctx context.Context, ident auth.Identity, chatID, search string) (Dashboard, error) {
	if !ident.Authenticated() {
		return Dashboard{}, ErrUnauthenticated
	}

	var (
		chats    []models.Chat
		selected *models.Chat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chats, err = s.db.ListChats(gctx, ident.UserID)
		return err
	})
	if chatID != "" {
		g.Go(func() error {
			chat, err := s.db.GetChat(gctx, ident.UserID, chatID)
			switch {
			case errors.Is(err, core.ErrNotFound):
				s.logger.Debug("selected chat not found", zap.String("chat_id", chatID))
			case err != nil:
				s.logger.Warn("loading selected chat failed", zap.String("chat_id", chatID), zap.Error(err))
			default:
				selected = chat
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Mode: ModeUpload, Chats: chatlist.Summarize(chats, search, chatID)}
	if len(d.Chats) == 0 {
		d.Hint = chatlist.EmptyHint(search)
	}
	if selected != nil {
		d.Mode = ModeChat
		d.Chat = selected
	}
	return d, nil
}
