package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/core/auth"
	"github.com/markdave123-py/docchat/internal/core/session"
	"github.com/markdave123-py/docchat/internal/models"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrNoActiveChat    = errors.New("no active chat session")
	ErrLoadFailed      = errors.New("failed to load chat history")
)

// Transcript is the client's view of an open chat.
type Transcript struct {
	ChatID   string          `json:"chatId,omitempty"`
	State    string          `json:"state"`
	Messages []session.Entry `json:"messages"`
}

func snapshot(s *session.Session) Transcript {
	return Transcript{ChatID: s.ChatID(), State: s.State().String(), Messages: s.Entries()}
}

func guardTranscript(text string) Transcript {
	return Transcript{
		State:    session.Idle.String(),
		Messages: []session.Entry{{Role: session.EntryError, Text: text}},
	}
}

// ChatService drives open chat sessions: it sends the user's question and
// the document to the model and writes the transcript back on success.
// Open sessions are kept per user and chat for the configured TTL, which
// keeps unsaved error lines visible until the next successful send.
type ChatService struct {
	db       core.DbClient
	llm      core.LLMProvider
	sessions *cache.Cache
	logger   *zap.Logger
}

func NewChatService(db core.DbClient, llm core.LLMProvider, ttl time.Duration, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		db:       db,
		llm:      llm,
		sessions: cache.New(ttl, 10*time.Minute),
		logger:   logger,
	}
}

func sessionKey(userID, chatID string) string {
	return userID + "/" + chatID
}

// Open returns the live session for the chat, loading it from the store on
// first use. A missing chat yields core.ErrNotFound.
func (s *ChatService) Open(ctx context.Context, ident auth.Identity, chatID string) (*session.Session, error) {
	if !ident.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if chatID == "" {
		return nil, ErrNoActiveChat
	}

	key := sessionKey(ident.UserID, chatID)
	if x, ok := s.sessions.Get(key); ok {
		sess := x.(*session.Session)
		s.sessions.SetDefault(key, sess)
		return sess, nil
	}

	chat, err := s.db.GetChat(ctx, ident.UserID, chatID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Error("loading chat failed", zap.String("chat_id", chatID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	sess := session.New(ident.UserID, *chat)
	if err := s.sessions.Add(key, sess, cache.DefaultExpiration); err != nil {
		// lost the race against a concurrent Open
		if x, ok := s.sessions.Get(key); ok {
			return x.(*session.Session), nil
		}
		s.sessions.SetDefault(key, sess)
	}
	return sess, nil
}

// View returns the transcript of an open chat.
func (s *ChatService) View(ctx context.Context, ident auth.Identity, chatID string) (Transcript, error) {
	sess, err := s.Open(ctx, ident, chatID)
	if err != nil {
		return Transcript{}, err
	}
	return snapshot(sess), nil
}

// Send runs one question/answer exchange.
//
// Without an identity or a chat the returned transcript holds a single
// error line (and ErrUnauthenticated / ErrNoActiveChat). Blank text and a
// second send while one is in flight are rejected with the session
// untouched. A failed model call ends in an error line that is not written
// to the store; the conversation stays usable.
func (s *ChatService) Send(ctx context.Context, ident auth.Identity, chatID, text string) (Transcript, error) {
	if !ident.Authenticated() {
		return guardTranscript(session.NotAuthenticatedText), ErrUnauthenticated
	}
	if chatID == "" {
		return guardTranscript(session.NoActiveChatText), ErrNoActiveChat
	}

	sess, err := s.Open(ctx, ident, chatID)
	if err != nil {
		return Transcript{}, err
	}

	history, err := sess.Begin(text)
	if err != nil {
		return snapshot(sess), err
	}

	// Once dispatched the request runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("user_id", ident.UserID), zap.String("chat_id", chatID))

	reply, err := s.llm.GenerateWithDocument(ctx, sess.Document(), session.BuildPrompt(text, history))
	if err != nil {
		log.Warn("model request failed", zap.Error(err))
		_ = sess.Fail()
		return snapshot(sess), nil
	}
	snap, err := sess.Complete(reply)
	if err != nil {
		return snapshot(sess), err
	}

	err = sess.Persist(snap, func(msgs []models.Message) error {
		return s.db.UpdateMessages(ctx, ident.UserID, chatID, msgs)
	})
	if err != nil {
		log.Error("saving messages failed", zap.Error(err))
		sess.AppendError(session.SendFailedText)
	}
	return snapshot(sess), nil
}
