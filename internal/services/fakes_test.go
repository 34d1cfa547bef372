package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/models"
)

type fakeDB struct {
	mu     sync.Mutex
	users  map[string]*models.User
	chats  map[string]*models.Chat
	order  []string
	writes [][]models.Message

	listErr   error
	getErr    error
	updateErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: map[string]*models.User{}, chats: map[string]*models.Chat{}}
}

func (f *fakeDB) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.Email]; ok {
		return core.ErrDuplicate
	}
	u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	cp := *u
	f.users[u.Email] = &cp
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDB) ListChats(_ context.Context, userID string) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Chat
	for _, id := range f.order {
		if c := f.chats[id]; c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeDB) CountChats(ctx context.Context, userID string) (int, error) {
	chats, err := f.ListChats(ctx, userID)
	return len(chats), err
}

func (f *fakeDB) GetChat(_ context.Context, userID, chatID string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return nil, core.ErrNotFound
	}
	cp := *c
	cp.Messages = append([]models.Message{}, c.Messages...)
	return &cp, nil
}

func (f *fakeDB) CreateChat(_ context.Context, userID string, chat *models.Chat) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *chat
	cp.ID = fmt.Sprintf("chat-%d", len(f.order)+1)
	cp.UserID = userID
	f.chats[cp.ID] = &cp
	f.order = append(f.order, cp.ID)
	out := cp
	return &out, nil
}

func (f *fakeDB) UpdateMessages(ctx context.Context, userID, chatID string, msgs []models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	c, ok := f.chats[chatID]
	if !ok || c.UserID != userID {
		return core.ErrNotFound
	}
	for _, m := range msgs {
		if !m.Role.Valid() {
			return core.ErrInvalidRole
		}
	}
	c.Messages = append([]models.Message{}, msgs...)
	f.writes = append(f.writes, c.Messages)
	return nil
}

func (f *fakeDB) Close() error { return nil }

func (f *fakeDB) seed(userID string, msgs ...models.Message) string {
	chat, _ := f.CreateChat(context.Background(), userID, &models.Chat{
		Title:    "Chat 1",
		File:     models.Document{Name: "doc.pdf", MIMEType: "application/pdf", Data: "JVBERg=="},
		Messages: msgs,
	})
	return chat.ID
}

func (f *fakeDB) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

type llmCall struct {
	doc    models.Document
	prompt string
}

type fakeLLM struct {
	mu    sync.Mutex
	calls []llmCall
	reply func(prompt string) (string, error)
}

func (f *fakeLLM) GenerateWithDocument(ctx context.Context, doc models.Document, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, llmCall{doc: doc, prompt: prompt})
	reply := f.reply
	f.mu.Unlock()
	if reply == nil {
		return "ok", nil
	}
	return reply(prompt)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
