// Package session holds the in-memory state of one open chat: its transcript
// and whether a model request is in flight.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/markdave123-py/docchat/internal/models"
)

// EntryRole extends the persisted roles with the transient loader.
type EntryRole string

const (
	EntryUser   = EntryRole(models.RoleUser)
	EntryModel  = EntryRole(models.RoleModel)
	EntryError  = EntryRole(models.RoleError)
	EntryLoader EntryRole = "loader"
)

// Entry is one line of the visible transcript.
type Entry struct {
	Role EntryRole `json:"role"`
	Text string    `json:"text"`
}

type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	if s == AwaitingResponse {
		return "awaiting-response"
	}
	return "idle"
}

// User-visible texts.
const (
	SendFailedText       = "Error sending message, please try again later."
	NotAuthenticatedText = "User not authenticated."
	NoActiveChatText     = "No active chat session."
	LoadFailedText       = "Failed to load chat history."
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a message is already being answered")
	ErrNotAwaiting  = errors.New("no request in flight")
)

// Snapshot is the storable transcript as of one completed exchange.
type Snapshot struct {
	Seq      uint64
	Messages []models.Message
}

// Session is safe for concurrent use. At most one request is in flight.
type Session struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	userID  string
	chat    models.Chat
	entries []Entry
	state   State
	seq     uint64
	written uint64
}

// New opens a session over a stored chat.
func New(userID string, chat models.Chat) *Session {
	entries := make([]Entry, 0, len(chat.Messages))
	for _, m := range chat.Messages {
		entries = append(entries, Entry{Role: EntryRole(m.Role), Text: m.Text})
	}
	chat.Messages = nil
	return &Session{userID: userID, chat: chat, entries: entries}
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) ChatID() string { return s.chat.ID }

// Document returns the document the chat is about.
func (s *Session) Document() models.Document { return s.chat.File }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entries returns a copy of the transcript, loader included.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Persisted returns the transcript without the loader, ready to be stored.
func (s *Session) Persisted() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return persisted(s.entries)
}

// Persist hands snap to write. Writes are serialized, and a snapshot older
// than the last one written is dropped.
func (s *Session) Persist(snap Snapshot, write func([]models.Message) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if snap.Seq <= s.written {
		return nil
	}
	if err := write(snap.Messages); err != nil {
		return err
	}
	s.written = snap.Seq
	return nil
}

// Begin appends the user's text and a loader and moves to AwaitingResponse.
// It returns the history that preceded the new message. Blank text and a
// request already in flight are rejected without touching the transcript.
func (s *Session) Begin(text string) ([]models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == AwaitingResponse {
		return nil, ErrBusy
	}
	history := persisted(s.entries)
	s.entries = append(s.entries,
		Entry{Role: EntryUser, Text: text},
		Entry{Role: EntryLoader},
	)
	s.state = AwaitingResponse
	return history, nil
}

// Complete replaces the loader with the model's reply and returns the
// transcript to store for this exchange. Later sends are not part of it.
func (s *Session) Complete(reply string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolveLocked(Entry{Role: EntryModel, Text: reply}); err != nil {
		return Snapshot{}, err
	}
	s.seq++
	return Snapshot{Seq: s.seq, Messages: persisted(s.entries)}, nil
}

// Fail replaces the loader with the generic send error.
func (s *Session) Fail() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked(Entry{Role: EntryError, Text: SendFailedText})
}

// AppendError adds a terminal error line without changing state.
func (s *Session) AppendError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Role: EntryError, Text: text})
}

func (s *Session) resolveLocked(e Entry) error {
	if s.state != AwaitingResponse {
		return ErrNotAwaiting
	}
	s.entries = withoutLoader(s.entries)
	s.entries = append(s.entries, e)
	s.state = Idle
	return nil
}

func withoutLoader(entries []Entry) []Entry {
	out := entries[:0]
	for _, e := range entries {
		if e.Role != EntryLoader {
			out = append(out, e)
		}
	}
	return out
}

func persisted(entries []Entry) []models.Message {
	out := make([]models.Message, 0, len(entries))
	for _, e := range entries {
		if e.Role == EntryLoader {
			continue
		}
		out = append(out, models.Message{Role: models.Role(e.Role), Text: e.Text})
	}
	return out
}
