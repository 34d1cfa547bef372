// Package chatlist derives the sidebar view of a user's chats: one summary
// line per chat and a free-text filter.
package chatlist

import (
	"strings"
	"time"

	"github.com/markdave123-py/docchat/internal/models"
)

const (
	PreviewLen       = 28
	Ellipsis         = "..."
	NoMessages       = "No messages"
	UnknownDate      = "Unknown date"
	NoChatsFound     = "No chats found"
	NoChatHistory    = "No chat history"
	dateLayout       = "Jan 2, 2006"
	fallbackIDPrefix = 6
)

type Summary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Date    string `json:"date"`
	Current bool   `json:"current"`
}

// Preview is the first user message, cut to PreviewLen runes.
func Preview(messages []models.Message) string {
	for _, m := range messages {
		if m.Role != models.RoleUser {
			continue
		}
		r := []rune(m.Text)
		if len(r) > PreviewLen {
			return string(r[:PreviewLen]) + Ellipsis
		}
		return m.Text
	}
	return NoMessages
}

// Matches reports whether term occurs, ignoring case, in the chat title or
// in its messages joined by spaces.
func Matches(chat models.Chat, term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return true
	}
	texts := make([]string, len(chat.Messages))
	for i, m := range chat.Messages {
		texts[i] = m.Text
	}
	if strings.Contains(strings.ToLower(strings.Join(texts, " ")), term) {
		return true
	}
	return chat.Title != "" && strings.Contains(strings.ToLower(chat.Title), term)
}

// Filter keeps the chats matching term in their original order.
func Filter(chats []models.Chat, term string) []models.Chat {
	out := make([]models.Chat, 0, len(chats))
	for _, c := range chats {
		if Matches(c, term) {
			out = append(out, c)
		}
	}
	return out
}

// Summarize filters chats and renders one Summary per match.
func Summarize(chats []models.Chat, term, currentID string) []Summary {
	filtered := Filter(chats, term)
	out := make([]Summary, 0, len(filtered))
	for _, c := range filtered {
		out = append(out, Summary{
			ID:      c.ID,
			Title:   Title(c),
			Preview: Preview(c.Messages),
			Date:    FormatDate(c.CreatedAt),
			Current: currentID != "" && c.ID == currentID,
		})
	}
	return out
}

// Title falls back to a short id based label for untitled chats.
func Title(c models.Chat) string {
	if c.Title != "" {
		return c.Title
	}
	id := c.ID
	if len(id) > fallbackIDPrefix {
		id = id[:fallbackIDPrefix]
	}
	return "Chat " + id
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return UnknownDate
	}
	return t.Format(dateLayout)
}

// EmptyHint is shown when a (filtered) list has no entries.
func EmptyHint(term string) string {
	if term != "" {
		return NoChatsFound
	}
	return NoChatHistory
}
