package models

import (
	"time"
)

// Role tags the origin of a persisted chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleError Role = "error"
)

// Valid reports whether r may be written to the store.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleError:
		return true
	}
	return false
}

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Document is an uploaded file in its inline, transport-safe form.
type Document struct {
	Name       string `json:"name"`
	MIMEType   string `json:"type"`
	Data       string `json:"file"`     // base64 (std encoding)
	PreviewURL string `json:"imageUrl"` // icon path, object URL or data URL
}

// Message is one persisted turn of a chat.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Chat is one persisted conversation thread tied to a single document.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	File      Document  `db:"file" json:"file"`
	Messages  []Message `db:"messages" json:"messages"`
}
