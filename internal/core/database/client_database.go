package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/markdave123-py/docchat/internal/config"
	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/models"
)

// DatabaseClient implements core.DbClient over database/sql. Queries are
// written with '?' placeholders and rebound for Postgres.
type DatabaseClient struct {
	db       *sql.DB
	postgres bool
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	return Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
}

// Open connects with the given driver ("postgres" or "sqlite"), pings and
// bootstraps the schema.
func Open(ctx context.Context, driver, dsn string) (*DatabaseClient, error) {
	var sqlDriver string
	switch driver {
	case "postgres":
		sqlDriver = "pgx"
	case "sqlite":
		sqlDriver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == "sqlite" {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, postgres: driver == "postgres"}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// rebind turns '?' placeholders into $1..$n on Postgres.
func (c *DatabaseClient) rebind(q string) string {
	if !c.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	now := time.Now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	q := c.rebind(`
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixMicro(), user.UpdatedAt.UnixMicro())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, core.ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := c.rebind(`
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`)
	var (
		u                models.User
		created, updated int64
	)
	err := c.db.QueryRowContext(ctx, q, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.UnixMicro(created)
	u.UpdatedAt = time.UnixMicro(updated)
	return &u, nil
}

// Chats

const chatColumns = `id, user_id, title, created_at, file, messages`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*models.Chat, error) {
	var (
		ch                 models.Chat
		created            int64
		fileJSON, msgsJSON string
	)
	if err := row.Scan(&ch.ID, &ch.UserID, &ch.Title, &created, &fileJSON, &msgsJSON); err != nil {
		return nil, err
	}
	ch.CreatedAt = time.UnixMicro(created)
	if err := json.Unmarshal([]byte(fileJSON), &ch.File); err != nil {
		return nil, fmt.Errorf("unmarshal file of chat %s: %w", ch.ID, err)
	}
	if err := json.Unmarshal([]byte(msgsJSON), &ch.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages of chat %s: %w", ch.ID, err)
	}
	if ch.Messages == nil {
		ch.Messages = []models.Message{}
	}
	return &ch, nil
}

func encodeMessages(messages []models.Message) (string, error) {
	for _, m := range messages {
		if !m.Role.Valid() {
			return "", fmt.Errorf("role %q: %w", m.Role, core.ErrInvalidRole)
		}
	}
	if messages == nil {
		messages = []models.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	return string(b), nil
}

// ListChats returns the user's chats in creation order.
func (c *DatabaseClient) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	q := c.rebind(`SELECT ` + chatColumns + ` FROM chats WHERE user_id = ? ORDER BY created_at ASC, id ASC`)
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	out := []models.Chat{}
	for rows.Next() {
		ch, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountChats(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, c.rebind(`SELECT COUNT(*) FROM chats WHERE user_id = ?`), userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return n, nil
}

func (c *DatabaseClient) GetChat(ctx context.Context, userID, chatID string) (*models.Chat, error) {
	q := c.rebind(`SELECT ` + chatColumns + ` FROM chats WHERE id = ? AND user_id = ?`)
	ch, err := scanChat(c.db.QueryRowContext(ctx, q, chatID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %s: %w", chatID, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// CreateChat stores a new chat under a generated id and returns the stored record.
func (c *DatabaseClient) CreateChat(ctx context.Context, userID string, chat *models.Chat) (*models.Chat, error) {
	if chat == nil {
		return nil, errors.New("nil chat")
	}

	stored := *chat
	stored.ID = uuid.NewString()
	stored.UserID = userID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.CreatedAt = time.UnixMicro(stored.CreatedAt.UnixMicro())
	stored.Messages = append([]models.Message{}, chat.Messages...)

	fileJSON, err := json.Marshal(stored.File)
	if err != nil {
		return nil, fmt.Errorf("marshal file: %w", err)
	}
	msgsJSON, err := encodeMessages(stored.Messages)
	if err != nil {
		return nil, err
	}

	q := c.rebind(`INSERT INTO chats (` + chatColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err = c.db.ExecContext(ctx, q,
		stored.ID, stored.UserID, stored.Title, stored.CreatedAt.UnixMicro(), string(fileJSON), msgsJSON)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return &stored, nil
}

// UpdateMessages overwrites the messages column of one chat.
func (c *DatabaseClient) UpdateMessages(ctx context.Context, userID, chatID string, messages []models.Message) error {
	msgsJSON, err := encodeMessages(messages)
	if err != nil {
		return err
	}

	q := c.rebind(`UPDATE chats SET messages = ? WHERE id = ? AND user_id = ?`)
	res, err := c.db.ExecContext(ctx, q, msgsJSON, chatID, userID)
	if err != nil {
		return fmt.Errorf("update messages: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("chat %s: %w", chatID, core.ErrNotFound)
	}
	return nil
}
