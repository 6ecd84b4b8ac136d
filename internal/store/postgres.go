package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"chat-relay/internal/models"
)

// PostgresStore persists the message log in Postgres.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the database and ensures the messages
// table exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            content TEXT NOT NULL,
            sender TEXT NOT NULL,
            timestamp TIMESTAMPTZ DEFAULT NOW(),
            session_id TEXT NOT NULL,
            metadata TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages (session_id);`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}

// CreateMessage validates and inserts a message, letting the database
// assign the id and timestamp.
func (s *PostgresStore) CreateMessage(ctx context.Context, content, sender, sessionID string, metadata *string) (models.Message, error) {
	if err := validate(content, sender, sessionID); err != nil {
		return models.Message{}, err
	}

	var msg models.Message
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO messages (content, sender, session_id, metadata) VALUES ($1, $2, $3, $4)
         RETURNING id, content, sender, timestamp, session_id, metadata`,
		content, sender, sessionID, metadata).
		Scan(&msg.ID, &msg.Content, &msg.Sender, &msg.Timestamp, &msg.SessionID, &msg.Metadata)
	return msg, err
}

// GetMessages returns the session's messages in creation order.
func (s *PostgresStore) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := s.db.SelectContext(ctx, &msgs,
		`SELECT id, content, sender, timestamp, session_id, metadata
         FROM messages WHERE session_id=$1 ORDER BY id ASC`, sessionID)
	return msgs, err
}

// Close releases the database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
