package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps profiles in the users table of a SQLite or Postgres database.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Open returns a SQLStore for db, or a MemoryStore when db is nil.
func Open(db *sqlx.DB) Store {
	if db == nil {
		return NewMemoryStore()
	}
	return NewSQLStore(db)
}

type userRow struct {
	ID           int64          `db:"id"`
	Username     sql.NullString `db:"username"`
	FirstName    string         `db:"first_name"`
	RegisteredAt int64          `db:"registered_at"`
	FullName     sql.NullString `db:"full_name"`
	Age          sql.NullInt64  `db:"age"`
}

func (r userRow) profile() Profile {
	p := Profile{
		ID:           r.ID,
		FirstName:    r.FirstName,
		RegisteredAt: time.Unix(r.RegisteredAt, 0),
	}
	if r.Username.Valid {
		p.Username = &r.Username.String
	}
	if r.FullName.Valid {
		p.FullName = &r.FullName.String
	}
	if r.Age.Valid {
		age := int(r.Age.Int64)
		p.Age = &age
	}
	return p
}

func (s *SQLStore) EnsureUser(ctx context.Context, p Profile) (Profile, bool, error) {
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = time.Now()
	}
	var username any
	if p.Username != nil {
		username = *p.Username
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, username, first_name, registered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		p.ID, username, p.FirstName, p.RegisteredAt.Unix(),
	)
	if err != nil {
		return Profile{}, false, fmt.Errorf("users: insert profile: %w", err)
	}
	n, _ := res.RowsAffected()
	created := n == 1

	stored, err := s.Get(ctx, p.ID)
	if err != nil {
		return Profile{}, false, err
	}
	return stored, created, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Profile, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT id, username, first_name, registered_at, full_name, age
		FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("users: get profile: %w", err)
	}
	return row.profile(), nil
}

func (s *SQLStore) SaveRegistration(ctx context.Context, id int64, fullName string, age int) error {
	if err := ValidateAge(age); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET full_name = ?, age = ? WHERE id = ?`),
		fullName, age, id,
	)
	if err != nil {
		return fmt.Errorf("users: save registration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return n, nil
}

func (s *SQLStore) SavePoll(ctx context.Context, rec PollRecord) error {
	options, err := json.Marshal(rec.Options)
	if err != nil {
		return fmt.Errorf("users: marshal poll options: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO polls (poll_id, question, options, message_id, chat_id, answers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.PollID, rec.Question, string(options), rec.MessageID, rec.ChatID, rec.Answers, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("users: save poll: %w", err)
	}
	return nil
}
