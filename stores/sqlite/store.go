package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"interviewhub-complete/core"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	usersStmt := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		avatar_url TEXT,
		password_hash TEXT,
		created_at DATETIME
	);`
	if _, err = db.Exec(usersStmt); err != nil {
		log.Fatalf("failed to create users table: %v", err)
	}

	interviewsStmt := `
	CREATE TABLE IF NOT EXISTS interviews (
		id TEXT PRIMARY KEY,
		interview_key TEXT NOT NULL UNIQUE,
		interviewer_id TEXT NOT NULL,
		interviewee_id TEXT,
		date TEXT,
		time TEXT,
		status TEXT NOT NULL,
		meet_link TEXT,
		created_at DATETIME
	);`
	if _, err = db.Exec(interviewsStmt); err != nil {
		log.Fatalf("failed to create interviews table: %v", err)
	}

	messagesStmt := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		interview_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT,
		content TEXT,
		created_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_messages_interview ON messages (interview_id, created_at);`
	if _, err = db.Exec(messagesStmt); err != nil {
		log.Fatalf("failed to create messages table: %v", err)
	}

	return &sqliteStore{db}
}

// UserStore implementation

func (s *sqliteStore) CreateUser(ctx context.Context, user *core.User) (string, error) {
	id := ulid.Make().String()
	now := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"user_id": id,
		"email":   user.Email,
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, subject, email, name, avatar_url, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, user.Subject, user.Email, user.Name, user.AvatarURL, user.PasswordHash, now)
	if err != nil {
		log.WithError(err).Error("Failed to create user")
		return "", err
	}
	log.Info("User created successfully")
	return id, nil
}

func (s *sqliteStore) scanUser(row *sql.Row, notFound string) (*core.User, error) {
	var user core.User
	err := row.Scan(&user.ID, &user.Subject, &user.Email, &user.Name, &user.AvatarURL, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s", notFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *sqliteStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, subject, email, name, avatar_url, password_hash, created_at FROM users WHERE email = ?", email)
	return s.scanUser(row, fmt.Sprintf("user with email %s not found", email))
}

func (s *sqliteStore) FindUserBySubject(ctx context.Context, subject string) (*core.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, subject, email, name, avatar_url, password_hash, created_at FROM users WHERE subject = ?", subject)
	return s.scanUser(row, fmt.Sprintf("user with subject %s not found", subject))
}

// InterviewStore implementation

func (s *sqliteStore) CreateInterview(ctx context.Context, interview *core.Interview) (string, error) {
	id := ulid.Make().String()
	now := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"interview_id":  id,
		"interview_key": interview.Key,
	})

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM interviews WHERE interview_key = ?", interview.Key).Scan(&exists)
	if err == nil {
		return "", fmt.Errorf("interview key %s already exists", interview.Key)
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO interviews (id, interview_key, interviewer_id, interviewee_id, date, time, status, meet_link, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, interview.Key, interview.InterviewerID, interview.IntervieweeID, interview.Date, interview.Time, interview.Status, interview.MeetLink, now)
	if err != nil {
		log.WithError(err).Error("Failed to create interview")
		return "", err
	}
	log.Info("Interview created successfully")
	return id, nil
}

func scanInterview(scan func(...any) error) (*core.Interview, error) {
	var interview core.Interview
	var interviewee sql.NullString
	err := scan(&interview.ID, &interview.Key, &interview.InterviewerID, &interviewee,
		&interview.Date, &interview.Time, &interview.Status, &interview.MeetLink, &interview.CreatedAt)
	if err != nil {
		return nil, err
	}
	interview.IntervieweeID = interviewee.String
	return &interview, nil
}

const interviewColumns = "id, interview_key, interviewer_id, interviewee_id, date, time, status, meet_link, created_at"

func (s *sqliteStore) FindInterviewID(ctx context.Context, id string) (*core.Interview, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+interviewColumns+" FROM interviews WHERE id = ?", id)
	interview, err := scanInterview(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("interview with id %s not found", id)
	}
	return interview, err
}

func (s *sqliteStore) FindInterviewKey(ctx context.Context, key string) (*core.Interview, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+interviewColumns+" FROM interviews WHERE interview_key = ?", key)
	interview, err := scanInterview(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("interview with key %s not found", key)
	}
	return interview, err
}

func (s *sqliteStore) ListInterviewsForUser(ctx context.Context, userID string) ([]*core.Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+interviewColumns+" FROM interviews WHERE interviewer_id = ? OR interviewee_id = ? ORDER BY created_at, id",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interviews := make([]*core.Interview, 0)
	for rows.Next() {
		interview, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, interview)
	}
	return interviews, rows.Err()
}

func (s *sqliteStore) AssignInterviewee(ctx context.Context, key, userID string) (*core.Interview, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+interviewColumns+" FROM interviews WHERE interview_key = ?", key)
	interview, err := scanInterview(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("interview with key %s not found", key)
		}
		return nil, err
	}
	if interview.IntervieweeID != "" {
		return nil, fmt.Errorf("interview %s already has an interviewee", key)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE interviews SET interviewee_id = ?, status = ? WHERE interview_key = ?",
		userID, core.InterviewStatusScheduled, key)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	interview.IntervieweeID = userID
	interview.Status = core.InterviewStatusScheduled
	return interview, nil
}

func (s *sqliteStore) SetInterviewStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE interviews SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("interview with id %s not found", id)
	}
	return nil
}

func (s *sqliteStore) ExpireStaleInterviews(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE interviews SET status = ? WHERE status = ? AND created_at < ?",
		core.InterviewStatusExpired, core.InterviewStatusWaiting, cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		logrus.WithField("count", affected).Info("Expired stale interview bookings")
	}
	return int(affected), nil
}

// MessageStore implementation

func (s *sqliteStore) AppendMessage(ctx context.Context, message *core.Message) (string, error) {
	id := ulid.Make().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (id, interview_id, user_id, user_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, message.InterviewID, message.UserID, message.UserName, message.Content, time.Now())
	if err != nil {
		logrus.WithError(err).WithField("interview_id", message.InterviewID).Error("Failed to append message")
		return "", err
	}
	return id, nil
}

func (s *sqliteStore) ListMessagesForInterview(ctx context.Context, interviewID string) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, interview_id, user_id, user_name, content, created_at FROM messages WHERE interview_id = ? ORDER BY created_at, id",
		interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*core.Message, 0)
	for rows.Next() {
		var message core.Message
		if err := rows.Scan(&message.ID, &message.InterviewID, &message.UserID, &message.UserName, &message.Content, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}
	return messages, rows.Err()
}
