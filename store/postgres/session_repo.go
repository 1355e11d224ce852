package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db  DB
	now func() time.Time
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) SaveSession(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token required")
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, token, user_id, ip_address, user_agent, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		sess.ID, sess.Token, sess.UserID, sess.IPAddress, sess.UserAgent, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindSessionByToken(ctx context.Context, token string) (*session.Session, error) {
	query := `SELECT id, token, user_id, ip_address, user_agent, created_at, expires_at
	          FROM sessions WHERE token = $1 AND expires_at > $2`

	var s session.Session
	err := r.db.QueryRow(ctx, query, token, r.now()).Scan(
		&s.ID, &s.Token, &s.UserID, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

// DeleteExpired removes sessions that expired before now and reports how many
// rows were deleted.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
