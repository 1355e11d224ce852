package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goOTT/session"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(ctx context.Context, u session.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, name, email_verified) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name, email_verified = EXCLUDED.email_verified`,
		u.ID, u.Email, u.Name, u.EmailVerified,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*session.User, error) {
	query := `SELECT id, email, name, email_verified FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (*session.User, error) {
	var u session.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.EmailVerified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
