package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goOTT/verification"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type VerificationRepository struct {
	db DB
}

func NewVerificationRepository(db DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) CreateVerification(ctx context.Context, record verification.Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO verifications (id, identifier, value, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.Identifier, record.Value, record.ExpiresAt, record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return verification.ErrDuplicate
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) FindVerification(ctx context.Context, identifier string) (*verification.Record, error) {
	query := `SELECT id, identifier, value, expires_at, created_at FROM verifications WHERE identifier = $1`

	var rec verification.Record
	err := r.db.QueryRow(ctx, query, identifier).Scan(
		&rec.ID, &rec.Identifier, &rec.Value, &rec.ExpiresAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, verification.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	return &rec, nil
}

// DeleteVerification deletes by primary key. Competing deletes serialise on the
// row lock and only the first sees a row affected.
func (r *VerificationRepository) DeleteVerification(ctx context.Context, record verification.Record) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM verifications WHERE id = $1 AND identifier = $2`,
		record.ID, record.Identifier,
	)
	if err != nil {
		return fmt.Errorf("delete verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return verification.ErrNotFound
	}
	return nil
}
