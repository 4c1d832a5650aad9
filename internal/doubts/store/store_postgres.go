package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"docverify/internal/doubts/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doubt *models.Doubt) error {
	if doubt == nil {
		return fmt.Errorf("doubt is required")
	}
	var answer sql.NullString
	if doubt.Answer != nil {
		answer = sql.NullString{String: *doubt.Answer, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO doubts (id, user_id, title, body, district, category, answer, answer_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(doubt.ID),
		uuid.UUID(doubt.UserID),
		doubt.Title,
		doubt.Body,
		doubt.District,
		doubt.Category,
		answer,
		string(doubt.AnswerStatus),
		doubt.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("doubt %s: %w", doubt.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert doubt: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Doubt, error) {
	query := `
		SELECT id, user_id, title, body, district, category, answer, answer_status, created_at
		FROM doubts`
	var (
		where []string
		args  []any
	)
	if filter.District != "" {
		args = append(args, filter.District)
		where = append(where, fmt.Sprintf("lower(district) = lower($%d)", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if filter.Unanswered {
		where = append(where, "answer_status <> 'answered'")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	defer rows.Close()

	doubts := []*models.Doubt{}
	for rows.Next() {
		var (
			d              models.Doubt
			doubtID, owner uuid.UUID
			answer         sql.NullString
			status         string
		)
		if err := rows.Scan(&doubtID, &owner, &d.Title, &d.Body, &d.District, &d.Category, &answer, &status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan doubt: %w", err)
		}
		d.ID = id.DoubtID(doubtID)
		d.UserID = id.UserID(owner)
		d.AnswerStatus = models.AnswerStatus(status)
		if answer.Valid {
			d.Answer = &answer.String
		}
		doubts = append(doubts, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doubts: %w", err)
	}
	return doubts, nil
}
