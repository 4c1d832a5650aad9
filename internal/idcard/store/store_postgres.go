package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"docverify/internal/idcard/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
	"docverify/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore keeps cards in id_cards and the identifier indexes in
// id_number_lookups and aadhaar_lookups. The index primary keys make
// uniqueness atomic; create and delete each run in one transaction.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var indexTables = map[models.IdentifierKind]struct{ table, column string }{
	models.KindIDNumber:      {"id_number_lookups", "id_number"},
	models.KindAadhaarNumber: {"aadhaar_lookups", "aadhaar_number"},
}

func (s *PostgresStore) Create(ctx context.Context, card *models.IDCard) error {
	if card == nil {
		return fmt.Errorf("id card is required")
	}
	return tx.Run(ctx, s.db, func(t *sql.Tx) error {
		_, err := t.ExecContext(ctx,
			`INSERT INTO id_number_lookups (id_number, card_id, owner_id) VALUES ($1, $2, $3)`,
			card.IDNumber, uuid.UUID(card.ID), uuid.UUID(card.OwnerID))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrIDNumberTaken
			}
			return fmt.Errorf("insert id number index: %w", err)
		}

		if card.AadhaarNumber != "" {
			_, err = t.ExecContext(ctx,
				`INSERT INTO aadhaar_lookups (aadhaar_number, card_id, owner_id) VALUES ($1, $2, $3)`,
				card.AadhaarNumber, uuid.UUID(card.ID), uuid.UUID(card.OwnerID))
			if err != nil {
				if isUniqueViolation(err) {
					return ErrAadhaarTaken
				}
				return fmt.Errorf("insert aadhaar index: %w", err)
			}
		}

		_, err = t.ExecContext(ctx, `
			INSERT INTO id_cards (
				id, owner_id, id_number, aadhaar_number, name, date_of_birth,
				gender, address, photo_reference, qr_code_reference, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.UUID(card.ID),
			uuid.UUID(card.OwnerID),
			card.IDNumber,
			nullable(card.AadhaarNumber),
			card.Name,
			card.DateOfBirth,
			string(card.Gender),
			card.Address,
			card.PhotoReference,
			card.QRCodeReference,
			card.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert id card: %w", err)
		}
		return nil
	})
}

const selectCard = `
	SELECT id, owner_id, id_number, aadhaar_number, name, date_of_birth,
	       gender, address, photo_reference, qr_code_reference, created_at
	FROM id_cards`

func (s *PostgresStore) FindByID(ctx context.Context, cardID id.CardID) (*models.IDCard, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx, selectCard+` WHERE id = $1`, uuid.UUID(cardID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find id card: %w", err)
	}
	return card, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.IDCard, error) {
	rows, err := s.db.QueryContext(ctx, selectCard+` WHERE owner_id = $1 ORDER BY created_at DESC`, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list id cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.IDCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan id card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate id cards: %w", err)
	}
	return cards, nil
}

func (s *PostgresStore) Delete(ctx context.Context, card *models.IDCard) error {
	return tx.Run(ctx, s.db, func(t *sql.Tx) error {
		if _, err := t.ExecContext(ctx,
			`DELETE FROM id_number_lookups WHERE id_number = $1 AND card_id = $2`,
			card.IDNumber, uuid.UUID(card.ID)); err != nil {
			return fmt.Errorf("delete id number index: %w", err)
		}
		if card.AadhaarNumber != "" {
			if _, err := t.ExecContext(ctx,
				`DELETE FROM aadhaar_lookups WHERE aadhaar_number = $1 AND card_id = $2`,
				card.AadhaarNumber, uuid.UUID(card.ID)); err != nil {
				return fmt.Errorf("delete aadhaar index: %w", err)
			}
		}
		res, err := t.ExecContext(ctx, `DELETE FROM id_cards WHERE id = $1`, uuid.UUID(card.ID))
		if err != nil {
			return fmt.Errorf("delete id card: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) FindIndex(ctx context.Context, kind models.IdentifierKind, key string) (models.CardLocator, error) {
	idx, ok := indexTables[kind]
	if !ok {
		return models.CardLocator{}, fmt.Errorf("unknown identifier kind %q", kind)
	}
	query := fmt.Sprintf(`SELECT card_id, owner_id FROM %s WHERE %s = $1`, idx.table, idx.column)

	var cardID, ownerID uuid.UUID
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&cardID, &ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CardLocator{}, sentinel.ErrNotFound
		}
		return models.CardLocator{}, fmt.Errorf("query %s: %w", idx.table, err)
	}
	return models.CardLocator{CardID: id.CardID(cardID), OwnerID: id.UserID(ownerID)}, nil
}

func (s *PostgresStore) LoadCard(ctx context.Context, loc models.CardLocator) (*models.IDCard, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx,
		selectCard+` WHERE id = $1 AND owner_id = $2`,
		uuid.UUID(loc.CardID), uuid.UUID(loc.OwnerID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load id card: %w", err)
	}
	return card, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.IDCard, error) {
	var (
		card    models.IDCard
		cardID  uuid.UUID
		ownerID uuid.UUID
		aadhaar sql.NullString
		gender  string
	)
	if err := row.Scan(
		&cardID,
		&ownerID,
		&card.IDNumber,
		&aadhaar,
		&card.Name,
		&card.DateOfBirth,
		&gender,
		&card.Address,
		&card.PhotoReference,
		&card.QRCodeReference,
		&card.CreatedAt,
	); err != nil {
		return nil, err
	}
	card.ID = id.CardID(cardID)
	card.OwnerID = id.UserID(ownerID)
	card.AadhaarNumber = aadhaar.String
	card.Gender = models.Gender(gender)
	return &card, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
