package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// PostgresStore keeps records in the verifications table with the extracted
// fields, reference match and face match as JSONB documents.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("verification record is required")
	}
	cols, err := encode(record)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO verifications (
			id, user_id, kind, timestamp, source_image, status, extracted_fields,
			indicator_message, reference_match, face_match, findings, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		uuid.UUID(record.ID),
		uuid.UUID(record.UserID),
		string(record.Kind),
		record.Timestamp,
		record.SourceImage,
		string(record.Status),
		jsonArg(cols.extracted),
		record.IndicatorMessage,
		jsonArg(cols.referenceMatch),
		jsonArg(cols.faceMatch),
		jsonArg(cols.findings),
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}

	var (
		owner  uuid.UUID
		status string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, status FROM verifications WHERE id = $1`, uuid.UUID(record.ID)).Scan(&owner, &status)
	if err != nil {
		return fmt.Errorf("check existing verification: %w", err)
	}
	if id.UserID(owner) == record.UserID && models.Status(status) == record.Status {
		return nil
	}
	return ErrIDReused
}

func (s *PostgresStore) Complete(ctx context.Context, record *models.Record) error {
	if record == nil || !record.Status.IsTerminal() {
		return fmt.Errorf("completed verification record is required")
	}
	cols, err := encode(record)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE verifications
		SET status = $3, extracted_fields = $4, indicator_message = $5,
		    reference_match = $6, face_match = $7, findings = $8, completed_at = $9
		WHERE id = $1 AND user_id = $2 AND status = 'pending'`,
		uuid.UUID(record.ID),
		uuid.UUID(record.UserID),
		string(record.Status),
		jsonArg(cols.extracted),
		record.IndicatorMessage,
		jsonArg(cols.referenceMatch),
		jsonArg(cols.faceMatch),
		jsonArg(cols.findings),
		record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("complete verification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete verification rows: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindByID(ctx, record.UserID, record.ID); err != nil {
		return err
	}
	return models.ErrAlreadyCompleted
}

const selectVerification = `
	SELECT id, user_id, kind, timestamp, source_image, status, extracted_fields,
	       indicator_message, reference_match, face_match, findings, completed_at
	FROM verifications`

// ListByUser returns the user's records, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectVerification+` WHERE user_id = $1 ORDER BY timestamp DESC, id`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx,
		selectVerification+` WHERE id = $1 AND user_id = $2`, uuid.UUID(verificationID), uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return r, nil
}

type encodedColumns struct {
	extracted      []byte
	referenceMatch []byte
	faceMatch      []byte
	findings       []byte
}

func encode(r *models.Record) (encodedColumns, error) {
	var (
		cols encodedColumns
		err  error
	)
	if cols.extracted, err = json.Marshal(r.ExtractedFields); err != nil {
		return cols, fmt.Errorf("encode extracted fields: %w", err)
	}
	if r.ReferenceMatch != nil {
		if cols.referenceMatch, err = json.Marshal(r.ReferenceMatch); err != nil {
			return cols, fmt.Errorf("encode reference match: %w", err)
		}
	}
	if r.FaceMatch != nil {
		if cols.faceMatch, err = json.Marshal(r.FaceMatch); err != nil {
			return cols, fmt.Errorf("encode face match: %w", err)
		}
	}
	findings := r.Findings
	if findings == nil {
		findings = []string{}
	}
	if cols.findings, err = json.Marshal(findings); err != nil {
		return cols, fmt.Errorf("encode findings: %w", err)
	}
	return cols, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r                                         models.Record
		recordID, userID                          uuid.UUID
		kind, status                              string
		extracted, referenceMatch, faceMatch, fnd []byte
		indicator                                 sql.NullString
		completedAt                               sql.NullTime
	)
	if err := row.Scan(&recordID, &userID, &kind, &r.Timestamp, &r.SourceImage, &status,
		&extracted, &indicator, &referenceMatch, &faceMatch, &fnd, &completedAt); err != nil {
		return nil, err
	}
	r.ID = id.VerificationID(recordID)
	r.UserID = id.UserID(userID)
	r.Kind = models.Kind(kind)
	r.Status = models.Status(status)
	r.Timestamp = r.Timestamp.UTC()
	if indicator.Valid {
		r.IndicatorMessage = &indicator.String
	}
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		r.CompletedAt = &t
	}
	if err := json.Unmarshal(extracted, &r.ExtractedFields); err != nil {
		return nil, fmt.Errorf("decode extracted fields: %w", err)
	}
	if len(referenceMatch) > 0 {
		r.ReferenceMatch = &models.ReferenceMatch{}
		if err := json.Unmarshal(referenceMatch, r.ReferenceMatch); err != nil {
			return nil, fmt.Errorf("decode reference match: %w", err)
		}
	}
	if len(faceMatch) > 0 {
		r.FaceMatch = &models.FaceResult{}
		if err := json.Unmarshal(faceMatch, r.FaceMatch); err != nil {
			return nil, fmt.Errorf("decode face match: %w", err)
		}
	}
	if err := json.Unmarshal(fnd, &r.Findings); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return &r, nil
}

// jsonArg passes JSONB parameters as text; a nil document becomes NULL.
func jsonArg(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
