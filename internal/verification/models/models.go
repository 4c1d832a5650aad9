package models

import (
	"fmt"
	"time"

	"docverify/internal/reconcile"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// Kind selects which document flow a submission runs.
type Kind string

const (
	KindIDCard  Kind = "id_card"
	KindAadhaar Kind = "aadhaar"
)

func (k Kind) IsValid() bool {
	return k == KindIDCard || k == KindAadhaar
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
	StatusError    Status = "error"
)

func (s Status) IsTerminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusError
}

type MatchStatus string

const (
	MatchMatched    MatchStatus = "matched"
	MatchMismatched MatchStatus = "mismatched"
	MatchNotFound   MatchStatus = "not_found"
	MatchError      MatchStatus = "error"
)

// ReferenceMatch is the comparison against the stored reference record.
// Mismatches is set only for MatchMismatched.
type ReferenceMatch struct {
	Status     MatchStatus          `json:"status"`
	Mismatches []reconcile.Mismatch `json:"mismatches,omitempty"`
}

// Source names the extraction flow that produced a set of fields.
type Source string

const (
	SourceIDDetails Source = "id_details"
	SourceFraudScan Source = "fraud_scan"
)

// ExtractedFields is what the model read off the document. Every field is
// optional; DateOfBirth keeps the printed DD/MM/YYYY form.
type ExtractedFields struct {
	Sources       []Source `json:"sources"`
	IDNumber      *string  `json:"idNumber,omitempty"`
	AadhaarNumber *string  `json:"aadhaarNumber,omitempty"`
	Name          *string  `json:"name,omitempty"`
	DateOfBirth   *string  `json:"dateOfBirth,omitempty"`
	Gender        *string  `json:"gender,omitempty"`
	Address       *string  `json:"address,omitempty"`
}

// Reconcilable flattens the compared fields, treating absent as empty.
func (f ExtractedFields) Reconcilable() reconcile.Fields {
	return reconcile.Fields{
		Name:        deref(f.Name),
		DateOfBirth: deref(f.DateOfBirth),
		Gender:      deref(f.Gender),
	}
}

type FaceResult struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Record is one verification attempt. It is created pending and completed
// exactly once.
type Record struct {
	ID               id.VerificationID `json:"id"`
	Timestamp        time.Time         `json:"timestamp"`
	UserID           id.UserID         `json:"userId"`
	Kind             Kind              `json:"kind"`
	SourceImage      string            `json:"sourceImage"`
	Status           Status            `json:"status"`
	ExtractedFields  ExtractedFields   `json:"extractedFields"`
	IndicatorMessage *string           `json:"indicatorMessage"`
	ReferenceMatch   *ReferenceMatch   `json:"referenceMatch"`
	FaceMatch        *FaceResult       `json:"faceMatch"`
	Findings         []string          `json:"findings"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
}

// Completion carries the terminal result applied by Complete.
type Completion struct {
	Status           Status
	ExtractedFields  ExtractedFields
	IndicatorMessage *string
	ReferenceMatch   *ReferenceMatch
	FaceMatch        *FaceResult
	Findings         []string
}

var ErrAlreadyCompleted = fmt.Errorf("verification already completed: %w", sentinel.ErrInvalidState)

func NewRecord(userID id.UserID, kind Kind, sourceImage string, now time.Time) *Record {
	return &Record{
		ID:          id.NewVerificationID(),
		Timestamp:   now,
		UserID:      userID,
		Kind:        kind,
		SourceImage: sourceImage,
		Status:      StatusPending,
		Findings:    []string{},
	}
}

// Complete moves a pending record to its terminal state.
func (r *Record) Complete(c Completion, at time.Time) error {
	if r.Status != StatusPending {
		return ErrAlreadyCompleted
	}
	if !c.Status.IsTerminal() {
		return fmt.Errorf("completion status %q is not terminal: %w", c.Status, sentinel.ErrInvalidState)
	}
	r.Status = c.Status
	r.ExtractedFields = c.ExtractedFields
	r.IndicatorMessage = c.IndicatorMessage
	r.ReferenceMatch = c.ReferenceMatch
	r.FaceMatch = c.FaceMatch
	r.Findings = c.Findings
	if r.Findings == nil {
		r.Findings = []string{}
	}
	r.CompletedAt = &at
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
