// Package lookup resolves an identifier read off a document to the reference
// record it names.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"docverify/internal/idcard/models"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/platform/sentinel"
)

type Status string

const (
	StatusFound          Status = "found"
	StatusNotFound       Status = "not_found"
	StatusIntegrityError Status = "integrity_error"
	StatusLookupError    Status = "lookup_error"
)

// Result is the outcome of one lookup. Card is set only for StatusFound and
// Err only for StatusLookupError.
type Result struct {
	Status Status
	Key    string
	Card   *models.IDCard
	Err    error
}

// Store is the read side of the card store the resolver needs. Both methods
// return sentinel.ErrNotFound for a missing entry; any other error is a
// transport or query failure.
type Store interface {
	FindIndex(ctx context.Context, kind models.IdentifierKind, key string) (models.CardLocator, error)
	LoadCard(ctx context.Context, loc models.CardLocator) (*models.IDCard, error)
}

type Resolver struct {
	store  Store
	logger *slog.Logger
}

func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if store == nil {
		panic("lookup store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// NormalizeKey removes every whitespace rune, so "1234 5678 9012" and
// "123456789012" address the same index entry.
func NormalizeKey(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Resolve never turns a store failure into not_found. Callers must not pass
// an identifier that is empty after normalization; such a key is reported as
// not_found without touching the store.
func (r *Resolver) Resolve(ctx context.Context, kind models.IdentifierKind, raw string) Result {
	key := NormalizeKey(raw)
	if key == "" {
		return Result{Status: StatusNotFound}
	}

	loc, err := r.store.FindIndex(ctx, kind, key)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return Result{Status: StatusNotFound, Key: key}
	case err != nil:
		r.logger.ErrorContext(ctx, "reference index query failed",
			"error", err,
			"identifier_kind", string(kind),
			"identifier", privacy.RedactIdentifier(key),
		)
		return Result{Status: StatusLookupError, Key: key, Err: err}
	}

	card, err := r.store.LoadCard(ctx, loc)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		r.logger.WarnContext(ctx, "reference index points at missing record",
			"identifier_kind", string(kind),
			"identifier", privacy.RedactIdentifier(key),
			"card_id", loc.CardID.String(),
		)
		return Result{Status: StatusIntegrityError, Key: key}
	case err != nil:
		r.logger.ErrorContext(ctx, "reference record load failed",
			"error", err,
			"card_id", loc.CardID.String(),
		)
		return Result{Status: StatusLookupError, Key: key, Err: err}
	}
	return Result{Status: StatusFound, Key: key, Card: card}
}
