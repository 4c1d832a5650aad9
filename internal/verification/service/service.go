package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docverify/internal/aiflow"
	"docverify/internal/idcard/lookup"
	idmodels "docverify/internal/idcard/models"
	"docverify/internal/reconcile"
	"docverify/internal/verification/metrics"
	"docverify/internal/verification/models"
	"docverify/internal/verification/outcome"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/privacy"
	"docverify/pkg/platform/sentinel"
)

// Store persists verification records. Create is idempotent by ID; Complete
// returns models.ErrAlreadyCompleted for a record that is no longer pending.
type Store interface {
	Create(ctx context.Context, record *models.Record) error
	Complete(ctx context.Context, record *models.Record) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Record, error)
	FindByID(ctx context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error)
}

// Flows is the subset of aiflow.Flows a verification runs.
type Flows interface {
	ExtractIDDetails(ctx context.Context, image id.Image) (*aiflow.IDDetails, error)
	ExtractFraudIndicators(ctx context.Context, image id.Image) (*aiflow.FraudScan, error)
	MatchFaces(ctx context.Context, idPhoto, livePhoto id.Image) (*aiflow.FaceMatch, error)
}

type Resolver interface {
	Resolve(ctx context.Context, kind idmodels.IdentifierKind, raw string) lookup.Result
}

const (
	defaultAITimeout = 45 * time.Second
	// Bounds the terminal write once the request context is detached.
	persistTimeout = 5 * time.Second
)

type Option func(*Service)

type Service struct {
	store     Store
	flows     Flows
	resolver  Resolver
	auditor   *audit.Logger
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	aiTimeout time.Duration
}

func New(store Store, flows Flows, resolver Resolver, opts ...Option) *Service {
	if store == nil {
		panic("verification store is required")
	}
	if flows == nil {
		panic("ai flows are required")
	}
	if resolver == nil {
		panic("reference resolver is required")
	}
	svc := &Service{
		store:     store,
		flows:     flows,
		resolver:  resolver,
		logger:    slog.Default(),
		now:       time.Now,
		aiTimeout: defaultAITimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithAITimeout bounds each round of model calls for one submission.
func WithAITimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.aiTimeout = d
		}
	}
}

// Submit records a pending verification, runs the document checks and stores
// the terminal result. A failed or timed-out model call completes the record
// with status error; only persistence failures are returned as errors.
func (s *Service) Submit(ctx context.Context, userID id.UserID, req *models.SubmitRequest) (*models.Record, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req == nil || req.DocumentImage().IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "image is required")
	}
	if !req.Kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "kind must be id_card or aadhaar")
	}

	start := s.now()
	record := models.NewRecord(userID, req.Kind, req.Image, start.UTC())
	if err := s.store.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification")
	}

	var completion models.Completion
	if req.Kind == models.KindIDCard {
		completion = s.runIDCard(ctx, req.DocumentImage(), req.LiveImage())
	} else {
		completion = s.runAadhaar(ctx, req.DocumentImage())
	}

	finished := s.now()
	if err := record.Complete(completion, finished.UTC()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete verification")
	}
	// A cancelled request still completes its record; otherwise it would stay
	// pending forever.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.store.Complete(persistCtx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save verification result")
	}

	s.metrics.ObserveCompleted(string(record.Kind), string(record.Status), record.Findings, finished.Sub(start))
	s.logger.InfoContext(ctx, "verification completed",
		"verification_id", record.ID.String(),
		"user_id", userID.String(),
		"kind", string(record.Kind),
		"status", string(record.Status),
		"findings", strings.Join(record.Findings, ","),
	)
	s.auditor.Log(persistCtx, audit.Event{
		UserID:   userID,
		Subject:  record.ID.String(),
		Action:   string(audit.EventVerificationCompleted),
		Decision: string(record.Status),
		Reason:   strings.Join(record.Findings, ","),
	})
	return record, nil
}

func (s *Service) runIDCard(ctx context.Context, image, livePhoto id.Image) models.Completion {
	var (
		details *aiflow.IDDetails
		scan    *aiflow.FraudScan
	)
	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	g, gctx := errgroup.WithContext(aiCtx)
	g.Go(func() error {
		var err error
		details, err = s.flows.ExtractIDDetails(gctx, image)
		return err
	})
	g.Go(func() error {
		var err error
		scan, err = s.flows.ExtractFraudIndicators(gctx, image)
		return err
	})
	err := g.Wait()
	cancel()

	fields := models.ExtractedFields{Sources: []models.Source{}}
	if details != nil {
		fields.Sources = append(fields.Sources, models.SourceIDDetails)
		fields.IDNumber = details.IDNumber
		fields.Name = details.Name
		fields.DateOfBirth = details.DateOfBirth
	}
	if scan != nil {
		fields.Sources = append(fields.Sources, models.SourceFraudScan)
		fields.Gender = scan.Gender
		fields.Address = scan.Address
		fields.AadhaarNumber = scan.AadhaarNumber
	}
	if err != nil {
		return s.aiFailure(ctx, fields, outcome.Input{}, err)
	}

	in := s.lookupAndReconcile(ctx, idmodels.KindIDNumber, fields.IDNumber, fields)
	in.FraudIndicators = &scan.FraudIndicators

	if !livePhoto.IsZero() && in.Lookup.Status == lookup.StatusFound {
		face, err := s.matchFace(ctx, in.Lookup.Card, livePhoto)
		if err != nil {
			return s.aiFailure(ctx, fields, in, err)
		}
		in.FaceMatch = face
	}
	return complete(fields, in)
}

func (s *Service) runAadhaar(ctx context.Context, image id.Image) models.Completion {
	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	scan, err := s.flows.ExtractFraudIndicators(aiCtx, image)
	cancel()

	fields := models.ExtractedFields{Sources: []models.Source{}}
	if err != nil {
		return s.aiFailure(ctx, fields, outcome.Input{}, err)
	}
	fields.Sources = append(fields.Sources, models.SourceFraudScan)
	fields.Name = scan.Name
	fields.DateOfBirth = scan.DateOfBirth
	fields.Gender = scan.Gender
	fields.Address = scan.Address
	fields.AadhaarNumber = scan.AadhaarNumber

	in := s.lookupAndReconcile(ctx, idmodels.KindAadhaarNumber, fields.AadhaarNumber, fields)
	in.FraudIndicators = &scan.FraudIndicators
	return complete(fields, in)
}

// lookupAndReconcile treats an identifier that is missing or blank after
// normalization as an OCR failure and never sends it to the store.
func (s *Service) lookupAndReconcile(ctx context.Context, kind idmodels.IdentifierKind, identifier *string, fields models.ExtractedFields) outcome.Input {
	if identifier == nil || lookup.NormalizeKey(*identifier) == "" {
		return outcome.Input{IdentifierExtracted: false}
	}
	in := outcome.Input{
		IdentifierExtracted: true,
		Lookup:              s.resolver.Resolve(ctx, kind, *identifier),
	}
	if in.Lookup.Status == lookup.StatusFound {
		card := in.Lookup.Card
		in.Mismatches = reconcile.Reconcile(fields.Reconcilable(), reconcile.Fields{
			Name:        card.Name,
			DateOfBirth: card.DateOfBirth,
			Gender:      string(card.Gender),
		})
	}
	return in
}

func (s *Service) matchFace(ctx context.Context, card *idmodels.IDCard, livePhoto id.Image) (*models.FaceResult, error) {
	reference, err := id.ParseImageDataURI(card.PhotoReference)
	if err != nil {
		return nil, fmt.Errorf("reference photo for card %s is unreadable: %w", card.ID, err)
	}
	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()
	face, err := s.flows.MatchFaces(aiCtx, reference, livePhoto)
	if err != nil {
		return nil, err
	}
	return &models.FaceResult{IsMatch: face.IsMatch, Confidence: face.Confidence, Reasoning: face.Reasoning}, nil
}

func (s *Service) aiFailure(ctx context.Context, fields models.ExtractedFields, in outcome.Input, err error) models.Completion {
	s.logger.WarnContext(ctx, "verification ai step failed",
		"error", err,
		"category", string(aiflow.CategoryOf(err)),
		"identifier", privacy.RedactIdentifier(in.Lookup.Key),
	)
	in.AIFailure = err
	return complete(fields, in)
}

func complete(fields models.ExtractedFields, in outcome.Input) models.Completion {
	result := outcome.Classify(in)
	return models.Completion{
		Status:           result.Status,
		ExtractedFields:  fields,
		IndicatorMessage: result.IndicatorMessage,
		ReferenceMatch:   result.ReferenceMatch,
		FaceMatch:        in.FaceMatch,
		Findings:         result.FindingNames(),
	}
}

// List returns the caller's verification history, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Record, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	if records == nil {
		records = []*models.Record{}
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error) {
	record, err := s.store.FindByID(ctx, userID, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return record, nil
}
