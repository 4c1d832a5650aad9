package aiflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"docverify/internal/aiflow/metrics"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/tracer"
)

const (
	FlowExtractIDDetails       = "extract_id_details"
	FlowExtractFraudIndicators = "extract_fraud_indicators"
	FlowMatchFaces             = "match_faces"
	FlowAnswerDoubt            = "answer_doubt"
)

// Cache stores validated flow output. Get reports a miss with ok=false and a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IDDetails is what the OCR flow reads off an ID card. Unreadable fields are nil.
type IDDetails struct {
	IDNumber    *string `json:"idNumber"`
	Name        *string `json:"name"`
	DateOfBirth *string `json:"dateOfBirth"`
}

// FraudScan is the forensic verdict plus the fields transcribed while inspecting.
type FraudScan struct {
	FraudIndicators string  `json:"fraudIndicators"`
	Name            *string `json:"name"`
	DateOfBirth     *string `json:"dateOfBirth"`
	Gender          *string `json:"gender"`
	Address         *string `json:"address"`
	AadhaarNumber   *string `json:"aadhaarNumber"`
}

type FaceMatch struct {
	IsMatch    bool    `json:"isMatch"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Doubt is a community question put to the assistant.
type Doubt struct {
	Title    string
	Body     string
	District string
	Category string
}

type Answer struct {
	Answer string `json:"answer"`
}

type Option func(*Flows)

// Flows runs the document flows over a Generator.
type Flows struct {
	gen      Generator
	model    string
	cache    Cache
	cacheTTL time.Duration
	tracer   tracer.Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(gen Generator, model string, opts ...Option) *Flows {
	if gen == nil {
		panic("generator is required")
	}
	f := &Flows{
		gen:    gen,
		model:  model,
		tracer: tracer.NewNoop(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithCache enables result caching; a nil cache or non-positive ttl disables it.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(f *Flows) {
		if c != nil && ttl > 0 {
			f.cache = c
			f.cacheTTL = ttl
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(f *Flows) {
		if t != nil {
			f.tracer = t
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Flows) {
		f.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flows) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func (f *Flows) ExtractIDDetails(ctx context.Context, image id.Image) (*IDDetails, error) {
	var out IDDetails
	if err := f.run(ctx, FlowExtractIDDetails, idDetailsPrompt, []id.Image{image}, idDetailsSchema(), &out); err != nil {
		return nil, err
	}
	out.IDNumber = cleanOptional(out.IDNumber)
	out.Name = cleanOptional(out.Name)
	out.DateOfBirth = cleanOptional(out.DateOfBirth)
	return &out, nil
}

func (f *Flows) ExtractFraudIndicators(ctx context.Context, image id.Image) (*FraudScan, error) {
	var out FraudScan
	if err := f.run(ctx, FlowExtractFraudIndicators, fraudScanPrompt, []id.Image{image}, fraudScanSchema(), &out); err != nil {
		return nil, err
	}
	out.FraudIndicators = strings.TrimSpace(out.FraudIndicators)
	out.Name = cleanOptional(out.Name)
	out.DateOfBirth = cleanOptional(out.DateOfBirth)
	out.Gender = cleanOptional(out.Gender)
	out.Address = cleanOptional(out.Address)
	out.AadhaarNumber = cleanOptional(out.AadhaarNumber)
	return &out, nil
}

// MatchFaces compares the photo on the reference card with a live photo.
func (f *Flows) MatchFaces(ctx context.Context, idPhoto, livePhoto id.Image) (*FaceMatch, error) {
	var out FaceMatch
	if err := f.run(ctx, FlowMatchFaces, faceMatchPrompt, []id.Image{idPhoto, livePhoto}, faceMatchSchema(), &out); err != nil {
		return nil, err
	}
	out.Reasoning = strings.TrimSpace(out.Reasoning)
	return &out, nil
}

func (f *Flows) AnswerDoubt(ctx context.Context, doubt Doubt) (*Answer, error) {
	var out Answer
	if err := f.run(ctx, FlowAnswerDoubt, answerPrompt(doubt), nil, answerSchema(), &out); err != nil {
		return nil, err
	}
	out.Answer = strings.TrimSpace(out.Answer)
	if out.Answer == "" {
		return nil, NewError(CategoryBadData, FlowAnswerDoubt, "answer is blank", nil)
	}
	return &out, nil
}

func (f *Flows) run(ctx context.Context, flow, prompt string, images []id.Image, schema map[string]any, out any) (err error) {
	var imageBytes int64
	for _, img := range images {
		imageBytes += int64(len(img.Data))
	}
	ctx, span := f.tracer.Start(ctx, "genai."+flow,
		tracer.String(tracer.AttrFlow, flow),
		tracer.String(tracer.AttrModel, f.model),
		tracer.Int64(tracer.AttrImageBytes, imageBytes),
	)
	defer func() { span.End(err) }()

	key := cacheKey(flow, f.model, prompt, images)
	if f.cache != nil {
		cached, ok, cacheErr := f.cache.Get(ctx, key)
		if cacheErr != nil {
			f.logger.WarnContext(ctx, "genai cache read failed", "flow", flow, "error", cacheErr)
		}
		if ok && json.Unmarshal(cached, out) == nil {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
			f.metrics.IncrementCacheHit(flow)
			return nil
		}
		f.metrics.IncrementCacheMiss(flow)
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	start := time.Now()
	raw, err := f.gen.Generate(ctx, Request{Flow: flow, Prompt: prompt, Images: images, Schema: schema})
	if err != nil {
		var flowErr *Error
		if !errors.As(err, &flowErr) {
			err = NewError(CategoryInternal, flow, "generator failed", err)
		}
		f.metrics.ObserveCall(flow, string(CategoryOf(err)), time.Since(start))
		f.logger.WarnContext(ctx, "genai call failed", "flow", flow, "category", CategoryOf(err), "error", err)
		return err
	}

	doc := StripCodeFence(raw)
	if err = ValidateAgainstSchema(schema, doc); err != nil {
		err = NewError(CategoryBadData, flow, "model output failed schema validation", err)
		f.metrics.ObserveCall(flow, string(CategoryBadData), time.Since(start))
		f.logger.WarnContext(ctx, "genai output rejected", "flow", flow, "error", err)
		return err
	}
	if err = json.Unmarshal(doc, out); err != nil {
		err = NewError(CategoryBadData, flow, "model output could not be decoded", err)
		f.metrics.ObserveCall(flow, string(CategoryBadData), time.Since(start))
		return err
	}
	f.metrics.ObserveCall(flow, "ok", time.Since(start))

	if f.cache != nil {
		if setErr := f.cache.Set(ctx, key, doc, f.cacheTTL); setErr != nil {
			f.logger.WarnContext(ctx, "genai cache write failed", "flow", flow, "error", setErr)
		}
	}
	return nil
}

func cacheKey(flow, model, prompt string, images []id.Image) string {
	h := sha256.New()
	h.Write([]byte(flow))
	h.Write([]byte{'|'})
	h.Write([]byte(model))
	h.Write([]byte{'|'})
	h.Write([]byte(prompt))
	for _, img := range images {
		h.Write([]byte{'|'})
		h.Write(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// cleanOptional turns blank values and literal "null" strings into nil.
func cleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// IsClean reports whether a forensic summary is the no-indicators phrase,
// ignoring case, surrounding whitespace and runs of inner whitespace.
func IsClean(indicators string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(indicators), " "), NoFraudIndicators)
}
