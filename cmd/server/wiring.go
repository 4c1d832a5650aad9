package main

import (
	"log/slog"

	"docverify/internal/aiflow"
	aicache "docverify/internal/aiflow/cache"
	"docverify/internal/aiflow/gemini"
	aimetrics "docverify/internal/aiflow/metrics"
	doubtsservice "docverify/internal/doubts/service"
	doubtsstore "docverify/internal/doubts/store"
	"docverify/internal/idcard/lookup"
	idcardservice "docverify/internal/idcard/service"
	idcardstore "docverify/internal/idcard/store"
	"docverify/internal/platform/config"
	"docverify/internal/platform/database"
	"docverify/internal/platform/health"
	"docverify/internal/platform/kafka/producer"
	"docverify/internal/platform/redis"
	verificationservice "docverify/internal/verification/service"
	verificationstore "docverify/internal/verification/store"
	"docverify/pkg/platform/audit"
	auditmetrics "docverify/pkg/platform/audit/metrics"
	"docverify/pkg/platform/audit/publisher"
	auditkafka "docverify/pkg/platform/audit/store/kafka"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	auditpostgres "docverify/pkg/platform/audit/store/postgres"
	"docverify/pkg/platform/circuit"
	"docverify/pkg/platform/tracer"
)

const auditBufferSize = 1024

// cardStore serves both card management and reference lookups.
type cardStore interface {
	idcardservice.Store
	lookup.Store
}

type stores struct {
	cards         cardStore
	verifications verificationservice.Store
	doubts        doubtsservice.Store
}

// newStores picks Postgres when a pool is configured and memory otherwise.
func newStores(pool *database.Pool) stores {
	if pool == nil {
		return stores{
			cards:         idcardstore.NewInMemory(),
			verifications: verificationstore.NewInMemory(),
			doubts:        doubtsstore.NewInMemory(),
		}
	}
	db := pool.DB()
	return stores{
		cards:         idcardstore.NewPostgres(db),
		verifications: verificationstore.NewPostgres(db),
		doubts:        doubtsstore.NewPostgres(db),
	}
}

type auditSink struct {
	publisher *publisher.Publisher
	producer  *producer.Producer
	health    health.CheckFunc
}

// Close drains queued events before the producer is flushed.
func (s *auditSink) Close() {
	s.publisher.Close()
	if s.producer != nil {
		s.producer.Close()
	}
}

// newAuditSink routes audit events to Kafka when brokers are configured, to
// Postgres when only a database is, and to memory otherwise.
func newAuditSink(cfg *config.Server, pool *database.Pool, log *slog.Logger) (*auditSink, error) {
	sink := &auditSink{}

	var store audit.Store
	switch {
	case cfg.Kafka.Brokers != "":
		p, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			return nil, err
		}
		sink.producer = p
		sink.health = p.Check
		store = auditkafka.New(p, cfg.Kafka.AuditTopic)
		log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	case pool != nil:
		store = auditpostgres.New(pool.DB())
	default:
		store = auditmemory.NewInMemoryStore()
	}

	sink.publisher = publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithPublisherLogger(log),
		publisher.WithMetrics(auditmetrics.New()),
	)
	return sink, nil
}

// newFlows builds the model flows: generator, breaker, cache and tracing.
func newFlows(cfg *config.Server, redisClient *redis.Client, log *slog.Logger) *aiflow.Flows {
	m := aimetrics.New()

	var gen aiflow.Generator = aiflow.DisabledGenerator{}
	if cfg.GenAI.Disabled {
		log.Warn("generative model disabled; verifications and answers will report provider outages")
	} else {
		gen = gemini.New(gemini.Config{
			BaseURL: cfg.GenAI.BaseURL,
			Model:   cfg.GenAI.Model,
			APIKey:  cfg.GenAI.APIKey,
			Timeout: cfg.GenAI.Timeout,
			Logger:  log,
		})
	}

	breaker := circuit.New("genai",
		circuit.WithFailureThreshold(cfg.GenAI.BreakerThreshold),
		circuit.WithCooldown(cfg.GenAI.BreakerCooldown),
		circuit.WithStateChange(func(name string, from, to circuit.State) {
			m.SetBreakerOpen(to == circuit.StateOpen)
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		}),
	)

	var cache aiflow.Cache = aicache.NewMemory()
	if redisClient != nil {
		cache = aicache.NewRedis(redisClient.Client)
	}

	return aiflow.New(aiflow.NewBreakerGenerator(gen, breaker), cfg.GenAI.Model,
		aiflow.WithCache(cache, cfg.GenAI.CacheTTL),
		aiflow.WithTracer(tracer.NewOTel("docverify/aiflow")),
		aiflow.WithMetrics(m),
		aiflow.WithLogger(log),
	)
}
