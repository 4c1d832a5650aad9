package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestHashIdentifier(t *testing.T) {
	assert.Empty(t, HashIdentifier(""))
	assert.Len(t, HashIdentifier("IDC-123456789012"), 16)
	assert.Equal(t, HashIdentifier("123456789012"), HashIdentifier("123456789012"))
	assert.NotEqual(t, HashIdentifier("123456789012"), HashIdentifier("123456789013"))
}

func TestTracersAcceptAllAttributeKinds(t *testing.T) {
	attrs := []Attribute{
		String(AttrFlow, "extract_id_details"),
		Bool(AttrCacheHit, true),
		Int64(AttrImageBytes, 2048),
		Float64("confidence", 0.93),
		Attribute{Key: "other", Value: struct{}{}},
	}

	for name, tr := range map[string]Tracer{
		"noop": NewNoop(),
		"otel": NewOTelWith(noop.NewTracerProvider().Tracer("test")),
	} {
		t.Run(name, func(t *testing.T) {
			ctx, span := tr.Start(context.Background(), "genai.generate", attrs...)
			assert.NotNil(t, ctx)
			span.SetAttributes(attrs...)
			span.AddEvent("cache.miss", attrs...)
			span.End(errors.New("upstream timeout"))
		})
	}
}
