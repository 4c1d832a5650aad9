package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docverify/internal/platform/kafka/producer"
	id "docverify/pkg/domain"
	audit "docverify/pkg/platform/audit"
)

type recordingProducer struct {
	msgs []*producer.Message
	err  error
}

func (p *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestStore_AppendPublishesJSON(t *testing.T) {
	p := &recordingProducer{}
	store := New(p, "docverify.audit")
	userID := id.NewUserID()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := store.Append(context.Background(), audit.Event{
		Timestamp: ts,
		UserID:    userID,
		Subject:   "verification-1",
		Action:    string(audit.EventVerificationCompleted),
		Decision:  "failed",
	})
	require.NoError(t, err)
	require.Len(t, p.msgs, 1)

	msg := p.msgs[0]
	assert.Equal(t, "docverify.audit", msg.Topic)
	assert.Equal(t, userID.String(), string(msg.Key))
	assert.Equal(t, string(audit.EventVerificationCompleted), msg.Headers["action"])

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, userID, decoded.UserID)
	assert.Equal(t, "failed", decoded.Decision)
	assert.True(t, ts.Equal(decoded.Timestamp))
}

func TestStore_AppendWrapsProducerError(t *testing.T) {
	cause := errors.New("broker down")
	store := New(&recordingProducer{err: cause}, "docverify.audit")

	err := store.Append(context.Background(), audit.Event{UserID: id.NewUserID()})
	require.ErrorIs(t, err, cause)
}
