package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clientregistry/pkg/logger"
)

func headerMap(msg *sarama.ProducerMessage) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[string(h.Key)] = string(h.Value)
	}
	return out
}

func TestKafkaSink_Write(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sink := NewKafkaSinkWithProducer(producer, "clientregistry.audit", logger.Discard())

	e := NewEvent(EventLoginFailed).WithEmail("maria@email.com").WithReason("password_mismatch")
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "clientregistry.audit", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "maria@email.com", string(key))

		headers := headerMap(msg)
		assert.Equal(t, e.ID.String(), headers["event_id"])
		assert.Equal(t, "login.failed", headers["event_type"])

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		var decoded Event
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, e.ID, decoded.ID)
		assert.Equal(t, "password_mismatch", decoded.Reason)
		return nil
	})

	require.NoError(t, sink.Write(context.Background(), e))
	require.NoError(t, sink.Close())
}

func TestKafkaSink_WriteFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	sink := NewKafkaSinkWithProducer(producer, "audit", nil)

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	err := sink.Write(context.Background(), NewEvent(EventAccessDenied).WithSubject("abc"))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, sink.Close())
}

func TestKafkaSink_ThroughDispatcher(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	d := NewDispatcher(NewKafkaSinkWithProducer(producer, "audit", logger.Discard()), 4, logger.Discard())
	d.Publish(NewEvent(EventClientCreated).WithSubject("admin").WithResource("r1"))
	d.Publish(NewEvent(EventClientDeleted).WithSubject("admin").WithResource("r1"))
	require.NoError(t, d.Close(context.Background()))
}

func TestKafkaSinkConfig_SaramaConfig(t *testing.T) {
	cfg := DefaultKafkaSinkConfig()
	sc := cfg.SaramaConfig()
	require.NoError(t, sc.Validate())
	assert.True(t, sc.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
	assert.Equal(t, cfg.RetryMax, sc.Producer.Retry.Max)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logger.NewWithHandler(slog.NewJSONHandler(&buf, nil)))

	e := NewEvent(EventTokenRejected).WithReason("expired").WithIP("10.0.0.1")
	require.NoError(t, sink.Write(context.Background(), e))
	require.NoError(t, sink.Close())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "token.rejected", line["type"])
	assert.Equal(t, "expired", line["reason"])
	assert.Equal(t, "10.0.0.1", line["ip"])
}

func TestEvent_PartitionKey(t *testing.T) {
	e := NewEvent(EventLoginFailed).WithEmail("x@email.com")
	assert.Equal(t, "x@email.com", e.PartitionKey())
	assert.Equal(t, "sub-1", e.WithSubject("sub-1").PartitionKey())

	raw, err := NewEvent(EventAccessDenied).ToJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "subject")
}
