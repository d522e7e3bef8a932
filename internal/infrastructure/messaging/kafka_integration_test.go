//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/guarantee-messaging/internal/domain/event"
	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	"github.com/bibbank/guarantee-messaging/internal/domain/valueobject"
	pkgkafka "github.com/bibbank/guarantee-messaging/pkg/kafka"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
	"github.com/bibbank/guarantee-messaging/pkg/testutil"
)

func createTopics(t *testing.T, broker string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	configs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		configs[i] = kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}
	}
	require.NoError(t, ctrl.CreateTopics(configs...))
}

func sampleMessage(t *testing.T) model.Message {
	t.Helper()
	msg, err := model.NewMessage(model.MessageSpec{
		Type:       swift.IssueGuarantee,
		Direction:  valueobject.DirectionOutgoing,
		Status:     valueobject.MessageStatusSent,
		SenderID:   testutil.IssuingBankBIC,
		ReceiverID: testutil.AdvisingBankBIC,
		Content:    testutil.IssuanceContent("GTEE0001"),
		RawForm:    testutil.IssuanceWire,
		Timestamp:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return msg
}

func TestKafka_RelayAndInbound_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	kc := testutil.NewKafkaContainer(ctx, t)
	defer kc.Cleanup(t)

	const eventsTopic, inboundTopic = "bib.swift.messages", "bib.swift.inbound"
	createTopics(t, kc.Brokers[0], eventsTopic, inboundTopic)

	cfg := pkgkafka.Config{Brokers: kc.Brokers, ConsumerGroup: "guarantee-messaging-it"}
	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	defer producer.Close()

	// Relay: a store event lands on the events topic keyed by message id.
	msg := sampleMessage(t)
	stored := event.NewMessageStored(msg, msg.Timestamp())
	require.NoError(t, NewRelay(producer, eventsTopic, discardLogger()).Forward(ctx, stored))

	relayed := make(chan pkgkafka.Message, 1)
	eventsConsumer, err := pkgkafka.NewConsumer(cfg, eventsTopic, func(_ context.Context, m pkgkafka.Message) error {
		relayed <- m
		return nil
	}, discardLogger())
	require.NoError(t, err)
	defer eventsConsumer.Close()
	go func() { _ = eventsConsumer.Start(ctx) }()

	select {
	case m := <-relayed:
		assert.Equal(t, msg.ID().String(), string(m.Key))
		assert.Equal(t, event.TypeMessageStored, m.Headers["event_type"])
		var payload map[string]any
		require.NoError(t, json.Unmarshal(m.Value, &payload))
		assert.Equal(t, stored.EventID(), payload["event_id"])
	case <-ctx.Done():
		t.Fatal("relayed event not consumed")
	}

	// Inbound: a raw wire message reaches the receive function with its sender header.
	type delivery struct{ raw, sender string }
	received := make(chan delivery, 1)
	inbound, err := pkgkafka.NewConsumer(cfg, inboundTopic, InboundHandler(func(_ context.Context, raw, sender string) error {
		received <- delivery{raw: raw, sender: sender}
		return nil
	}, discardLogger()), discardLogger())
	require.NoError(t, err)
	defer inbound.Close()
	go func() { _ = inbound.Start(ctx) }()

	require.NoError(t, producer.Publish(ctx, inboundTopic, pkgkafka.Message{
		Key:     []byte("GTEE0001"),
		Value:   []byte(testutil.IssuanceWire),
		Headers: map[string]string{HeaderSenderID: testutil.IssuingBankBIC},
	}))

	select {
	case d := <-received:
		assert.Equal(t, testutil.IssuanceWire, d.raw)
		assert.Equal(t, testutil.IssuingBankBIC, d.sender)
	case <-ctx.Done():
		t.Fatal("inbound message not received")
	}
}
