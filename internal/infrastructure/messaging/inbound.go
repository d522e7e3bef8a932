package messaging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bibbank/guarantee-messaging/internal/domain/model"
	pkgkafka "github.com/bibbank/guarantee-messaging/pkg/kafka"
	"github.com/bibbank/guarantee-messaging/pkg/swift"
)

// HeaderSenderID optionally overrides the sender decoded from the wire message.
const HeaderSenderID = "sender_id"

// ReceiveFunc ingests one raw FIN message.
type ReceiveFunc func(ctx context.Context, raw, senderID string) error

// InboundHandler adapts a ReceiveFunc to the Kafka consumer. Messages that can
// never be ingested are logged and acknowledged so they do not stall the
// partition. Any other failure leaves the offset uncommitted.
func InboundHandler(receive ReceiveFunc, logger *slog.Logger) pkgkafka.Handler {
	return func(ctx context.Context, msg pkgkafka.Message) error {
		err := receive(ctx, string(msg.Value), msg.Headers[HeaderSenderID])
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			logger.Warn("discarding inbound message",
				"key", string(msg.Key),
				"error", err,
			)
			return nil
		}
		return err
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, swift.ErrMalformed) ||
		errors.Is(err, swift.ErrUnsupportedType) ||
		errors.Is(err, model.ErrStructural)
}
