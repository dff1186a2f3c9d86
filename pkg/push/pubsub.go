package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
)

// publisher is the slice of the Pub/Sub publisher the sender needs.
type publisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

type topicPublisher struct {
	topic *pubsub.Publisher
}

func (p topicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	return p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}

// batchPayload is the message a downstream push gateway consumes.
type batchPayload struct {
	Tokens       []string `json:"tokens"`
	Notification Message  `json:"notification"`
}

// PubSubSender publishes one message per token batch; a gateway subscribed
// to the topic performs device delivery. Malformed tokens are reported
// invalid without being published.
type PubSubSender struct {
	pub  publisher
	logg *logger.Logger
}

// NewPubSubSender wraps the push topic publisher.
func NewPubSubSender(topic *pubsub.Publisher, logg *logger.Logger) (*PubSubSender, error) {
	if topic == nil {
		return nil, fmt.Errorf("push topic publisher is required")
	}
	return &PubSubSender{pub: topicPublisher{topic: topic}, logg: logg}, nil
}

func (s *PubSubSender) SendToTokens(ctx context.Context, tokens []string, msg Message) (Result, error) {
	valid, invalid := splitValid(tokens)
	res := Result{FailureCount: len(invalid), InvalidTokens: invalid}
	if len(valid) == 0 {
		return res, nil
	}

	data, err := json.Marshal(batchPayload{Tokens: valid, Notification: msg})
	if err != nil {
		return res, fmt.Errorf("encode push batch: %w", err)
	}
	id, err := s.pub.Publish(ctx, data, map[string]string{
		"kind":        "push_batch",
		"token_count": strconv.Itoa(len(valid)),
	})
	if err != nil {
		res.FailureCount += len(valid)
		return res, fmt.Errorf("publish push batch: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"message_id":  id,
			"token_count": len(valid),
		}), "push batch published")
	}
	res.SuccessCount += len(valid)
	return res, nil
}
