package util

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// ProcessWithTimeout runs callback with a deadline and gives up waiting once it passes.
func ProcessWithTimeout(timeout time.Duration, msg *nats.Msg, callback func(ctx context.Context, msg *nats.Msg) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- callback(ctx, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("processing timeout on %s after %s", msg.Subject, timeout)
	case err := <-done:
		return err
	}
}

// PublishEvent publishes data as JSON. A non-empty msgID lets the stream
// discard duplicates inside its dedupe window.
func PublishEvent(js nats.JetStreamContext, subject string, data any, msgID string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	var opts []nats.PubOpt
	if msgID != "" {
		opts = append(opts, nats.MsgId(msgID))
	}

	_, err = js.Publish(subject, payload, opts...)
	return err
}
