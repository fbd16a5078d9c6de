package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// managerClient talks to the manager over one NATS request/reply subject,
// the transport substitution for the original's MPI point-to-point
// messages. Every request is retried the way cmd/lambda's bot-move
// acknowledgement is: exponential backoff, logged on each attempt.
type managerClient struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

func newManagerClient(nc *nats.Conn, subject string, timeout time.Duration) *managerClient {
	return &managerClient{nc: nc, subject: subject, timeout: timeout}
}

// send posts reply to the manager and returns the Command it responds with.
func (c *managerClient) send(ctx context.Context, reply Reply) (Command, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return Command{}, fmt.Errorf("failed to marshal reply: %w", err)
	}

	var msg *nats.Msg
	err = retry.Do(
		func() error {
			var requestErr error
			msg, requestErr = c.nc.RequestWithContext(ctx, c.subject, data)
			return requestErr
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.OnRetry(func(n uint, err error) {
			log.Err(err).Uint("n", n).Str("subject", c.subject).Msg("manager request failed, retrying")
		}),
	)
	if err != nil {
		return Command{}, fmt.Errorf("failed to request from manager: %w", err)
	}

	var cmd Command
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		return Command{}, fmt.Errorf("failed to unmarshal command: %w", err)
	}
	return cmd, nil
}
