package publish

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"PoolLedger/internal/core"
	"PoolLedger/internal/event"
)

// Publisher pushes applied calls to NATS JetStream for downstream consumers.
// Subjects follow the pattern pool.ledger.calls.{op}. Publishing is best
// effort: the durable record is the Postgres call log, so a failed publish is
// logged and skipped rather than retried.
type Publisher struct {
	js        jetstream.JetStream
	inputChan <-chan core.CoreOutput
}

// OutboundCall is the wire shape published for each applied call.
type OutboundCall struct {
	Sequence  int64           `json:"sequence"`
	CallID    string          `json:"call_id"`
	Op        string          `json:"op"`
	Caller    string          `json:"caller"`
	Payload   json.RawMessage `json:"payload"`
	Result    event.Result    `json:"result"`
	StateHash string          `json:"state_hash"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewPublisher(js jetstream.JetStream, inputChan <-chan core.CoreOutput) *Publisher {
	return &Publisher{
		js:        js,
		inputChan: inputChan,
	}
}

// Run starts the publisher loop. Blocks until ctx is cancelled or the input
// channel closes.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.inputChan:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, out.Envelope); err != nil {
				log.Printf("WARN: outbound publish failed seq=%d: %v", out.Envelope.Sequence, err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, env *event.Envelope) error {
	msg := OutboundCall{
		Sequence:  env.Sequence,
		CallID:    env.CallID.String(),
		Op:        env.Op.String(),
		Caller:    env.Caller.String(),
		Payload:   env.Payload,
		Result:    env.Result,
		StateHash: hex.EncodeToString(env.StateHash[:]),
		Timestamp: env.Timestamp,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}

	subject := fmt.Sprintf("pool.ledger.calls.%s", msg.Op)
	_, err = p.js.Publish(ctx, subject, data)
	return err
}

// EnsureStream creates or updates the outbound calls stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "POOL_LEDGER_CALLS",
		Subjects:  []string{"pool.ledger.calls.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create outbound stream: %w", err)
	}
	log.Println("INFO: ensured outbound stream POOL_LEDGER_CALLS")
	return nil
}
