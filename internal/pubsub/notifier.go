package pubsub

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Lifecycle event types published for correction runs.
const (
	EventRunCompleted = "correction.completed"
	EventRunFailed    = "correction.failed"
)

// Event describes a correction lifecycle notification.
type Event struct {
	Type         string    `json:"type"`
	CorrectionID uint      `json:"correction_id"`
	UserID       uint      `json:"user_id"`
	Model        string    `json:"model,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier publishes correction lifecycle events over NATS. A nil
// connection disables publishing, so callers never need to guard.
type Notifier struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNotifier constructs a notifier on the given subject.
func NewNotifier(conn *nats.Conn, subject string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

// Publish emits the event, fire and forget. Failures are logged only.
func (n *Notifier) Publish(event Event) {
	if n == nil || n.conn == nil || n.subject == "" {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to marshal correction event")
		return
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		n.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish correction event")
	}
}
