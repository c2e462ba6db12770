package cart

import (
	"context"
	"time"

	"github.com/Skotchmaster/rocketshoes/internal/logging"
	"github.com/Skotchmaster/rocketshoes/internal/models"
	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

type EventType string

const (
	EventProductAdded   EventType = "product_added"
	EventProductRemoved EventType = "product_removed"
	EventAmountUpdated  EventType = "amount_updated"
)

// Event describes one applied mutation together with the cart it produced.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	ProductID int              `json:"product_id"`
	Amount    int              `json:"amount"`
	Cart      []models.Product `json:"cart"`
	At        time.Time        `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Outcome string

const (
	Applied  Outcome = "applied"
	Rejected Outcome = "rejected"
	Errored  Outcome = "errored"
)

type Recorder interface {
	Observe(op string, outcome Outcome)
}

func (s *Store) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.At = time.Now().UTC()

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, ev); err != nil {
		logging.FromContext(ctx).Error("cart_event_publish_error", "type", ev.Type, "product_id", ev.ProductID, "error", err)
	}
}

func (s *Store) observe(op string, outcome Outcome) {
	if s.recorder != nil {
		s.recorder.Observe(op, outcome)
	}
}
