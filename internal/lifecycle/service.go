package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplace/models"
)

const defaultQuoteValidity = 7 * 24 * time.Hour

type Config struct {
	// QuoteValidity is how long a submitted quote may be accepted.
	QuoteValidity time.Duration
}

// Service implements the procurement lifecycle: RFQ creation, quoting,
// acceptance into an order and order fulfillment. Every mutation checks the
// caller's role and ownership and runs in one transaction.
type Service struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
	cfg      Config

	now   func() time.Time
	newID func() string
}

func NewService(store Store, notifier Notifier, logger *zap.Logger, cfg Config) *Service {
	if cfg.QuoteValidity <= 0 {
		cfg.QuoteValidity = defaultQuoteValidity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		log:      logger,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// requireRole fails unless actor is approved and holds one of roles.
func requireRole(actor *models.UserProfile, roles ...models.Role) error {
	if actor == nil {
		return forbiddenf("no session")
	}
	if !actor.Approved() {
		return forbiddenf("account is %s", actor.Status)
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return forbiddenf("role %s may not perform this action", actor.Role)
}

func (s *Service) notify(ctx context.Context, userID, kind, title, message, link string) {
	if s.notifier == nil || userID == "" {
		return
	}
	n := models.Notification{
		ID:        s.newID(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}
	if link != "" {
		n.Link = &link
	}
	s.notifier.Notify(ctx, n)
}
