package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/hiring-agent/internal/types"
)

// Poster delivers a message to a chat channel.
type Poster interface {
	PostMessage(ctx context.Context, channel string, msg Message) error
}

// Notifier posts applicant updates to one channel.
type Notifier struct {
	poster  Poster
	channel string
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a Notifier. A nil poster makes every notification a logged
// no-op, which is how dry runs are configured.
func New(poster Poster, channel string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{poster: poster, channel: channel, now: time.Now, logger: logger}
}

func (n *Notifier) post(ctx context.Context, a *types.Applicant, update string) error {
	if update == "" {
		return nil
	}
	msg := ApplicantMessage(a, n.now()).WithUpdate(update)
	if n.poster == nil {
		n.logger.Info("notification", "email", a.Email, "update", update)
		return nil
	}
	if err := n.poster.PostMessage(ctx, n.channel, msg); err != nil {
		return fmt.Errorf("failed to post notification for %s: %w", a.Email, err)
	}
	return nil
}

// StatusChanged announces a new applicant status.
func (n *Notifier) StatusChanged(ctx context.Context, a *types.Applicant) error {
	return n.post(ctx, a, StatusUpdate(a))
}

// OfferStatusChanged announces a new offer envelope status.
func (n *Notifier) OfferStatusChanged(ctx context.Context, a *types.Applicant) error {
	return n.post(ctx, a, OfferUpdate(a))
}

// AgreementsStatusChanged announces a new employee agreements envelope
// status.
func (n *Notifier) AgreementsStatusChanged(ctx context.Context, a *types.Applicant) error {
	return n.post(ctx, a, AgreementsUpdate(a))
}

// BackgroundCheckStatusChanged announces a new background check status.
func (n *Notifier) BackgroundCheckStatusChanged(ctx context.Context, a *types.Applicant) error {
	return n.post(ctx, a, BackgroundCheckUpdate(a))
}

// StartDateChanged announces a new start date. Nothing is posted while the
// start date is unknown.
func (n *Notifier) StartDateChanged(ctx context.Context, a *types.Applicant) error {
	return n.post(ctx, a, StartDateUpdate(a))
}
