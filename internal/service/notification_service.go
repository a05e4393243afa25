package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/staybook/booking-service/internal/config"
	"github.com/staybook/booking-service/internal/events"
	"github.com/staybook/booking-service/internal/mail"
)

// MailEnqueuer hands messages to asynchronous delivery.
type MailEnqueuer interface {
	Enqueue(msg mail.Message) error
}

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      MailEnqueuer
	logger     *zap.Logger
	cfg        config.NotificationConfig
	resetTTL   time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue MailEnqueuer, logger *zap.Logger, cfg config.NotificationConfig, resetTTL time.Duration) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		cfg:        cfg,
		resetTTL:   resetTTL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handlePasswordResetCompleted)
	n.dispatcher.Subscribe(events.EventActorRegistered, n.handleActorRegistered)
}

func (n *NotificationService) handlePasswordResetRequested(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok || payload.Token == "" {
		return fmt.Errorf("password reset event without token for %s %d", event.Actor.Kind, event.Actor.ID)
	}
	link := mail.ResetLink(n.cfg.FrontendURL, event.Actor.Kind, payload.Token)
	n.enqueue(event, mail.PasswordResetMessage(event.Actor.Email, event.Actor.Name, link, humanDuration(n.resetTTL)))
	return nil
}

func (n *NotificationService) handlePasswordResetCompleted(_ context.Context, event events.Event) error {
	n.enqueue(event, mail.PasswordChangedMessage(event.Actor.Email, event.Actor.Name))
	return nil
}

func (n *NotificationService) handleActorRegistered(_ context.Context, event events.Event) error {
	n.enqueue(event, mail.WelcomeMessage(event.Actor.Email, event.Actor.Name))
	return nil
}

// enqueue never fails the caller; a message that cannot be queued is logged and dropped.
func (n *NotificationService) enqueue(event events.Event, msg mail.Message) {
	if n.queue == nil || strings.TrimSpace(msg.To) == "" {
		return
	}
	if err := n.queue.Enqueue(msg); err != nil {
		n.logger.Warn("enqueue email",
			zap.String("event", string(event.Type)),
			zap.String("kind", string(event.Actor.Kind)),
			zap.Int64("actor_id", event.Actor.ID),
			zap.Error(err))
		return
	}
	n.logger.Debug("email enqueued",
		zap.String("event", string(event.Type)),
		zap.String("subject", msg.Subject))
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a limited time"
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
