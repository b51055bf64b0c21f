// Package lifecycle drives subscriber requests through
// PENDING -> GENERATED -> SENT, persisting every transition.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
	"github.com/google/uuid"
)

// Manager applies operator actions to requests held in a Store.
type Manager struct {
	store     *Store
	generator domain.ReplyGenerator
	publisher domain.EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewManager creates a Manager. generator may be nil, in which case every
// GenerateReply fails with ErrGenerationFailed. publisher may be nil.
func NewManager(store *Store, generator domain.ReplyGenerator, publisher domain.EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		store:     store,
		generator: generator,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		inFlight:  make(map[string]struct{}),
	}
}

// Create validates a subscription and stores it as a new PENDING request.
func (m *Manager) Create(ctx context.Context, form domain.SubscriptionForm, location domain.LocationCandidate) (domain.SubscriberRequest, error) {
	req, err := m.newRequest(form, location)
	if err != nil {
		m.observe("create", err)
		return domain.SubscriberRequest{}, err
	}

	if err := m.store.Insert(ctx, req); err != nil {
		m.observe("create", err)
		return domain.SubscriberRequest{}, fmt.Errorf("create request: %w", err)
	}

	m.observe("create", nil)
	m.logger.Info("request created", "request_id", req.ID, "location", req.Location.FullName())
	m.publish(ctx, domain.EventRequestCreated, req)
	return req, nil
}

func (m *Manager) newRequest(form domain.SubscriptionForm, location domain.LocationCandidate) (domain.SubscriberRequest, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return domain.SubscriberRequest{}, fmt.Errorf("create request: %w: name is required", domain.ErrValidation)
	}
	contact := strings.TrimSpace(form.Contact)
	if err := domain.ValidateContact(contact); err != nil {
		return domain.SubscriberRequest{}, fmt.Errorf("create request: %w", err)
	}
	if strings.TrimSpace(location.DisplayName) == "" {
		return domain.SubscriberRequest{}, fmt.Errorf("create request: %w: location is required", domain.ErrValidation)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.SubscriberRequest{}, fmt.Errorf("create request: generate id: %w", err)
	}

	return domain.SubscriberRequest{
		ID:        id.String(),
		Name:      name,
		Contact:   contact,
		Location:  location,
		Question:  strings.TrimSpace(form.Question),
		Status:    domain.StatusPending,
		CreatedAt: domain.Now().UTC(),
	}, nil
}

// GenerateReply drafts a reply for a PENDING or GENERATED request. While a
// draft is outstanding for an id, further calls for that id fail with
// ErrAlreadyInProgress. On provider failure the request is left untouched.
func (m *Manager) GenerateReply(ctx context.Context, id string, lang domain.Language) (domain.SubscriberRequest, error) {
	req, err := m.store.Get(id)
	if err != nil {
		m.observe("reply", err)
		return domain.SubscriberRequest{}, err
	}
	if req.Status == domain.StatusSent {
		err := fmt.Errorf("generate reply for %s: %w: request already sent", id, domain.ErrInvalidTransition)
		m.observe("reply", err)
		return domain.SubscriberRequest{}, err
	}

	if !m.acquire(id) {
		err := fmt.Errorf("generate reply for %s: %w", id, domain.ErrAlreadyInProgress)
		m.observe("reply", err)
		return domain.SubscriberRequest{}, err
	}
	defer m.release(id)

	reply, err := m.draft(ctx, req, lang)
	if err != nil {
		m.observe("reply", err)
		m.logger.Warn("reply generation failed", "request_id", id, "error", err)
		return domain.SubscriberRequest{}, err
	}

	updated, err := m.store.Update(ctx, id, func(r *domain.SubscriberRequest) error {
		if r.Status == domain.StatusSent {
			return fmt.Errorf("generate reply for %s: %w: request already sent", id, domain.ErrInvalidTransition)
		}
		r.Status = domain.StatusGenerated
		r.AIReply = reply
		return nil
	})
	if err != nil {
		m.observe("reply", err)
		return domain.SubscriberRequest{}, err
	}

	m.observe("reply", nil)
	m.logger.Info("reply generated", "request_id", id, "language", lang)
	m.publish(ctx, domain.EventReplyGenerated, updated)
	return updated, nil
}

func (m *Manager) draft(ctx context.Context, req domain.SubscriberRequest, lang domain.Language) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generate reply for %s: %w: no reply generator configured", req.ID, domain.ErrGenerationFailed)
	}

	start := time.Now()
	reply, err := m.generator.Draft(ctx, domain.ReplyPrompt{
		Name:     req.Name,
		Location: req.Location.FullName(),
		Question: req.Question,
		Language: lang,
	})
	m.metrics.ReplyGenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("generate reply for %s: %w: %w", req.ID, domain.ErrGenerationFailed, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("generate reply for %s: %w: empty draft", req.ID, domain.ErrGenerationFailed)
	}
	return reply, nil
}

// MarkSent moves a GENERATED request to SENT.
func (m *Manager) MarkSent(ctx context.Context, id string) (domain.SubscriberRequest, error) {
	updated, err := m.store.Update(ctx, id, func(r *domain.SubscriberRequest) error {
		if r.Status != domain.StatusGenerated {
			return fmt.Errorf("mark %s sent: %w: status is %s", id, domain.ErrInvalidTransition, r.Status)
		}
		r.Status = domain.StatusSent
		return nil
	})
	if err != nil {
		m.observe("send", err)
		return domain.SubscriberRequest{}, err
	}

	m.observe("send", nil)
	m.logger.Info("request marked sent", "request_id", id)
	m.publish(ctx, domain.EventRequestSent, updated)
	return updated, nil
}

// List returns all requests, newest first.
func (m *Manager) List() []domain.SubscriberRequest {
	return m.store.List()
}

// Get returns one request.
func (m *Manager) Get(id string) (domain.SubscriberRequest, error) {
	return m.store.Get(id)
}

func (m *Manager) acquire(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[id]; busy {
		return false
	}
	m.inFlight[id] = struct{}{}
	return true
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.inFlight, id)
	m.mu.Unlock()
}

// publish announces a persisted transition. Failures are logged only; the
// transition has already been committed.
func (m *Manager) publish(ctx context.Context, typ domain.LifecycleEventType, req domain.SubscriberRequest) {
	if m.publisher == nil {
		return
	}
	event := domain.LifecycleEvent{
		Type:       typ,
		RequestID:  req.ID,
		Status:     req.Status,
		Location:   req.Location.FullName(),
		OccurredAt: domain.Now().UTC(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.metrics.EventsPublished.WithLabelValues("error").Inc()
		m.logger.Warn("publish lifecycle event failed", "request_id", req.ID, "type", typ, "error", err)
		return
	}
	m.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func (m *Manager) observe(transition string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if errors.Is(err, domain.ErrAlreadyInProgress) {
			outcome = "conflict"
		}
	}
	m.metrics.LifecycleTransitions.WithLabelValues(transition, outcome).Inc()
}
