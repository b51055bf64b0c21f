package domain

import "context"

// WeatherProvider fetches current conditions. Transport and 5xx failures must
// be returned as errors wrapping ErrProviderUnavailable, never as defaults.
type WeatherProvider interface {
	FetchCurrent(ctx context.Context, lat, lon float64) (CurrentConditions, error)
}

// Geocoder resolves free text to places. Implementations must be idempotent
// and side-effect free.
type Geocoder interface {
	// Search returns up to limit candidates in provider ranking order.
	Search(ctx context.Context, text string, limit int) ([]LocationCandidate, error)

	// ResolveOne returns the best match, or ok=false when nothing matched.
	ResolveOne(ctx context.Context, text string) (candidate LocationCandidate, ok bool, err error)
}

// ReplyGenerator drafts an operator reply for a subscriber.
type ReplyGenerator interface {
	Draft(ctx context.Context, prompt ReplyPrompt) (string, error)
}

// DurableStore persists the full request collection. A failed Save must leave
// the previously saved snapshot loadable.
type DurableStore interface {
	Load(ctx context.Context) ([]SubscriberRequest, error)
	Save(ctx context.Context, requests []SubscriberRequest) error
}

// EventPublisher announces lifecycle transitions to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
}

// ReportGenerator writes a LocationReport. Provider failures, including empty
// completions, must be returned as errors wrapping ErrProviderUnavailable.
type ReportGenerator interface {
	Report(ctx context.Context, location string, lang Language) (LocationReport, error)
}
