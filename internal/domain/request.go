package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a SubscriberRequest.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusGenerated RequestStatus = "GENERATED"
	StatusSent      RequestStatus = "SENT"
)

// Language selects the language of generated replies.
type Language string

const (
	LanguageEN Language = "EN"
	LanguageBN Language = "BN"
)

// ParseLanguage normalizes a language code. Empty input defaults to English.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "EN":
		return LanguageEN, nil
	case "BN":
		return LanguageBN, nil
	default:
		return "", fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, s)
	}
}

// SubscriptionForm is the user-submitted part of a new request.
type SubscriptionForm struct {
	Name     string
	Contact  string
	Question string
}

// SubscriberRequest is a subscription plus the operator's reply workflow.
type SubscriberRequest struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Contact   string            `json:"contact"`
	Location  LocationCandidate `json:"location"`
	Question  string            `json:"question,omitempty"`
	Status    RequestStatus     `json:"status"`
	AIReply   string            `json:"aiReply,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ReplyPrompt carries what a reply generator needs to draft an answer.
type ReplyPrompt struct {
	Name     string
	Location string
	Question string
	Language Language
}

// LifecycleEventType names a successful request transition.
type LifecycleEventType string

const (
	EventRequestCreated LifecycleEventType = "request.created"
	EventReplyGenerated LifecycleEventType = "reply.generated"
	EventRequestSent    LifecycleEventType = "request.sent"
)

// LifecycleEvent is emitted after a transition has been persisted.
type LifecycleEvent struct {
	Type       LifecycleEventType `json:"type"`
	RequestID  string             `json:"request_id"`
	Status     RequestStatus      `json:"status"`
	Location   string             `json:"location,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}
