package greeting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"greeter/internal/constants"
	"greeter/pkg/models"
)

// Greeting is the domain record. Apart from lifecycle events it is never
// modified after NewGreeting returns. A Greeting is owned by one request at a
// time; sinks keep their own copies.
type Greeting struct {
	ID                string
	ExternalReference string
	To                string
	From              string
	Heading           string
	Message           string
	Created           time.Time

	eventsCreated map[string]time.Time
}

// NewGreeting assigns a time-ordered id and records the "received" event.
func NewGreeting(externalReference, to, from, heading, message string, created time.Time) (*Greeting, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate greeting id: %w", err)
	}

	g := &Greeting{
		ID:                id.String(),
		ExternalReference: externalReference,
		To:                to,
		From:              from,
		Heading:           heading,
		Message:           message,
		Created:           created.UTC(),
		eventsCreated:     make(map[string]time.Time),
	}
	g.RecordEvent(constants.EventReceived, time.Now())
	return g, nil
}

// RecordEvent adds name once. It reports false when the event already exists.
func (g *Greeting) RecordEvent(name string, at time.Time) bool {
	if g.eventsCreated == nil {
		g.eventsCreated = make(map[string]time.Time)
	}
	if _, ok := g.eventsCreated[name]; ok {
		return false
	}
	g.eventsCreated[name] = at.UTC()
	return true
}

// Events returns a copy of the recorded lifecycle events.
func (g *Greeting) Events() map[string]time.Time {
	out := make(map[string]time.Time, len(g.eventsCreated))
	for k, v := range g.eventsCreated {
		out[k] = v
	}
	return out
}

// Clone returns a copy that shares no mutable state with g.
func (g *Greeting) Clone() Greeting {
	return Greeting{
		ID:                g.ID,
		ExternalReference: g.ExternalReference,
		To:                g.To,
		From:              g.From,
		Heading:           g.Heading,
		Message:           g.Message,
		Created:           g.Created,
		eventsCreated:     g.Events(),
	}
}

func (g *Greeting) ToRecord() models.GreetingRecord {
	return models.GreetingRecord{
		ID:                g.ID,
		GreetingID:        g.ID,
		ExternalReference: g.ExternalReference,
		To:                g.To,
		From:              g.From,
		Heading:           g.Heading,
		Message:           g.Message,
		Created:           g.Created,
		EventsCreated:     g.Events(),
	}
}

func (g *Greeting) ToEvent() *models.GreetingEvent {
	return &models.GreetingEvent{After: g.ToRecord()}
}

// FromRecord rebuilds a Greeting read back from a backend.
func FromRecord(r models.GreetingRecord) Greeting {
	events := make(map[string]time.Time, len(r.EventsCreated))
	for k, v := range r.EventsCreated {
		events[k] = v
	}
	return Greeting{
		ID:                r.ID,
		ExternalReference: r.ExternalReference,
		To:                r.To,
		From:              r.From,
		Heading:           r.Heading,
		Message:           r.Message,
		Created:           r.Created.UTC(),
		eventsCreated:     events,
	}
}

// GreetingRequest is the inbound payload of POST and PUT /greeting.
type GreetingRequest struct {
	ExternalReference string    `json:"externalReference" validate:"omitempty,max=36" example:"3f2b6c1e-0a7d-4c55-9a5e-8d1f0b2c4e6a"`
	To                string    `json:"to" validate:"required,max=20" example:"test"`
	From              string    `json:"from" validate:"required,max=20" example:"testa"`
	Heading           string    `json:"heading" validate:"required,max=50" example:"Merry Christmas"`
	Message           string    `json:"message" validate:"required,max=50" example:"Happy new year"`
	Created           time.Time `json:"created" validate:"required" example:"2024-12-24T18:00:00Z"`
}

// ToGreeting must only be called on a request that passed ValidateRequest.
func (r GreetingRequest) ToGreeting() (*Greeting, error) {
	return NewGreeting(r.ExternalReference, r.To, r.From, r.Heading, r.Message, r.Created)
}

// GreetingDTO is the wire shape returned by GET /greeting.
type GreetingDTO struct {
	ID                string    `json:"id"`
	ExternalReference string    `json:"externalReference,omitempty"`
	To                string    `json:"to"`
	From              string    `json:"from"`
	Heading           string    `json:"heading"`
	Message           string    `json:"message"`
	Created           time.Time `json:"created"`
}

func NewGreetingDTO(g *Greeting) GreetingDTO {
	return GreetingDTO{
		ID:                g.ID,
		ExternalReference: g.ExternalReference,
		To:                g.To,
		From:              g.From,
		Heading:           g.Heading,
		Message:           g.Message,
		Created:           g.Created,
	}
}

type MessageIDResponse struct {
	MessageID string `json:"messageId"`
}
