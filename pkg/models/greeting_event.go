package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrMissingGreetingID = errors.New("greeting event has no after.id")

// GreetingEvent is the envelope written to the greetings topic. The record
// sits under "after" so change-data-capture consumers can read it unchanged.
type GreetingEvent struct {
	After GreetingRecord `json:"after"`
}

type GreetingRecord struct {
	ID                string               `json:"id"`
	GreetingID        string               `json:"greetingId"`
	ExternalReference string               `json:"externalReference,omitempty"`
	To                string               `json:"to"`
	From              string               `json:"from"`
	Heading           string               `json:"heading"`
	Message           string               `json:"message"`
	Created           time.Time            `json:"created"`
	EventsCreated     map[string]time.Time `json:"eventsCreated,omitempty"`
}

// DecodeGreetingEvent parses a message value. It fails on invalid JSON and
// on envelopes without a record id; both are unrecoverable for the consumer.
func DecodeGreetingEvent(data []byte) (*GreetingEvent, error) {
	var event GreetingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode greeting event: %w", err)
	}
	if event.After.ID == "" {
		return nil, ErrMissingGreetingID
	}
	return &event, nil
}

func (e *GreetingEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}
