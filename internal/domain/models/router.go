package models

import (
	"fmt"
	"time"
)

// RouterState is the single lock record shared by all deliveries.
type RouterState struct {
	// ActiveEngine is empty when no engine holds the channel.
	ActiveEngine Engine
	UpdatedAt    *time.Time
}

func (s RouterState) HasActive() bool { return s.ActiveEngine != "" }

// Delivery is one inbound webhook attempt as received by a transport.
type Delivery struct {
	Source string // http, kafka
	Remote string
	Body   []byte
	// Incomplete is set when the transport could not read the whole body.
	// Body then holds the bytes read so far and the delivery is refused with it.
	Incomplete *RouteError
}

// RawRecord is the verbatim capture of a delivery.
type RawRecord struct {
	DeliveryID string
	ReceivedAt time.Time
	Source     string
	Remote     string
	Body       []byte
	Truncated  bool
}

// NormalizedEvent is a delivery after field coercion and allow-listing.
type NormalizedEvent struct {
	DeliveryID string
	Engine     Engine
	Signal     string
	Symbol     string
	TF         string
	Price      float64
	TP         float64
	SL         float64
	Reason     string
	// Payload holds every original field with the normalized values written over them.
	Payload map[string]any
}

// JournalEntry is an accepted event ready for the human-readable journal.
type JournalEntry struct {
	At    time.Time
	Event NormalizedEvent
}

// RejectKind classifies why a delivery was refused.
type RejectKind string

const (
	RejectMisconfigured     RejectKind = "misconfigured"
	RejectInvalidCredential RejectKind = "invalid_credential"
	RejectEngineConflict    RejectKind = "engine_conflict"
	RejectMalformedBody     RejectKind = "malformed_body"
	RejectBodyTooLarge      RejectKind = "body_too_large"
)

// RouteError is returned by the router for every refused delivery.
type RouteError struct {
	Kind    RejectKind
	Message string
	// ActiveEngine is set for engine conflicts.
	ActiveEngine Engine
	Incoming     Engine
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewMisconfigured() *RouteError {
	return &RouteError{Kind: RejectMisconfigured, Message: "server misconfigured: webhook secret missing"}
}

func NewInvalidCredential() *RouteError {
	return &RouteError{Kind: RejectInvalidCredential, Message: "invalid secret"}
}

func NewMalformedBody(detail string) *RouteError {
	return &RouteError{Kind: RejectMalformedBody, Message: detail}
}

func NewBodyTooLarge(limit int64) *RouteError {
	return &RouteError{Kind: RejectBodyTooLarge, Message: fmt.Sprintf("body exceeds %d bytes", limit)}
}

func NewEngineConflict(active, incoming Engine) *RouteError {
	return &RouteError{
		Kind:         RejectEngineConflict,
		Message:      fmt.Sprintf("engine lock: active_engine=%s, refusing engine=%s", active, incoming),
		ActiveEngine: active,
		Incoming:     incoming,
	}
}
