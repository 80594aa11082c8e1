// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Queue names. Both queues are declared durable by publisher and consumer.
const (
	ErrorQueueName       = "api.errors"
	ReservationQueueName = "reservation.created"
)

// APIErrorEvent records a failed write request. Publishing is
// fire-and-forget: handler code never blocks on, or fails because of,
// error logging.
type APIErrorEvent struct {
	EventID    string `json:"event_id"`
	Error      string `json:"error"`
	Context    string `json:"context"`
	Route      string `json:"route"`
	OccurredAt string `json:"occurred_at"`
}

// ReservationCreatedEvent is published after a reservation commits. It
// carries enough for downstream consumers to log or notify without
// querying the primary database. Anonymous bookings keep their user_id
// here because the queue is internal; anonymization applies to API reads.
type ReservationCreatedEvent struct {
	EventID         string `json:"event_id"`
	ReservationID   uint64 `json:"reservation_id"`
	Reference       string `json:"reference"`
	UserID          int64  `json:"user_id"`
	LabID           uint64 `json:"lab_id"`
	LabName         string `json:"lab_name"`
	ReservationDate string `json:"reservation_date"`
	SlotCount       int    `json:"slot_count"`
	Anonymous       bool   `json:"anonymous"`
	CreatedAt       string `json:"created_at"`
}
