package bookings

import (
	"errors"
	"time"
)

// Status is the booking lifecycle.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrBadTransition = errors.New("invalid booking status transition")
	ErrUnknownStatus = errors.New("unknown booking status")
)

// Booking is a scheduled coaching session. Quotes and gift cards link in by
// id and code so a booking can trace where it came from.
type Booking struct {
	ID              int64     `json:"id"`
	ClientName      string    `json:"client_name"`
	ClientEmail     string    `json:"client_email"`
	ServiceName     string    `json:"service_name"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Status          Status    `json:"status"`
	QuoteID         *int64    `json:"quote_id,omitempty"`
	GiftCardCode    string    `json:"gift_card_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// transitions lists the allowed moves. Completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusRequested: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// Transition moves the booking to the target status if the move is allowed.
func (b *Booking) Transition(target Status) error {
	if _, ok := transitions[target]; !ok && target != StatusCompleted && target != StatusCancelled {
		return ErrUnknownStatus
	}
	for _, allowed := range transitions[b.Status] {
		if allowed == target {
			b.Status = target
			return nil
		}
	}
	return ErrBadTransition
}
