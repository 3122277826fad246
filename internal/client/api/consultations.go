package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ConsultationStatus is the lifecycle of a booked consultation.
type ConsultationStatus string

const (
	ConsultationBooked    ConsultationStatus = "booked"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCancelled ConsultationStatus = "cancelled"
)

// Slot is an expert's bookable time window.
type Slot struct {
	ID       int64     `json:"id"`
	ExpertID int64     `json:"expert_id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Booked   bool      `json:"booked"`
}

// Consultation is a booked session. MeetingURL is provisioned by the
// backend's meeting platform; the client only redirects to it.
type Consultation struct {
	ID         int64              `json:"id"`
	ExpertID   int64              `json:"expert_id"`
	ExpertName string             `json:"expert_name"`
	StartsAt   time.Time          `json:"starts_at"`
	EndsAt     time.Time          `json:"ends_at"`
	Status     ConsultationStatus `json:"status"`
	Topic      string             `json:"topic"`
	Fee        int64              `json:"fee"`
	MeetingURL string             `json:"meeting_url,omitempty"`
}

// ExpertSlots lists an expert's open slots inside [from, to).
func (c *Client) ExpertSlots(ctx context.Context, expertID int64, from, to time.Time) ([]Slot, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	var p page[Slot]
	if err := c.get(ctx, fmt.Sprintf("/experts/%d/slots/", expertID), q, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

// BookingRequest is the booking wizard's final payload.
type BookingRequest struct {
	ExpertID int64  `json:"expert_id"`
	SlotID   int64  `json:"slot_id"`
	Topic    string `json:"topic"`
}

// Validate checks the booking form.
func (b BookingRequest) Validate() error {
	fe := fieldErrors{}
	if b.ExpertID <= 0 {
		fe["expert_id"] = "must be set"
	}
	if b.SlotID <= 0 {
		fe["slot_id"] = "must be set"
	}
	if b.Topic == "" {
		fe["topic"] = "must not be empty"
	}
	return fe.err()
}

// Book books a consultation. The fee is debited from the wallet by the
// backend; an insufficient balance comes back as a 402 APIError.
func (c *Client) Book(ctx context.Context, in BookingRequest) (*Consultation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var booked Consultation
	if err := c.post(ctx, "/consultations/", in, &booked); err != nil {
		return nil, err
	}
	return &booked, nil
}

// CancelConsultation cancels a booked consultation; the backend refunds
// the wallet per its cancellation policy.
func (c *Client) CancelConsultation(ctx context.Context, id int64) (*Consultation, error) {
	var cons Consultation
	if err := c.post(ctx, fmt.Sprintf("/consultations/%d/cancel/", id), nil, &cons); err != nil {
		return nil, err
	}
	return &cons, nil
}

// MyConsultations lists the current user's consultations.
func (c *Client) MyConsultations(ctx context.Context, opts ListOptions) ([]Consultation, error) {
	var p page[Consultation]
	if err := c.get(ctx, "/consultations/", opts.values(), &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}
