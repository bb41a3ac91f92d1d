package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionEvent is the immutable payment fact submitted for risk
// assessment. It carries everything the scoring pipeline needs; the
// engine never mutates it.
type TransactionEvent struct {
	OccurredAt        time.Time
	Currency          string
	Country           string
	DeviceFingerprint string
	IPAddress         string
	PaymentMethod     string
	Amount            decimal.Decimal
	TransactionID     uuid.UUID
	UserID            uuid.UUID
}

// Validate checks that the event is well formed. Scoring refuses to run on
// an event that fails validation.
func (e TransactionEvent) Validate() error {
	if e.TransactionID == uuid.Nil {
		return fmt.Errorf("transaction ID is required")
	}
	if e.UserID == uuid.Nil {
		return fmt.Errorf("user ID is required")
	}
	if e.Amount.IsNegative() || e.Amount.IsZero() {
		return fmt.Errorf("amount must be positive")
	}
	if e.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if e.Country == "" {
		return fmt.Errorf("country is required")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurrence time is required")
	}
	if e.DeviceFingerprint == "" {
		return fmt.Errorf("device fingerprint is required")
	}
	if e.IPAddress == "" {
		return fmt.Errorf("IP address is required")
	}
	if e.PaymentMethod == "" {
		return fmt.Errorf("payment method is required")
	}
	return nil
}

// Hour returns the hour of day (0-23) in the event's own timestamp location.
func (e TransactionEvent) Hour() int {
	return e.OccurredAt.Hour()
}

// IsWeekend reports whether the event occurred on a Saturday or Sunday.
func (e TransactionEvent) IsWeekend() bool {
	wd := e.OccurredAt.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
