package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskProfile is the behavioral baseline for a user, accumulated from
// settled transactions. A zero-valued profile is a legitimate state for
// first-time users: every membership check below simply reports false.
type RiskProfile struct {
	UpdatedAt        time.Time
	TypicalCountries []string
	UsualHours       []int
	PreferredMethods []string
	KnownDevices     []string
	RiskScores       []float64
	AverageAmount    decimal.Decimal
	RecentVelocity   int
	UserID           uuid.UUID
}

// HasTypicalCountry reports whether the user has previously transacted from
// the given ISO country code.
func (p RiskProfile) HasTypicalCountry(country string) bool {
	for _, c := range p.TypicalCountries {
		if c == country {
			return true
		}
	}
	return false
}

// HasUsualHour reports whether the given hour of day is part of the user's
// established activity pattern.
func (p RiskProfile) HasUsualHour(hour int) bool {
	for _, h := range p.UsualHours {
		if h == hour {
			return true
		}
	}
	return false
}

// PrefersMethod reports whether the payment method is one the user
// habitually uses.
func (p RiskProfile) PrefersMethod(method string) bool {
	for _, m := range p.PreferredMethods {
		if m == method {
			return true
		}
	}
	return false
}

// KnowsDevice reports whether the device fingerprint has been seen on this
// user's account before.
func (p RiskProfile) KnowsDevice(fingerprint string) bool {
	for _, d := range p.KnownDevices {
		if d == fingerprint {
			return true
		}
	}
	return false
}
