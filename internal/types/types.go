package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the threshold that fires an alert.
type Direction string

const (
	Above Direction = ">"
	Below Direction = "<"
)

// ParseDirection accepts the condition tokens used in chat commands.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case Above:
		return Above, true
	case Below:
		return Below, true
	}
	return "", false
}

func (d Direction) Valid() bool {
	return d == Above || d == Below
}

type Alert struct {
	OwnerID   string          `json:"-"`
	Symbol    string          `json:"-"`
	Threshold decimal.Decimal `json:"price"`
	Direction Direction       `json:"condition"`
	CreatedAt time.Time       `json:"created_at"`
}

// Triggered reports whether price crossed the threshold. Equality counts.
func (a Alert) Triggered(price decimal.Decimal) bool {
	switch a.Direction {
	case Above:
		return price.GreaterThanOrEqual(a.Threshold)
	case Below:
		return price.LessThanOrEqual(a.Threshold)
	}
	return false
}

// SameTarget compares the user-settable fields of two alerts.
func (a Alert) SameTarget(b Alert) bool {
	return a.OwnerID == b.OwnerID &&
		a.Symbol == b.Symbol &&
		a.Direction == b.Direction &&
		a.Threshold.Equal(b.Threshold)
}
