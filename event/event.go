// Package event defines the typed manager events consumed by the live mirror.
//
// Events are filled from decoded attribute bags through the attrbind tables
// declared next to each type.
package event

import (
	"time"

	"github.com/42wim/meetmebridge/pkg/attrbind"
)

// Event is implemented by every typed manager event.
type Event interface {
	EventBase() *Base
	SetAttributes(attrs map[string]string, ignored attrbind.Set) int
}

// Base carries the attributes every manager event may have.
type Base struct {
	// DateReceived is when the event arrived, set by the receiver.
	DateReceived   time.Time
	Privilege      string
	Src            string
	Server         string
	Timestamp      *float64
	SequenceNumber *int64
}

func (b *Base) EventBase() *Base { return b }

var baseTable = attrbind.NewTable[Base]("Base").
	Field("privilege", attrbind.String(func(h *Base) *string { return &h.Privilege })).
	Field("src", attrbind.String(func(h *Base) *string { return &h.Src })).
	Field("server", attrbind.String(func(h *Base) *string { return &h.Server })).
	Field("timestamp", attrbind.Float64Ptr(func(h *Base) **float64 { return &h.Timestamp })).
	Field("sequencenumber", attrbind.Int64Ptr(func(h *Base) **int64 { return &h.SequenceNumber }))

// DefaultIgnored holds attributes that describe the message rather than the event.
var DefaultIgnored = attrbind.NewSet("event", "actionid", "response")

// UserEvent is a user defined event. It may carry any attribute, so unknown
// names are skipped without a warning.
type UserEvent struct {
	Base
	UserEvent string
	Channel   string
	UniqueID  string
}

var userEventTable = attrbind.Include(attrbind.NewTable[UserEvent]("UserEvent").FreeForm(), baseTable,
	func(e *UserEvent) *Base { return &e.Base }).
	Field("userevent", attrbind.String(func(e *UserEvent) *string { return &e.UserEvent })).
	Field("channel", attrbind.String(func(e *UserEvent) *string { return &e.Channel })).
	Field("uniqueid", attrbind.String(func(e *UserEvent) *string { return &e.UniqueID }))

func (e *UserEvent) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return userEventTable.Bind(e, attrs, ignored)
}
