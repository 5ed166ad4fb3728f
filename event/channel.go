package event

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/42wim/meetmebridge/pkg/attrbind"
)

// ChannelState is the state of a call leg.
type ChannelState int

const (
	StateDown ChannelState = iota
	StateReserved
	StateOffHook
	StateDialing
	StateRing
	StateRinging
	StateUp
	StateBusy
	StateDialingOffHook
	StatePreRing
)

var channelStateNames = map[ChannelState]string{
	StateDown:           "Down",
	StateReserved:       "Rsrvd",
	StateOffHook:        "OffHook",
	StateDialing:        "Dialing",
	StateRing:           "Ring",
	StateRinging:        "Ringing",
	StateUp:             "Up",
	StateBusy:           "Busy",
	StateDialingOffHook: "Dialing Offhook",
	StatePreRing:        "Pre-ring",
}

func (s ChannelState) String() string {
	if name, ok := channelStateNames[s]; ok {
		return name
	}
	return "Unknown(" + strconv.Itoa(int(s)) + ")"
}

// UnmarshalText parses a state description as sent in ChannelStateDesc.
func (s *ChannelState) UnmarshalText(text []byte) error {
	want := strings.TrimSpace(string(text))
	for state, name := range channelStateNames {
		if strings.EqualFold(name, want) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown channel state %q", want)
}

// NewChannel is sent when a call leg is created.
type NewChannel struct {
	Base
	Channel      string
	UniqueID     string
	State        ChannelState
	StateCode    *int
	CallerIDNum  string
	CallerIDName string
	AccountCode  string
	Exten        string
	Context      string
}

var newChannelTable = attrbind.Include(attrbind.NewTable[NewChannel]("NewChannel"), baseTable,
	func(e *NewChannel) *Base { return &e.Base }).
	Field("channel", attrbind.String(func(e *NewChannel) *string { return &e.Channel })).
	Field("uniqueid", attrbind.String(func(e *NewChannel) *string { return &e.UniqueID })).
	Field("channelstatedesc", attrbind.Text(func(e *NewChannel) *ChannelState { return &e.State })).
	Field("channelstate", attrbind.IntPtr(func(e *NewChannel) **int { return &e.StateCode })).
	Field("calleridnum", attrbind.String(func(e *NewChannel) *string { return &e.CallerIDNum })).
	Field("calleridname", attrbind.String(func(e *NewChannel) *string { return &e.CallerIDName })).
	Field("accountcode", attrbind.String(func(e *NewChannel) *string { return &e.AccountCode })).
	Field("exten", attrbind.String(func(e *NewChannel) *string { return &e.Exten })).
	Field("context", attrbind.String(func(e *NewChannel) *string { return &e.Context }))

func (e *NewChannel) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return newChannelTable.Bind(e, attrs, ignored)
}

// Hangup is sent when a call leg is torn down.
type Hangup struct {
	Base
	Channel  string
	UniqueID string
	Cause    *int
	CauseTxt string
}

var hangupTable = attrbind.Include(attrbind.NewTable[Hangup]("Hangup"), baseTable,
	func(e *Hangup) *Base { return &e.Base }).
	Field("channel", attrbind.String(func(e *Hangup) *string { return &e.Channel })).
	Field("uniqueid", attrbind.String(func(e *Hangup) *string { return &e.UniqueID })).
	Field("cause", attrbind.IntPtr(func(e *Hangup) **int { return &e.Cause })).
	Field("causetxt", attrbind.String(func(e *Hangup) *string { return &e.CauseTxt }))

func (e *Hangup) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return hangupTable.Bind(e, attrs, ignored)
}

// Rename is sent when a call leg changes its name, e.g. on masquerade.
type Rename struct {
	Base
	OldName  string
	NewName  string
	UniqueID string
}

var renameTable = attrbind.Include(attrbind.NewTable[Rename]("Rename"), baseTable,
	func(e *Rename) *Base { return &e.Base }).
	Field("oldname", attrbind.String(func(e *Rename) *string { return &e.OldName })).
	Field("channel", attrbind.String(func(e *Rename) *string { return &e.OldName })).
	Field("newname", attrbind.String(func(e *Rename) *string { return &e.NewName })).
	Field("uniqueid", attrbind.String(func(e *Rename) *string { return &e.UniqueID }))

func (e *Rename) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return renameTable.Bind(e, attrs, ignored)
}
