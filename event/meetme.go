package event

import (
	"github.com/42wim/meetmebridge/pkg/attrbind"
)

// MeetMeEvent is implemented by all conference events.
type MeetMeEvent interface {
	Event
	ConferenceBase() *Conference
}

// Conference holds the attributes shared by conference events.
type Conference struct {
	Base
	// MeetMe is the room number, empty when missing.
	MeetMe string
	// UserNum is the room scoped user number, nil when missing.
	UserNum      *int
	UniqueID     string
	Channel      string
	CallerIDNum  string
	CallerIDName string
}

func (e *Conference) ConferenceBase() *Conference { return e }

var meetMeTable = attrbind.Include(attrbind.NewTable[Conference]("Conference"), baseTable,
	func(e *Conference) *Base { return &e.Base }).
	Field("meetme", attrbind.String(func(e *Conference) *string { return &e.MeetMe })).
	Field("usernum", attrbind.IntPtr(func(e *Conference) **int { return &e.UserNum })).
	Field("uniqueid", attrbind.String(func(e *Conference) *string { return &e.UniqueID })).
	Field("channel", attrbind.String(func(e *Conference) *string { return &e.Channel })).
	Field("calleridnum", attrbind.String(func(e *Conference) *string { return &e.CallerIDNum })).
	Field("calleridname", attrbind.String(func(e *Conference) *string { return &e.CallerIDName }))

// meetMeTableFor builds the table of a type that embeds Conference.
func meetMeTableFor[T any](name string, get func(*T) *Conference) *attrbind.Table[T] {
	return attrbind.Include(attrbind.NewTable[T](name), meetMeTable, get)
}

// MeetMeJoin is sent when a channel joins a room.
type MeetMeJoin struct {
	Conference
}

var meetMeJoinTable = meetMeTableFor("MeetMeJoin", func(e *MeetMeJoin) *Conference { return &e.Conference })

func (e *MeetMeJoin) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return meetMeJoinTable.Bind(e, attrs, ignored)
}

// MeetMeLeave is sent when a channel leaves a room.
type MeetMeLeave struct {
	Conference
	// Duration in seconds the user spent in the room.
	Duration *int64
}

var meetMeLeaveTable = meetMeTableFor("MeetMeLeave", func(e *MeetMeLeave) *Conference { return &e.Conference }).
	Field("duration", attrbind.Int64Ptr(func(e *MeetMeLeave) **int64 { return &e.Duration }))

func (e *MeetMeLeave) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return meetMeLeaveTable.Bind(e, attrs, ignored)
}

// MeetMeTalking reports talker detection. Older servers send it without
// Status when a user starts talking.
type MeetMeTalking struct {
	Conference
	Status *bool
}

var meetMeTalkingTable = meetMeTableFor("MeetMeTalking", func(e *MeetMeTalking) *Conference { return &e.Conference }).
	Field("status", attrbind.BoolPtr(func(e *MeetMeTalking) **bool { return &e.Status }))

func (e *MeetMeTalking) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return meetMeTalkingTable.Bind(e, attrs, ignored)
}

// MeetMeStopTalking is the counterpart of a MeetMeTalking event without Status.
type MeetMeStopTalking struct {
	Conference
}

var meetMeStopTalkingTable = meetMeTableFor("MeetMeStopTalking", func(e *MeetMeStopTalking) *Conference { return &e.Conference })

func (e *MeetMeStopTalking) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return meetMeStopTalkingTable.Bind(e, attrs, ignored)
}

// MeetMeMute is sent when a user is muted or unmuted.
type MeetMeMute struct {
	Conference
	Status *bool
}

var meetMeMuteTable = meetMeTableFor("MeetMeMute", func(e *MeetMeMute) *Conference { return &e.Conference }).
	Field("status", attrbind.BoolPtr(func(e *MeetMeMute) **bool { return &e.Status }))

func (e *MeetMeMute) SetAttributes(attrs map[string]string, ignored attrbind.Set) int {
	return meetMeMuteTable.Bind(e, attrs, ignored)
}
