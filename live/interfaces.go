package live

import (
	"context"
)

// Channel is a call leg known to the channel registry. It holds the key of at
// most one live membership; the membership itself is owned by the Manager.
type Channel interface {
	ID() string
	Name() string
	Membership() (MemberKey, bool)
	SetMembership(key MemberKey)
	ClearMembership()
}

// ChannelLookup resolves channels by unique id or by name.
type ChannelLookup interface {
	ChannelByID(id string) (Channel, bool)
	ChannelByName(name string) (Channel, bool)
}

// Response is a reply to a command sent to the server. It is one of
// *ManagerError, *CommandResponse or *ManagerResponse.
type Response interface {
	ResponseMessage() string
}

// ManagerError is an error reply.
type ManagerError struct {
	Message string
}

func (r *ManagerError) ResponseMessage() string { return r.Message }

// CommandResponse carries the output lines of a CLI command.
type CommandResponse struct {
	Lines []string
}

func (r *CommandResponse) ResponseMessage() string { return "Follows" }

// ManagerResponse is any other reply.
type ManagerResponse struct {
	Response string
	Message  string
}

func (r *ManagerResponse) ResponseMessage() string { return r.Message }

// CommandSender sends a CLI command to the server and waits for the reply.
type CommandSender interface {
	SendCommand(ctx context.Context, command string) (Response, error)
}

// Notifier is told about every participant that is seen for the first time.
type Notifier interface {
	NewMeetMeUser(m Member)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(m Member)

func (f NotifierFunc) NewMeetMeUser(m Member) { f(m) }

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) NewMeetMeUser(m Member) {
	for _, n := range ns {
		n.NewMeetMeUser(m)
	}
}
