package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/42wim/meetmebridge/event"
)

type mockChannel struct {
	id   string
	name string
	key  *MemberKey
}

func (c *mockChannel) ID() string   { return c.id }
func (c *mockChannel) Name() string { return c.name }

func (c *mockChannel) Membership() (MemberKey, bool) {
	if c.key == nil {
		return MemberKey{}, false
	}
	return *c.key, true
}

func (c *mockChannel) SetMembership(key MemberKey) { c.key = &key }
func (c *mockChannel) ClearMembership()            { c.key = nil }

type mockChannels struct {
	byID   map[string]*mockChannel
	byName map[string]*mockChannel
}

func newMockChannels() *mockChannels {
	return &mockChannels{
		byID:   make(map[string]*mockChannel),
		byName: make(map[string]*mockChannel),
	}
}

func (cs *mockChannels) add(name string) *mockChannel {
	ch := &mockChannel{id: uuid.NewString(), name: name}
	cs.byID[ch.id] = ch
	cs.byName[name] = ch
	return ch
}

func (cs *mockChannels) ChannelByID(id string) (Channel, bool) {
	ch, ok := cs.byID[id]
	if !ok {
		return nil, false
	}
	return ch, true
}

func (cs *mockChannels) ChannelByName(name string) (Channel, bool) {
	ch, ok := cs.byName[name]
	if !ok {
		return nil, false
	}
	return ch, true
}

// mockSender answers "meetme list <room>" from a per room table.
type mockSender struct {
	mu        sync.Mutex
	responses map[string]Response
	err       error
	commands  []string
}

func newMockSender() *mockSender {
	return &mockSender{responses: make(map[string]Response)}
}

func (s *mockSender) listing(room string, lines ...string) {
	s.responses[DefaultListCommand+" "+room] = &CommandResponse{Lines: lines}
}

func (s *mockSender) SendCommand(_ context.Context, command string) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, command)
	if s.err != nil {
		return nil, s.err
	}
	if resp, ok := s.responses[command]; ok {
		return resp, nil
	}
	return &CommandResponse{}, nil
}

type recordingNotifier struct {
	members []Member
}

func (n *recordingNotifier) NewMeetMeUser(m Member) {
	n.members = append(n.members, m)
}

var errNotConnected = errors.New("not connected")

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	manager  *Manager
	channels *mockChannels
	sender   *mockSender
	notifier *recordingNotifier
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	f := &fixture{
		channels: newMockChannels(),
		sender:   newMockSender(),
		notifier: &recordingNotifier{},
		hook:     hook,
	}
	f.manager = NewManager(Config{Logger: l.WithField("prefix", "live")}, f.channels, f.sender, f.notifier)
	f.manager.now = func() time.Time { return testTime }
	return f
}

func (f *fixture) errors() []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			out = append(out, e)
		}
	}
	return out
}

func (f *fixture) warnings() []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func conference(room string, userNum int, uniqueID string, at time.Time) event.Conference {
	return event.Conference{
		Base:     event.Base{DateReceived: at},
		MeetMe:   room,
		UserNum:  &userNum,
		UniqueID: uniqueID,
	}
}

func boolPtr(b bool) *bool { return &b }

// checkChannelInvariant asserts that a channel's key leads to an active member
// of exactly the room it names, bound back to that channel.
func (f *fixture) checkChannelInvariant(t *testing.T) {
	t.Helper()
	rooms := f.manager.Rooms()
	for _, ch := range f.channels.byID {
		key, ok := ch.Membership()
		if !ok {
			continue
		}
		found := 0
		for _, r := range rooms {
			for _, u := range r.Members {
				if u.ChannelID != ch.id {
					continue
				}
				found++
				if u.Key() != key || !u.Active() {
					t.Errorf("channel %s key %s does not match member %s", ch.name, key, u.Key())
				}
			}
		}
		if found != 1 {
			t.Errorf("channel %s is member of %d rooms", ch.name, found)
		}
	}
}
