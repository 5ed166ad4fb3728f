package channels

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/42wim/meetmebridge/event"
	"github.com/42wim/meetmebridge/live"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T, size int) (*Registry, *test.Hook) {
	t.Helper()
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	r, err := NewRegistry(size, logrus.NewEntry(l))
	require.NoError(t, err)
	return r, hook
}

func newChannel(id, name string) *event.NewChannel {
	return &event.NewChannel{
		Base:     event.Base{DateReceived: testTime},
		Channel:  name,
		UniqueID: id,
		State:    event.StateRing,
	}
}

func TestNewChannel(t *testing.T) {
	r, _ := newTestRegistry(t, 0)

	r.HandleEvent(newChannel("1.1", "SIP/alice-0001"))

	ch, ok := r.ChannelByID("1.1")
	require.True(t, ok)
	assert.Equal(t, "SIP/alice-0001", ch.Name())
	assert.Equal(t, event.StateRing, ch.(*Channel).State())

	byName, ok := r.ChannelByName("SIP/alice-0001")
	require.True(t, ok)
	assert.Same(t, ch, byName)
	assert.Equal(t, 1, r.Len())
}

func TestNewChannelWithoutID(t *testing.T) {
	r, hook := newTestRegistry(t, 0)

	r.HandleEvent(newChannel("", "SIP/alice-0001"))

	assert.Equal(t, 0, r.Len())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHangupKeepsChannelResolvable(t *testing.T) {
	r, _ := newTestRegistry(t, 0)
	r.HandleEvent(newChannel("1.1", "SIP/alice-0001"))
	ch, _ := r.ChannelByID("1.1")
	ch.SetMembership(live.MemberKey{Room: "100", UserNum: 1})

	r.HandleEvent(&event.Hangup{
		Base:     event.Base{DateReceived: testTime.Add(time.Minute)},
		Channel:  "SIP/alice-0001",
		UniqueID: "1.1",
		CauseTxt: "Normal Clearing",
	})

	assert.Equal(t, 0, r.Len())
	got, ok := r.ChannelByID("1.1")
	require.True(t, ok)
	assert.Same(t, ch, got)
	assert.Equal(t, testTime.Add(time.Minute), got.(*Channel).HungupAt())
	assert.Equal(t, event.StateDown, got.(*Channel).State())

	key, ok := got.Membership()
	require.True(t, ok)
	assert.Equal(t, live.MemberKey{Room: "100", UserNum: 1}, key)

	byName, ok := r.ChannelByName("SIP/alice-0001")
	require.True(t, ok)
	assert.Same(t, ch, byName)
}

func TestActiveChannelWinsByName(t *testing.T) {
	r, _ := newTestRegistry(t, 0)
	r.HandleEvent(newChannel("1.1", "SIP/alice"))
	r.HandleEvent(&event.Hangup{UniqueID: "1.1", Channel: "SIP/alice"})
	r.HandleEvent(newChannel("1.2", "SIP/alice"))

	ch, ok := r.ChannelByName("SIP/alice")
	require.True(t, ok)
	assert.Equal(t, "1.2", ch.ID())
}

func TestHungupCacheEvicts(t *testing.T) {
	r, _ := newTestRegistry(t, 2)
	for _, id := range []string{"1", "2", "3"} {
		r.HandleEvent(newChannel(id, "SIP/"+id))
		r.HandleEvent(&event.Hangup{UniqueID: id})
	}

	_, ok := r.ChannelByID("1")
	assert.False(t, ok)
	_, ok = r.ChannelByID("3")
	assert.True(t, ok)
	_, ok = r.ChannelByName("SIP/1")
	assert.False(t, ok)
}

func TestRename(t *testing.T) {
	r, _ := newTestRegistry(t, 0)
	r.HandleEvent(newChannel("1.1", "SIP/alice-0001"))

	r.HandleEvent(&event.Rename{OldName: "SIP/alice-0001", NewName: "SIP/alice-0001<MASQ>", UniqueID: "1.1"})

	_, ok := r.ChannelByName("SIP/alice-0001")
	assert.False(t, ok)
	ch, ok := r.ChannelByName("SIP/alice-0001<MASQ>")
	require.True(t, ok)
	assert.Equal(t, "1.1", ch.ID())
}

func TestUnknownChannelEvents(t *testing.T) {
	r, hook := newTestRegistry(t, 0)

	r.HandleEvent(&event.Hangup{UniqueID: "nope"})
	r.HandleEvent(&event.Rename{UniqueID: "nope", NewName: "SIP/x"})

	assert.Equal(t, 0, r.Len())
	for _, e := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, e.Level)
	}
}

func TestClear(t *testing.T) {
	r, _ := newTestRegistry(t, 0)
	r.HandleEvent(newChannel("1.1", "SIP/alice"))
	r.HandleEvent(newChannel("1.2", "SIP/bob"))
	r.HandleEvent(&event.Hangup{UniqueID: "1.2"})

	r.Clear()

	assert.Equal(t, 0, r.Len())
	_, ok := r.ChannelByID("1.1")
	assert.False(t, ok)
	_, ok = r.ChannelByID("1.2")
	assert.False(t, ok)
}

func TestAddReplacesDuplicateID(t *testing.T) {
	r, hook := newTestRegistry(t, 0)
	r.Add("1.1", "SIP/alice", event.StateUp, testTime)
	r.Add("1.1", "SIP/bob", event.StateUp, testTime)

	_, ok := r.ChannelByName("SIP/alice")
	assert.False(t, ok)
	ch, ok := r.ChannelByID("1.1")
	require.True(t, ok)
	assert.Equal(t, "SIP/bob", ch.Name())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestAddKeepsNameOfOtherChannel(t *testing.T) {
	r, _ := newTestRegistry(t, 0)
	r.Add("1.1", "SIP/alice", event.StateUp, testTime)
	r.Add("1.2", "SIP/alice", event.StateUp, testTime)

	r.Add("1.1", "SIP/carol", event.StateUp, testTime)

	ch, ok := r.ChannelByName("SIP/alice")
	require.True(t, ok)
	assert.Equal(t, "1.2", ch.ID())
	ch, ok = r.ChannelByName("SIP/carol")
	require.True(t, ok)
	assert.Equal(t, "1.1", ch.ID())
}
