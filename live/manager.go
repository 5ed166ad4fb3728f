// Package live keeps an in-memory mirror of the conference rooms on a server.
//
// The mirror is fed by conference events and, whenever a room is seen for the
// first time, seeded from a "meetme list" query so that calls that started
// before the event stream connected are known too. It is best effort: when the
// server reports something inconsistent the mirror logs it, repairs what it
// safely can and carries on.
package live

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// DefaultListCommand is the CLI command used to list the members of a room.
const DefaultListCommand = "meetme list"

// Config holds the settings of a Manager.
type Config struct {
	// ListCommand is sent with the room number appended when a room is populated.
	ListCommand string
	Logger      *logrus.Entry
}

// Manager owns the rooms of one server connection.
//
// A single mutex guards the room map together with every room and member in
// it. Room creation including its population is therefore atomic, and so is
// each event applied by HandleEvent.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*room

	channels    ChannelLookup
	sender      CommandSender
	notifier    Notifier
	listCommand string
	logger      *logrus.Entry
	now         func() time.Time
}

// NewManager returns a Manager without rooms. A nil notifier drops notifications.
func NewManager(cfg Config, channels ChannelLookup, sender CommandSender, notifier Notifier) *Manager {
	if cfg.ListCommand == "" {
		cfg.ListCommand = DefaultListCommand
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger()).WithField("prefix", "live")
	}
	if notifier == nil {
		notifier = Notifiers(nil)
	}

	return &Manager{
		rooms:       make(map[string]*room),
		channels:    channels,
		sender:      sender,
		notifier:    notifier,
		listCommand: cfg.ListCommand,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Rooms returns a copy of all known rooms sorted by id.
func (m *Manager) Rooms() []Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := lo.MapToSlice(m.rooms, func(_ string, r *room) Room { return m.snapshotLocked(r) })
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// Room returns a copy of the room with the given id without creating it.
func (m *Manager) Room(id string) (Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[id]
	if !ok {
		return Room{}, false
	}
	return m.snapshotLocked(r), true
}

// GetOrCreateRoom returns the room with the given id. A room seen for the first
// time is populated from the server before it becomes visible.
func (m *Manager) GetOrCreateRoom(ctx context.Context, id string) Room {
	var pending []Member

	m.mu.Lock()
	r := m.getOrCreateRoomLocked(ctx, id, &pending)
	snap := m.snapshotLocked(r)
	m.mu.Unlock()

	m.publish(pending)
	return snap
}

// MemberOf returns the live membership of the channel with the given id.
func (m *Manager) MemberOf(channelID string) (Member, bool) {
	ch, ok := m.channels.ChannelByID(channelID)
	if !ok {
		return Member{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if u := m.channelUserLocked(ch); u != nil {
		member := *u
		member.ChannelName = ch.Name()
		return member, true
	}
	return Member{}, false
}

// Reset drops all rooms. It is called when the connection to the server is
// lost and the mirrored state can no longer be trusted.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Infof("dropping %d rooms", len(m.rooms))
	m.rooms = make(map[string]*room)
}

func (m *Manager) getOrCreateRoomLocked(ctx context.Context, id string, pending *[]Member) *room {
	if r, ok := m.rooms[id]; ok {
		return r
	}

	// Registered before populating so that channel keys written by the listing
	// resolve; nobody else can see the room until the lock is released.
	r := newRoom(id, m.now())
	m.rooms[id] = r
	m.populateRoomLocked(ctx, r, pending)

	m.logger.Debugf("created room %s with %d members", id, len(r.members))
	return r
}

// channelUserLocked resolves the membership key stored on ch. A key that does
// not lead back to an active member bound to ch is stale and yields nil.
func (m *Manager) channelUserLocked(ch Channel) *Member {
	key, ok := ch.Membership()
	if !ok {
		return nil
	}

	r, ok := m.rooms[key.Room]
	if !ok {
		m.logger.Debugf("channel %s points to unknown room %s", ch.Name(), key.Room)
		return nil
	}

	u := r.user(key.UserNum)
	if u == nil || u.ChannelID != ch.ID() || !u.Active() {
		m.logger.Debugf("channel %s points to stale member %s", ch.Name(), key)
		return nil
	}

	return u
}

// endUserLocked marks u as left and detaches it from its room and from ch.
func (m *Manager) endUserLocked(u *Member, ch Channel, at time.Time) {
	u.left(at)

	if r, ok := m.rooms[u.RoomID]; ok {
		r.removeUser(u)
	}

	if ch == nil {
		return
	}
	if key, ok := ch.Membership(); ok && key == u.Key() {
		ch.ClearMembership()
	}
}

// snapshotLocked copies r with channel names as the channels report them now,
// a channel may have been renamed since it joined.
func (m *Manager) snapshotLocked(r *room) Room {
	snap := r.snapshot()
	for i := range snap.Members {
		if ch, ok := m.channels.ChannelByID(snap.Members[i].ChannelID); ok {
			snap.Members[i].ChannelName = ch.Name()
		}
	}
	return snap
}

func (m *Manager) publish(members []Member) {
	for _, u := range members {
		m.notifier.NewMeetMeUser(u)
	}
}
