package live

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// MemberKey identifies a membership: a user number is only unique within its room.
type MemberKey struct {
	Room    string
	UserNum int
}

func (k MemberKey) String() string {
	return fmt.Sprintf("%s/%d", k.Room, k.UserNum)
}

// Member is a channel taking part in a room.
type Member struct {
	RoomID    string
	UserNum   int
	ChannelID string
	// ChannelName is the name at join time on notifications, snapshots
	// report the current name.
	ChannelName string
	Joined      time.Time
	// Left is zero while the member is active.
	Left    time.Time
	Muted   bool
	Talking bool
}

func (m Member) Key() MemberKey {
	return MemberKey{Room: m.RoomID, UserNum: m.UserNum}
}

// Active reports whether the member has not left yet.
func (m Member) Active() bool {
	return m.Left.IsZero()
}

func (m *Member) left(at time.Time) {
	m.Left = at
}

func (m Member) String() string {
	return fmt.Sprintf("member %s channel %s", m.Key(), m.ChannelName)
}

// Room is a point in time copy of a conference room.
type Room struct {
	ID      string
	Created time.Time
	// Members is sorted by user number.
	Members []Member
}

// Member returns the member with the given user number.
func (r Room) Member(userNum int) (Member, bool) {
	return lo.Find(r.Members, func(m Member) bool { return m.UserNum == userNum })
}

type room struct {
	id      string
	created time.Time
	members map[int]*Member
}

func newRoom(id string, created time.Time) *room {
	return &room{
		id:      id,
		created: created,
		members: make(map[int]*Member),
	}
}

func (r *room) user(userNum int) *Member {
	return r.members[userNum]
}

func (r *room) addUser(m *Member) {
	r.members[m.UserNum] = m
}

// removeUser removes m if it is the member registered under its user number.
func (r *room) removeUser(m *Member) bool {
	if cur, ok := r.members[m.UserNum]; ok && cur == m {
		delete(r.members, m.UserNum)
		return true
	}
	return false
}

func (r *room) snapshot() Room {
	members := lo.MapToSlice(r.members, func(_ int, m *Member) Member { return *m })
	sort.Slice(members, func(i, j int) bool { return members[i].UserNum < members[j].UserNum })
	return Room{
		ID:      r.id,
		Created: r.created,
		Members: members,
	}
}
