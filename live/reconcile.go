package live

import (
	"context"
	"time"

	"github.com/42wim/meetmebridge/event"
)

// HandleEvent applies a conference event to the mirror. Events that lack the
// room number or user number, or that name a channel nobody knows, are logged
// and dropped.
func (m *Manager) HandleEvent(ctx context.Context, ev event.MeetMeEvent) {
	conf := ev.ConferenceBase()

	if conf.MeetMe == "" {
		m.logger.Warnf("room number (meetme attribute) is empty, ignoring %T", ev)
		return
	}
	if conf.UserNum == nil {
		m.logger.Warnf("user number (usernum attribute) is missing, ignoring %T", ev)
		return
	}

	at := conf.DateReceived
	if at.IsZero() {
		at = m.now()
	}

	var pending []Member
	defer func() { m.publish(pending) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.getOrCreateUserLocked(ctx, conf, at, &pending)
	if u == nil {
		return
	}

	switch e := ev.(type) {
	case *event.MeetMeLeave:
		m.leaveLocked(u, conf.MeetMe, at)
	case *event.MeetMeTalking:
		if e.Status != nil {
			u.Talking = *e.Status
		} else {
			u.Talking = true
		}
	case *event.MeetMeStopTalking:
		u.Talking = false
	case *event.MeetMeMute:
		if e.Status != nil {
			u.Muted = *e.Status
		}
	}
}

func (m *Manager) getOrCreateUserLocked(ctx context.Context, conf *event.Conference, at time.Time, pending *[]Member) *Member {
	r := m.getOrCreateRoomLocked(ctx, conf.MeetMe, pending)
	if u := r.user(*conf.UserNum); u != nil {
		return u
	}

	if conf.UniqueID == "" {
		m.logger.Warnf("unique id is empty, ignoring event for user %d in room %s", *conf.UserNum, r.id)
		return nil
	}

	ch, ok := m.channels.ChannelByID(conf.UniqueID)
	if !ok {
		m.logger.Warnf("no channel with unique id %s, ignoring event for user %d in room %s", conf.UniqueID, *conf.UserNum, r.id)
		return nil
	}

	if old := m.channelUserLocked(ch); old != nil {
		m.logger.Errorf("got event for channel %s that is already %s", ch.Name(), old)
		m.endUserLocked(old, ch, at)
	}

	m.logger.Infof("adding channel %s as user %d to room %s", ch.Name(), *conf.UserNum, r.id)
	u := &Member{
		RoomID:      r.id,
		UserNum:     *conf.UserNum,
		ChannelID:   ch.ID(),
		ChannelName: ch.Name(),
		Joined:      at,
	}
	r.addUser(u)
	ch.SetMembership(u.Key())
	*pending = append(*pending, *u)

	return u
}

func (m *Manager) leaveLocked(u *Member, roomID string, at time.Time) {
	m.logger.Infof("removing channel %s from room %s", u.ChannelName, roomID)

	if u.RoomID != roomID {
		if r, ok := m.rooms[u.RoomID]; ok {
			m.logger.Errorf("channel %s should be removed from room %s but is user of room %s", u.ChannelName, roomID, u.RoomID)
			r.removeUser(u)
		} else {
			m.logger.Errorf("channel %s should be removed from room %s but is user of no room", u.ChannelName, roomID)
		}
	}

	u.left(at)
	if r, ok := m.rooms[roomID]; ok {
		r.removeUser(u)
	}

	ch, ok := m.channels.ChannelByID(u.ChannelID)
	if !ok {
		m.logger.Warnf("channel %s of %s is gone", u.ChannelName, u)
		return
	}

	key, ok := ch.Membership()
	switch {
	case !ok:
		m.logger.Errorf("channel %s of %s has no membership", ch.Name(), u)
	case key != u.Key():
		m.logger.Errorf("channel %s of %s is bound to %s instead", ch.Name(), u, key)
		return
	}
	ch.ClearMembership()
}
