package live

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

var meetMeListPattern = regexp.MustCompile(`^User #: ([0-9]+).*Channel: (\S+).*$`)

// listLine is one participant line of a "meetme list" reply.
type listLine struct {
	userNum int
	channel string
	muted   bool
	talking bool
}

func parseListLine(line string) (listLine, bool) {
	match := meetMeListPattern.FindStringSubmatch(line)
	if match == nil {
		return listLine{}, false
	}

	userNum, err := strconv.Atoi(match[1])
	if err != nil {
		return listLine{}, false
	}

	return listLine{
		userNum: userNum,
		channel: match[2],
		muted:   strings.Contains(line, "(Admin Muted)") || strings.Contains(line, "(Muted)"),
		talking: strings.Contains(line, "(talking)"),
	}, true
}

// populateRoomLocked seeds r with the members the server currently reports.
// Every failure leaves the room empty; it is still registered by the caller.
func (m *Manager) populateRoomLocked(ctx context.Context, r *room, pending *[]Member) {
	command := m.listCommand + " " + r.id

	resp, err := m.sender.SendCommand(ctx, command)
	if err != nil {
		m.logger.Errorf("unable to send %q command: %v", command, err)
		return
	}

	var lines []string
	switch resp := resp.(type) {
	case *ManagerError:
		m.logger.Errorf("unable to send %q command: %s", command, resp.Message)
		return
	case *CommandResponse:
		lines = resp.Lines
	default:
		m.logger.Errorf("response to %q command is not a command response but %T", command, resp)
		return
	}

	for _, line := range lines {
		entry, ok := parseListLine(line)
		if !ok {
			continue
		}
		m.populateLineLocked(r, entry, pending)
	}
}

func (m *Manager) populateLineLocked(r *room, entry listLine, pending *[]Member) {
	ch, ok := m.channels.ChannelByName(entry.channel)
	if !ok {
		m.logger.Warnf("channel %s of user %d in room %s is unknown, skipping", entry.channel, entry.userNum, r.id)
		return
	}

	now := m.now()

	channelUser := m.channelUserLocked(ch)
	if channelUser != nil && channelUser.RoomID != r.id {
		m.logger.Infof("channel %s moved from room %s to room %s", ch.Name(), channelUser.RoomID, r.id)
		m.endUserLocked(channelUser, ch, now)
		channelUser = nil
	}

	roomUser := r.user(entry.userNum)
	if roomUser != nil && roomUser.ChannelID != ch.ID() {
		m.logger.Infof("user %d in room %s is now channel %s instead of %s", entry.userNum, r.id, ch.Name(), roomUser.ChannelName)
		oldCh, _ := m.channels.ChannelByID(roomUser.ChannelID)
		m.endUserLocked(roomUser, oldCh, now)
		roomUser = nil
	}

	switch {
	case channelUser == nil && roomUser == nil:
		u := &Member{
			RoomID:      r.id,
			UserNum:     entry.userNum,
			ChannelID:   ch.ID(),
			ChannelName: ch.Name(),
			Joined:      now,
			Muted:       entry.muted,
			Talking:     entry.talking,
		}
		r.addUser(u)
		ch.SetMembership(u.Key())
		*pending = append(*pending, *u)
	case channelUser != nil && roomUser == nil:
		channelUser.Muted = entry.muted
		r.addUser(channelUser)
	case channelUser == nil && roomUser != nil:
		roomUser.Muted = entry.muted
		ch.SetMembership(roomUser.Key())
	case channelUser != roomUser:
		m.logger.Errorf("inconsistent state: channel %s is %s but room %s has %s", ch.Name(), channelUser, r.id, roomUser)
	}
}
