package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/42wim/meetmebridge/live"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openTest(t *testing.T) (*Journal, *test.Hook) {
	t.Helper()
	l, hook := test.NewNullLogger()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), logrus.NewEntry(l))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j, hook
}

func TestJournalRecordsInOrder(t *testing.T) {
	j, hook := openTest(t)

	j.NewMeetMeUser(live.Member{RoomID: "100", UserNum: 2, ChannelID: "1.2", ChannelName: "SIP/bob", Joined: testTime, Talking: true})
	j.NewMeetMeUser(live.Member{RoomID: "100", UserNum: 1, ChannelID: "1.1", ChannelName: "SIP/alice", Joined: testTime, Muted: true})
	j.NewMeetMeUser(live.Member{RoomID: "200", UserNum: 1, ChannelID: "1.3", ChannelName: "SIP/carol", Joined: testTime})

	entries, err := j.Participants("100")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, "SIP/bob", entries[0].ChannelName)
	assert.True(t, entries[0].Talking)
	assert.Equal(t, "SIP/alice", entries[1].ChannelName)
	assert.True(t, entries[1].Muted)
	assert.True(t, testTime.Equal(entries[1].Joined))

	rooms, err := j.Rooms()
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, rooms)
	assert.Empty(t, hook.AllEntries())
}

func TestParticipantsUnknownRoom(t *testing.T) {
	j, _ := openTest(t)

	entries, err := j.Participants("nope")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path, nil)
	require.NoError(t, err)
	j.NewMeetMeUser(live.Member{RoomID: "100", UserNum: 1, ChannelName: "SIP/alice"})
	require.NoError(t, j.Close())

	j, err = Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Participants("100")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].UserNum)
}

func TestJournalLogsWriteErrors(t *testing.T) {
	l, hook := test.NewNullLogger()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), logrus.NewEntry(l))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j.NewMeetMeUser(live.Member{RoomID: "100", UserNum: 1})

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}
