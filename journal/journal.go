// Package journal records every member that shows up in a room to a bolt
// database.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/42wim/meetmebridge/live"
)

// Entry is a journaled member.
type Entry struct {
	Seq         uint64    `json:"seq"`
	RoomID      string    `json:"room"`
	UserNum     int       `json:"usernum"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel"`
	Joined      time.Time `json:"joined"`
	Muted       bool      `json:"muted,omitempty"`
	Talking     bool      `json:"talking,omitempty"`
}

// Journal implements live.Notifier.
type Journal struct {
	db     *bolt.DB
	logger *logrus.Entry
}

// Open opens or creates the bolt database at path.
func Open(path string, logger *logrus.Entry) (*Journal, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("prefix", "journal")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	return &Journal{db: db, logger: logger}, nil
}

func (j *Journal) NewMeetMeUser(m live.Member) {
	if err := j.record(m); err != nil {
		j.logger.Errorf("unable to journal %s: %s", m, err)
	}
}

func (j *Journal) record(m live.Member) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(m.RoomID))
		if err != nil {
			return err
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		v, err := json.Marshal(Entry{
			Seq:         seq,
			RoomID:      m.RoomID,
			UserNum:     m.UserNum,
			ChannelID:   m.ChannelID,
			ChannelName: m.ChannelName,
			Joined:      m.Joined,
			Muted:       m.Muted,
			Talking:     m.Talking,
		})
		if err != nil {
			return err
		}

		return b.Put(itob(seq), v)
	})
}

// Participants returns the journaled members of a room in arrival order.
func (j *Journal) Participants(roomID string) ([]Entry, error) {
	var entries []Entry

	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(roomID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})

	return entries, err
}

// Rooms returns the ids of all journaled rooms.
func (j *Journal) Rooms() ([]string, error) {
	var rooms []string

	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			rooms = append(rooms, string(name))
			return nil
		})
	})

	return rooms, err
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// big endian keeps ForEach in sequence order
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
