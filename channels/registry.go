// Package channels tracks the call legs of a server from channel events.
package channels

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/42wim/meetmebridge/event"
	"github.com/42wim/meetmebridge/live"
)

// DefaultHungupCacheSize is the number of hung up channels kept for lookups.
const DefaultHungupCacheSize = 100

// Channel is a call leg.
type Channel struct {
	mu sync.Mutex

	id       string
	name     string
	state    event.ChannelState
	created  time.Time
	hungupAt time.Time
	member   *live.MemberKey
}

func (c *Channel) ID() string { return c.id }

func (c *Channel) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Channel) State() event.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HungupAt is zero while the channel is up.
func (c *Channel) HungupAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hungupAt
}

func (c *Channel) Membership() (live.MemberKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.member == nil {
		return live.MemberKey{}, false
	}
	return *c.member, true
}

func (c *Channel) SetMembership(key live.MemberKey) {
	c.mu.Lock()
	c.member = &key
	c.mu.Unlock()
}

func (c *Channel) ClearMembership() {
	c.mu.Lock()
	c.member = nil
	c.mu.Unlock()
}

// Registry implements live.ChannelLookup.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Channel
	byName map[string]*Channel
	hungup *lru.Cache

	logger *logrus.Entry
}

// NewRegistry returns an empty registry keeping up to hungupCacheSize hung up
// channels, DefaultHungupCacheSize when it is not positive.
func NewRegistry(hungupCacheSize int, logger *logrus.Entry) (*Registry, error) {
	if hungupCacheSize <= 0 {
		hungupCacheSize = DefaultHungupCacheSize
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("prefix", "channels")
	}

	hungup, err := lru.New(hungupCacheSize)
	if err != nil {
		return nil, err
	}

	return &Registry{
		byID:   make(map[string]*Channel),
		byName: make(map[string]*Channel),
		hungup: hungup,
		logger: logger,
	}, nil
}

// Add registers an active channel.
func (r *Registry) Add(id, name string, state event.ChannelState, created time.Time) *Channel {
	ch := &Channel{id: id, name: name, state: state, created: created}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID[id]; ok {
		r.logger.Warnf("channel with unique id %s already exists as %s, replacing", id, old.Name())
		if r.byName[old.Name()] == old {
			delete(r.byName, old.Name())
		}
	}
	r.byID[id] = ch
	r.byName[name] = ch

	return ch
}

// HandleEvent applies a channel event.
func (r *Registry) HandleEvent(ev event.Event) {
	switch e := ev.(type) {
	case *event.NewChannel:
		r.handleNewChannel(e)
	case *event.Hangup:
		r.handleHangup(e)
	case *event.Rename:
		r.handleRename(e)
	}
}

func (r *Registry) handleNewChannel(e *event.NewChannel) {
	if e.UniqueID == "" || e.Channel == "" {
		r.logger.Warnf("new channel without unique id or name (%q, %q), ignoring", e.UniqueID, e.Channel)
		return
	}

	at := e.DateReceived
	if at.IsZero() {
		at = time.Now()
	}

	r.logger.Debugf("adding channel %s (%s)", e.Channel, e.UniqueID)
	r.Add(e.UniqueID, e.Channel, e.State, at)
}

func (r *Registry) handleHangup(e *event.Hangup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.byID[e.UniqueID]
	if !ok {
		r.logger.Debugf("hangup for unknown channel %s (%s)", e.Channel, e.UniqueID)
		return
	}

	at := e.DateReceived
	if at.IsZero() {
		at = time.Now()
	}

	ch.mu.Lock()
	ch.hungupAt = at
	ch.state = event.StateDown
	ch.mu.Unlock()

	delete(r.byID, ch.id)
	if r.byName[ch.Name()] == ch {
		delete(r.byName, ch.Name())
	}
	r.hungup.Add(ch.id, ch)

	r.logger.Debugf("channel %s hung up: %s", ch.Name(), e.CauseTxt)
}

func (r *Registry) handleRename(e *event.Rename) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.byID[e.UniqueID]
	if !ok {
		r.logger.Debugf("rename of unknown channel %s (%s)", e.OldName, e.UniqueID)
		return
	}
	if e.NewName == "" {
		r.logger.Warnf("rename of channel %s without new name, ignoring", ch.Name())
		return
	}

	if r.byName[ch.Name()] == ch {
		delete(r.byName, ch.Name())
	}
	ch.mu.Lock()
	ch.name = e.NewName
	ch.mu.Unlock()
	r.byName[e.NewName] = ch
}

// ChannelByID returns the channel with the given unique id, including
// recently hung up channels.
func (r *Registry) ChannelByID(id string) (live.Channel, bool) {
	r.mu.RLock()
	ch, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return ch, true
	}

	if v, ok := r.hungup.Get(id); ok {
		return v.(*Channel), true
	}
	return nil, false
}

// ChannelByName returns the active channel with the given name, or the most
// recently hung up one when no active channel has that name.
func (r *Registry) ChannelByName(name string) (live.Channel, bool) {
	r.mu.RLock()
	ch, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return ch, true
	}

	var found *Channel
	for _, key := range r.hungup.Keys() {
		v, ok := r.hungup.Peek(key)
		if !ok {
			continue
		}
		c := v.(*Channel)
		if c.Name() != name {
			continue
		}
		if found == nil || c.HungupAt().After(found.HungupAt()) {
			found = c
		}
	}
	if found == nil {
		return nil, false
	}
	return found, true
}

// Len returns the number of active channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Clear drops all channels.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[string]*Channel)
	r.byName = make(map[string]*Channel)
	r.hungup.Purge()
}
