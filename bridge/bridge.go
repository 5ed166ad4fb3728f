// Package bridge wires the live room mirror to its channel registry, journal
// and configuration.
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/42wim/meetmebridge/channels"
	"github.com/42wim/meetmebridge/config"
	"github.com/42wim/meetmebridge/event"
	"github.com/42wim/meetmebridge/journal"
	"github.com/42wim/meetmebridge/live"
	"github.com/42wim/meetmebridge/pkg/attrbind"
)

type Bridge struct {
	Settings *config.Settings
	Manager  *live.Manager
	Channels *channels.Registry
	Journal  *journal.Journal

	mu        sync.Mutex
	notifiers []live.Notifier

	logger *logrus.Entry
}

func New(v *viper.Viper, sender live.CommandSender) (*Bridge, error) {
	s, err := config.Decode(v)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		Settings: s,
		logger:   config.NewLogger(s, "bridge"),
	}

	attrbind.SetLogger(config.NewLogger(s, "attrbind"))

	b.Channels, err = channels.NewRegistry(s.Channels.HungupCache, config.NewLogger(s, "channels"))
	if err != nil {
		return nil, fmt.Errorf("creating channel registry: %w", err)
	}

	if s.Journal.Path != "" {
		b.Journal, err = journal.Open(s.Journal.Path, config.NewLogger(s, "journal"))
		if err != nil {
			return nil, err
		}
		b.notifiers = append(b.notifiers, b.Journal)
	}

	b.Manager = live.NewManager(live.Config{
		ListCommand: s.MeetMe.ListCommand,
		Logger:      config.NewLogger(s, "live"),
	}, b.Channels, sender, live.NotifierFunc(b.notify))

	return b, nil
}

// OnNewMeetMeUser registers f to be called for every new room member.
func (b *Bridge) OnNewMeetMeUser(f live.NotifierFunc) {
	b.mu.Lock()
	b.notifiers = append(b.notifiers, f)
	b.mu.Unlock()
}

func (b *Bridge) notify(m live.Member) {
	b.mu.Lock()
	ns := make(live.Notifiers, len(b.notifiers))
	copy(ns, b.notifiers)
	b.mu.Unlock()

	b.logger.Debugf("new meetme user: %s", m)
	ns.NewMeetMeUser(m)
}

func (b *Bridge) HandleEvent(ctx context.Context, ev event.Event) {
	switch e := ev.(type) {
	case *event.NewChannel, *event.Hangup, *event.Rename:
		b.Channels.HandleEvent(e)
	case event.MeetMeEvent:
		b.Manager.HandleEvent(ctx, e)
	default:
		b.logger.Tracef("ignoring event %T", ev)
	}
}

// Run handles events until ctx is done or events is closed.
func (b *Bridge) Run(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.logger.Tracef("handling event %s", spew.Sdump(ev))
			b.HandleEvent(ctx, ev)
		}
	}
}

// Disconnected drops all state, it is rebuilt from new events and listings
// once the connection is back.
func (b *Bridge) Disconnected() {
	b.logger.Info("connection lost, resetting rooms and channels")
	b.Manager.Reset()
	b.Channels.Clear()
}

func (b *Bridge) Close() error {
	if b.Journal == nil {
		return nil
	}
	return b.Journal.Close()
}
