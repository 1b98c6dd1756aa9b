// Package audit records admin actions and searches. The journal is optional;
// when no database is configured the bot runs with Nop.
package audit

import (
	"context"
	"time"
)

// Kind names a journaled action.
type Kind string

const (
	KindSearch        Kind = "search"
	KindBan           Kind = "ban"
	KindUnban         Kind = "unban"
	KindChannelAdd    Kind = "channel_add"
	KindChannelRemove Kind = "channel_remove"
	KindBroadcast     Kind = "broadcast"
)

// Event is one journal row.
type Event struct {
	Kind     Kind      `db:"kind"`
	ActorID  int64     `db:"actor_id"`
	TargetID int64     `db:"target_id"`
	Subject  string    `db:"subject"`
	Detail   string    `db:"detail"`
	Count    int       `db:"count"`
	At       time.Time `db:"at"`
}

// Journal stores events. Record never fails the caller; write errors are
// logged by the implementation.
type Journal interface {
	Record(ctx context.Context, e Event)
}

// Replayer reads events back in write order.
type Replayer interface {
	Replay(ctx context.Context, kinds ...Kind) ([]Event, error)
}

// StateKinds are the events that change the ban list or the channel list.
var StateKinds = []Kind{KindBan, KindUnban, KindChannelAdd, KindChannelRemove}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
