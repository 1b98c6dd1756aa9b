package gate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type staticChannels []string

func (s staticChannels) Channels() []string { return append([]string(nil), s...) }

type fakeChecker struct {
	statuses map[string]MemberStatus
	errs     map[string]error
	block    map[string]bool
	calls    atomic.Int32
}

func (f *fakeChecker) Status(ctx context.Context, channel string, _ int64) (MemberStatus, error) {
	f.calls.Add(1)
	if f.block[channel] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := f.errs[channel]; err != nil {
		return "", err
	}
	if st, ok := f.statuses[channel]; ok {
		return st, nil
	}
	return StatusLeft, nil
}

func TestEmptyChannelListGrants(t *testing.T) {
	chk := &fakeChecker{}
	d := New(staticChannels(nil), chk, 0).Check(context.Background(), 1)

	assert.True(t, d.Granted)
	assert.Empty(t, d.Missing)
	assert.Zero(t, chk.calls.Load(), "no lookups without channels")
}

func TestUnreachableChannelDenies(t *testing.T) {
	chk := &fakeChecker{
		statuses: map[string]MemberStatus{"@a": StatusMember},
		errs:     map[string]error{"@b": errors.New("chat not found")},
	}
	d := New(staticChannels{"@a", "@b"}, chk, 0).Check(context.Background(), 1)

	assert.False(t, d.Granted)
	assert.Equal(t, []string{"@b"}, d.Missing)
}

func TestMissingKeepsRegistryOrder(t *testing.T) {
	chk := &fakeChecker{statuses: map[string]MemberStatus{
		"@a": StatusKicked,
		"@b": StatusAdministrator,
		"@c": StatusLeft,
		"@d": StatusRestricted,
		"@e": StatusLeft,
	}}
	d := New(staticChannels{"@a", "@b", "@c", "@d", "@e"}, chk, 0).Check(context.Background(), 1)

	assert.False(t, d.Granted)
	assert.Equal(t, []string{"@a", "@c", "@e"}, d.Missing)
	assert.EqualValues(t, 5, chk.calls.Load())
}

func TestAllMembersGranted(t *testing.T) {
	chk := &fakeChecker{statuses: map[string]MemberStatus{
		"@a": StatusMember,
		"@b": StatusCreator,
	}}
	d := New(staticChannels{"@a", "@b"}, chk, 0).Check(context.Background(), 1)
	assert.True(t, d.Granted)
	assert.Empty(t, d.Missing)
}

func TestSlowLookupTimesOut(t *testing.T) {
	chk := &fakeChecker{
		statuses: map[string]MemberStatus{"@fast": StatusMember},
		block:    map[string]bool{"@slow": true},
	}
	start := time.Now()
	d := New(staticChannels{"@fast", "@slow"}, chk, 20*time.Millisecond).Check(context.Background(), 1)

	assert.False(t, d.Granted)
	assert.Equal(t, []string{"@slow"}, d.Missing)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNilCheckerFailsClosed(t *testing.T) {
	d := New(staticChannels{"@a"}, nil, 0).Check(context.Background(), 1)
	assert.False(t, d.Granted)
	assert.Equal(t, []string{"@a"}, d.Missing)
}
