package coordinator

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/policy"
	"github.com/dreamware/bboard/internal/wire"
	"github.com/stretchr/testify/require"
)

// lineCollector records every request line a fakeReplica sees across any
// number of separate connections, guarding against the one-line-per-
// connection assumption each exchange in this codebase relies on.
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func TestBroadcastUpdatesDeliversEveryUpdateOnItsOwnConnection(t *testing.T) {
	updates := []string{
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "A", Author: "x", Body: "a", ID: 1, HasID: true}),
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "B", Author: "y", Body: "b", ID: 2, HasID: true}),
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "C", Author: "z", Body: "c", ID: 3, HasID: true}),
	}

	var got lineCollector
	dest := startFakeReplica(t, func(conn net.Conn, line string) {
		got.add(line)
		replyOK(conn)
	})
	host, port := dest.hostPort(t)

	c := New(policy.Quorum, 0, 0, netutil.NoDelay())
	c.Registry().Register(host, port)

	c.broadcastUpdates(c.Registry().Snapshot(), updates)

	require.Eventually(t, func() bool {
		return len(got.snapshot()) == len(updates)
	}, time.Second, 10*time.Millisecond)
	require.ElementsMatch(t, updates, got.snapshot())
}

func TestBroadcastUpdatesStopsAtFirstUnreachableReplica(t *testing.T) {
	updates := []string{
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "A", Author: "x", Body: "a", ID: 1, HasID: true}),
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "B", Author: "y", Body: "b", ID: 2, HasID: true}),
	}

	c := New(policy.Quorum, 0, 0, netutil.NoDelay())
	c.Registry().Register("127.0.0.1", 1) // nothing listens here

	// Must not hang or panic; broadcastUpdates just gives up on this replica.
	c.broadcastUpdates(c.Registry().Snapshot(), updates)
}

func TestSynchronizePullsFromSourceAndBroadcastsFullRangeToAll(t *testing.T) {
	sourceUpdates := []string{
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "A", Author: "x", Body: "a", ID: 1, HasID: true}),
		wire.EncodeMessageFrame(wire.Frame{Tag: wire.TagPost, Title: "B", Author: "y", Body: "b", ID: 2, HasID: true}),
	}

	source := startFakeReplica(t, func(conn net.Conn, line string) {
		switch wire.LeadingTag(line) {
		case wire.TagSendUpdates:
			for _, u := range sourceUpdates {
				conn.Write([]byte(u + "\n"))
			}
			conn.Write([]byte("\n"))
		default:
			replyOK(conn)
		}
	})
	srcHost, srcPort := source.hostPort(t)

	var dest1, dest2 lineCollector
	d1 := startFakeReplica(t, func(conn net.Conn, line string) { dest1.add(line); replyOK(conn) })
	d1Host, d1Port := d1.hostPort(t)
	d2 := startFakeReplica(t, func(conn net.Conn, line string) { dest2.add(line); replyOK(conn) })
	d2Host, d2Port := d2.hostPort(t)

	c := New(policy.Quorum, 1, 1, netutil.NoDelay())
	c.Registry().Register(srcHost, srcPort)
	c.Registry().Register(d1Host, d1Port)
	c.Registry().Register(d2Host, d2Port)

	c.nextID()
	c.nextID() // nextMessageID is now 2; lastSent is still 0, so a sync pass has work to do

	c.synchronize()

	require.Eventually(t, func() bool {
		return len(dest1.snapshot()) == len(sourceUpdates) && len(dest2.snapshot()) == len(sourceUpdates)
	}, time.Second, 10*time.Millisecond)
	require.ElementsMatch(t, sourceUpdates, dest1.snapshot())
	require.ElementsMatch(t, sourceUpdates, dest2.snapshot())
}

func TestSynchronizeIsNoOpWhenNothingNewSinceLastSync(t *testing.T) {
	var got lineCollector
	dest := startFakeReplica(t, func(conn net.Conn, line string) { got.add(line); replyOK(conn) })
	host, port := dest.hostPort(t)

	c := New(policy.Quorum, 0, 0, netutil.NoDelay())
	c.Registry().Register(host, port)

	c.synchronize()

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, got.snapshot())
}
