package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/wire"
)

// SyncInterval is the fixed period between quorum periodic syncs.
const SyncInterval = 30 * time.Second

// SyncLoop runs the quorum policy's periodic synchronization task on a
// ticker until Stop is called, mirroring the ticker-driven background-loop
// shape used elsewhere in this codebase for periodic coordinator work.
type SyncLoop struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// StartSync launches the periodic sync loop, ticking every SyncInterval.
// Only meaningful under Quorum policy; callers should not start it
// otherwise.
func (c *Coordinator) StartSync(ctx context.Context) *SyncLoop {
	ctx, cancel := context.WithCancel(ctx)
	s := &SyncLoop{cancel: cancel}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.synchronize()
			}
		}
	}()

	return s
}

// Stop halts the sync loop and waits for it to exit.
func (s *SyncLoop) Stop() {
	s.cancel()
	s.wg.Wait()
}

// synchronize implements one pass of the quorum periodic sync: if new
// messages exist since the last sync, pull the union of them from a write
// quorum's worth of replicas and broadcast the merged set to everyone.
func (c *Coordinator) synchronize() {
	c.mu.Lock()
	if c.lastSent >= c.nextMessageID {
		c.mu.Unlock()
		return
	}
	startID := c.lastSent + 1
	current := c.nextMessageID
	c.mu.Unlock()

	all := c.registry.Snapshot()
	if len(all) == 0 {
		return
	}

	sources := c.writeQuorumMembers(all)
	updates := c.pullUpdates(sources, startID)
	c.broadcastUpdates(all, updates)

	c.mu.Lock()
	c.lastSent = current
	c.mu.Unlock()
}

// pullUpdates fetches range_from(startID) from each source and merges the
// results, keeping the first copy seen of each message id.
func (c *Coordinator) pullUpdates(sources []ReplicaInfo, startID int) []string {
	seen := make(map[int]string)
	for _, src := range sources {
		for _, line := range c.sendUpdatesFrom(src, startID) {
			f, err := wire.DecodeMessageFrame(line)
			if err != nil || !f.HasID {
				continue
			}
			if _, ok := seen[f.ID]; !ok {
				seen[f.ID] = line
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, line := range seen {
		out = append(out, line)
	}
	return out
}

func (c *Coordinator) sendUpdatesFrom(src ReplicaInfo, startID int) []string {
	conn, err := netutil.Dial(context.Background(), src.Addr())
	if err != nil {
		return nil
	}
	defer conn.Close()

	c.delay.Sleep()
	if err := conn.SendLine(wire.EncodeSendUpdates(startID)); err != nil {
		return nil
	}

	var lines []string
	for {
		line, err := conn.ReadLine()
		if err != nil || line == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// broadcastUpdates pushes each update to each replica as its own one-shot
// frame/ack exchange, exactly as fanOut and handleTransfer already do,
// rather than streaming the whole batch onto one held connection — a
// replica's handleConn reads and applies exactly one line per connection,
// so anything past the first frame on a shared connection would otherwise
// be silently discarded on close.
func (c *Coordinator) broadcastUpdates(all []ReplicaInfo, updates []string) {
	if len(updates) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, rep := range all {
		wg.Add(1)
		go func(rep ReplicaInfo) {
			defer wg.Done()
			for _, line := range updates {
				if !c.sendAndAwaitOK(rep.Addr(), line) {
					return
				}
			}
		}(rep)
	}
	wg.Wait()
}
