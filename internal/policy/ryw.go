package policy

import (
	"context"
	"fmt"

	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/wire"
)

// RYWPolicy implements read-your-writes: a write acquires a coordinator-held
// token before being sent, guaranteeing this replica is the only writer in
// flight; a read first asks the coordinator to heal any gap between this
// replica's version and the coordinator's.
//
// Unlike the original design, the coordinator — not the writer — assigns
// the message id while holding the token: the writer never performs a
// speculative local write, it only observes its own write via the same
// fan-out path every other replica uses. This closes the id race that
// exists when both sides increment independently.
type RYWPolicy struct {
	link
	replicaID int
}

// NewRYW builds a RYW policy for the replica identified by replicaID
// (assigned by the coordinator at registration).
func NewRYW(store *message.Store, primaryAddr string, replicaID int, delay netutil.Delay) *RYWPolicy {
	return &RYWPolicy{link{store: store, primaryAddr: primaryAddr, delay: delay}, replicaID}
}

func (r *RYWPolicy) Post(ctx context.Context, raw string) (bool, error) {
	conn, err := netutil.Dial(ctx, r.primaryAddr)
	if err != nil {
		return false, fmt.Errorf("policy: ryw post: %w", err)
	}
	defer conn.Close()

	r.delay.Sleep()
	if err := conn.SendLine(string(wire.TagAcquireLock)); err != nil {
		return false, fmt.Errorf("policy: ryw acquire: %w", err)
	}
	grant, err := conn.ReadLine()
	if err != nil {
		return false, fmt.Errorf("policy: ryw acquire: %w", err)
	}
	if grant != string(wire.TagGrantLock) {
		return false, fmt.Errorf("policy: ryw acquire: unexpected reply %q", grant)
	}

	r.delay.Sleep()
	if err := conn.SendLine(string(wire.TagUnlock)); err != nil {
		return false, fmt.Errorf("policy: ryw unlock: %w", err)
	}
	r.delay.Sleep()
	if err := conn.SendLine(raw); err != nil {
		return false, fmt.Errorf("policy: ryw write: %w", err)
	}

	resp, err := conn.ReadLine()
	if err != nil {
		return false, fmt.Errorf("policy: ryw write: %w", err)
	}
	return resp == fmt.Sprint(wire.CodeOK), nil
}

func (r *RYWPolicy) Read(ctx context.Context, page int) ([]*message.Message, error) {
	if err := r.checkForUpdates(ctx); err != nil {
		return nil, err
	}
	return r.defaultRead(page), nil
}

func (r *RYWPolicy) Choose(ctx context.Context, id int) (*message.Message, error) {
	if err := r.checkForUpdates(ctx); err != nil {
		return nil, err
	}
	return r.defaultChoose(id)
}

// checkForUpdates asks the coordinator whether this replica is missing any
// writes. The coordinator pushes any missing messages to this replica
// directly before replying OK, so a single round trip is enough: by the
// time OK arrives the local store already has everything up to the
// coordinator's current version.
func (r *RYWPolicy) checkForUpdates(ctx context.Context) error {
	resp, err := netutil.Exchange(ctx, r.primaryAddr, wire.EncodeCheck(r.replicaID, r.store.Version()), r.delay)
	if err != nil {
		return fmt.Errorf("policy: ryw check: %w", err)
	}
	if resp != wire.ReplyOK {
		return fmt.Errorf("policy: ryw check: unexpected reply %q", resp)
	}
	return nil
}
