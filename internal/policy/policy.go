// Package policy implements the three pluggable consistency policies a
// replica runs: Sequential, Quorum, and Read-Your-Writes. Each policy
// governs how a replica's Post/Read/Choose operations interact with the
// coordinator before touching the local message store.
package policy

import (
	"context"
	"fmt"

	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/wire"
)

// Name identifies a consistency policy, exchanged with the coordinator at
// registration time.
type Name string

const (
	Sequential Name = "SEQUENTIAL"
	Quorum     Name = "QUORUM"
	RYW        Name = "RYW"
)

// Policy is the interface a replica's client-facing dispatcher calls through
// for every operation. The replica's own message store is never written to
// directly by a Policy; an accepted Post is applied only when it comes back
// through the coordinator's fan-out (see internal/replica/dispatch.go) —
// this is true of all three policies, including RYW.
type Policy interface {
	// Post submits a new POST/REPLY frame (no id yet assigned) to the
	// coordinator and reports whether it was accepted.
	Post(ctx context.Context, raw string) (bool, error)
	// Read returns a page of the threaded board, performing whatever
	// freshness check the policy requires first.
	Read(ctx context.Context, page int) ([]*message.Message, error)
	// Choose returns a single message by id, performing whatever freshness
	// check the policy requires first.
	Choose(ctx context.Context, id int) (*message.Message, error)
}

// link holds the state every policy needs: the local store it reads from,
// how to reach the coordinator, and the outbound delay to apply.
type link struct {
	store       *message.Store
	primaryAddr string
	delay       netutil.Delay
}

// defaultPost forwards raw unmodified to the coordinator and reports the
// coordinator's accept/reject code. This is the behavior Sequential and
// Quorum both use unmodified; RYW replaces it entirely with a token-guarded
// write.
func (l *link) defaultPost(ctx context.Context, raw string) (bool, error) {
	resp, err := netutil.Exchange(ctx, l.primaryAddr, raw, l.delay)
	if err != nil {
		return false, fmt.Errorf("policy: post: %w", err)
	}
	return resp == fmt.Sprint(wire.CodeOK), nil
}

// defaultRead serves a page straight from the local store with no
// coordinator round-trip. Quorum and RYW layer a freshness check in front
// of this.
func (l *link) defaultRead(page int) []*message.Message {
	return l.store.Page(page)
}

// defaultChoose serves a single message straight from the local store.
func (l *link) defaultChoose(id int) (*message.Message, error) {
	return l.store.GetByID(id)
}
