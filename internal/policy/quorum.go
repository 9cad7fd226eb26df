package policy

import (
	"context"
	"fmt"

	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
	"github.com/dreamware/bboard/internal/wire"
)

// QuorumPolicy uses the shared default write path (writes still go through
// the coordinator unconditionally) but requires a read quorum to be
// assembled by the coordinator before serving a read or choose locally.
type QuorumPolicy struct {
	link
	replicaID int
}

// NewQuorum builds a Quorum policy for the replica identified by replicaID
// (assigned by the coordinator at registration).
func NewQuorum(store *message.Store, primaryAddr string, replicaID int, delay netutil.Delay) *QuorumPolicy {
	return &QuorumPolicy{link{store: store, primaryAddr: primaryAddr, delay: delay}, replicaID}
}

func (q *QuorumPolicy) Post(ctx context.Context, raw string) (bool, error) {
	return q.defaultPost(ctx, raw)
}

func (q *QuorumPolicy) Read(ctx context.Context, page int) ([]*message.Message, error) {
	if err := q.assembleReadQuorum(ctx); err != nil {
		return nil, err
	}
	return q.defaultRead(page), nil
}

func (q *QuorumPolicy) Choose(ctx context.Context, id int) (*message.Message, error) {
	if err := q.assembleReadQuorum(ctx); err != nil {
		return nil, err
	}
	return q.defaultChoose(id)
}

// assembleReadQuorum asks the coordinator to bring this replica's board up
// to date before a read proceeds. It blocks until the coordinator answers
// OK; the coordinator does the actual quorum-member polling and any
// necessary replica-to-replica transfer on its own end.
func (q *QuorumPolicy) assembleReadQuorum(ctx context.Context) error {
	resp, err := netutil.Exchange(ctx, q.primaryAddr, wire.EncodeQuorumRead(q.replicaID), q.delay)
	if err != nil {
		return fmt.Errorf("policy: read quorum: %w", err)
	}
	if resp != wire.ReplyOK {
		return fmt.Errorf("policy: read quorum rejected: %s", resp)
	}
	return nil
}
