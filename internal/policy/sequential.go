package policy

import (
	"context"

	"github.com/dreamware/bboard/internal/message"
	"github.com/dreamware/bboard/internal/netutil"
)

// SequentialPolicy trusts the coordinator entirely: writes go through it
// unconditionally, reads and choose are always served locally with no
// freshness check. It adds nothing over the shared defaults.
type SequentialPolicy struct {
	link
}

// NewSequential builds a Sequential policy bound to store and the given
// coordinator address.
func NewSequential(store *message.Store, primaryAddr string, delay netutil.Delay) *SequentialPolicy {
	return &SequentialPolicy{link{store: store, primaryAddr: primaryAddr, delay: delay}}
}

func (s *SequentialPolicy) Post(ctx context.Context, raw string) (bool, error) {
	return s.defaultPost(ctx, raw)
}

func (s *SequentialPolicy) Read(ctx context.Context, page int) ([]*message.Message, error) {
	return s.defaultRead(page), nil
}

func (s *SequentialPolicy) Choose(ctx context.Context, id int) (*message.Message, error) {
	return s.defaultChoose(id)
}
