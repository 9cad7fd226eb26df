package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndGetByID(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "Weather", Author: "Alice", Body: "Sunny"}))

	got, err := s.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Weather", got.Title)
	assert.Equal(t, 1, s.Version())
}

func TestGetByIDNotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetByID(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertReplyMissingParent(t *testing.T) {
	s := NewStore()
	err := s.Insert(&Message{ID: 1, Kind: Reply, ParentID: 99, Title: "Re", Author: "Bob", Body: "Nope"})
	assert.ErrorIs(t, err, ErrParentMissing)
	assert.Equal(t, 0, s.Len())
}

func TestInsertReplyAttachesToParent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "T", Author: "A", Body: "B"}))
	require.NoError(t, s.Insert(&Message{ID: 2, Kind: Reply, ParentID: 1, Title: "Re", Author: "C", Body: "D"}))

	parent, err := s.GetByID(1)
	require.NoError(t, err)
	require.Len(t, parent.Replies, 1)
	assert.Equal(t, 2, parent.Replies[0].ID)
}

func TestInsertIsIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "T", Author: "A", Body: "B"}))
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "Other", Author: "X", Body: "Y"}))

	got, err := s.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title, "second insert of the same id must be a no-op")
}

func TestVersionMonotonicAcrossOutOfOrderInserts(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "A", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 3, Kind: Post, Title: "C", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 2, Kind: Reply, ParentID: 1, Title: "B", Author: "a", Body: "b"}))

	assert.Equal(t, 3, s.Version())
}

func TestPageThreadedOrder(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "P1", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 2, Kind: Reply, ParentID: 1, Title: "R1", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 3, Kind: Post, Title: "P2", Author: "a", Body: "b"}))

	page := s.Page(0)
	require.Len(t, page, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{page[0].ID, page[1].ID, page[2].ID})
}

func TestPageBoundaries(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 7; i++ {
		require.NoError(t, s.Insert(&Message{ID: i, Kind: Post, Title: "t", Author: "a", Body: "b"}))
	}

	assert.Len(t, s.Page(0), 5)
	assert.Len(t, s.Page(1), 2)
	assert.Empty(t, s.Page(2))
}

func TestRangeFrom(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Insert(&Message{ID: i, Kind: Post, Title: "t", Author: "a", Body: "b"}))
	}

	got := s.RangeFrom(3)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 5, got[2].ID)
}

func TestThreadedViewIsPermutationOfFlatView(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(&Message{ID: 1, Kind: Post, Title: "t", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 2, Kind: Post, Title: "t", Author: "a", Body: "b"}))
	require.NoError(t, s.Insert(&Message{ID: 3, Kind: Reply, ParentID: 1, Title: "t", Author: "a", Body: "b"}))

	threaded := s.RangeFrom(0)
	seen := make(map[int]bool)
	for _, m := range threaded {
		seen[m.ID] = true
	}
	assert.Equal(t, s.Len(), len(seen))
}
