// Package message implements the in-memory threaded bulletin-board store:
// a forest of POST roots with REPLY descendants, indexed by message ID.
package message

import (
	"errors"
	"sync"
)

// Kind distinguishes a top-level post from a reply to an existing message.
type Kind string

const (
	// Post is a new top-level thread.
	Post Kind = "POST"
	// Reply is a response nested under an existing message.
	Reply Kind = "REPLY"
)

// PageSize is the number of messages returned per threaded-view page.
const PageSize = 5

// ErrNotFound is returned when a message ID has no matching entry in the store.
var ErrNotFound = errors.New("message: not found")

// ErrParentMissing is returned when a REPLY's parent_id does not resolve to
// an existing message in the local store.
var ErrParentMissing = errors.New("message: parent missing")

// Message is a single bulletin-board entry. ParentID is only meaningful when
// Kind == Reply. Replies holds this message's direct descendants in the
// order they were inserted.
type Message struct {
	ID       int
	Kind     Kind
	Title    string
	Author   string
	Body     string
	ParentID int
	Replies  []*Message
}

// Store is a threaded bulletin board: a forest of POST roots, each carrying
// a sub-tree of REPLY descendants, plus a flat ID index for O(1) lookup.
//
// Mutations (Insert) are serialized by mu. Readers (GetByID, Page,
// RangeFrom) take the same lock for the duration of their read, so they
// always observe a fully-inserted message or none at all — never a reply
// whose parent link is half-applied.
type Store struct {
	mu      sync.RWMutex
	roots   []*Message
	byID    map[int]*Message
	version int
}

// NewStore returns an empty bulletin board.
func NewStore() *Store {
	return &Store{byID: make(map[int]*Message)}
}

// Insert adds msg to the store. For a POST, msg is appended to the roots.
// For a REPLY, msg is appended to its parent's Replies; ErrParentMissing is
// returned if ParentID does not resolve in this store. Version is updated
// to max(version, msg.ID) regardless of outcome ordering — a failed insert
// leaves the store untouched.
func (s *Store) Insert(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[msg.ID]; exists {
		return nil
	}

	if msg.Kind == Reply {
		parent, ok := s.byID[msg.ParentID]
		if !ok {
			return ErrParentMissing
		}
		parent.Replies = append(parent.Replies, msg)
	} else {
		s.roots = append(s.roots, msg)
	}

	s.byID[msg.ID] = msg
	if msg.ID > s.version {
		s.version = msg.ID
	}
	return nil
}

// GetByID returns the message with the given id, or ErrNotFound.
func (s *Store) GetByID(id int) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return msg, nil
}

// Version returns the highest message ID ever written to this store.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the total number of messages in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Page returns up to PageSize consecutive messages from the threaded view,
// starting at offset PageSize*n. Returns an empty slice if the offset is
// beyond the end of the board.
func (s *Store) Page(n int) []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := threadedView(s.roots)
	start := n * PageSize
	if start >= len(all) {
		return nil
	}
	end := start + PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// RangeFrom returns every message with id >= startID, in threaded order.
func (s *Store) RangeFrom(startID int) []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := threadedView(s.roots)
	out := make([]*Message, 0, len(all))
	for _, m := range all {
		if m.ID >= startID {
			out = append(out, m)
		}
	}
	return out
}

// threadedView performs a pre-order DFS over the forest: each message is
// emitted immediately before its reply subtree.
func threadedView(roots []*Message) []*Message {
	var out []*Message
	var walk func(*Message)
	walk = func(m *Message) {
		out = append(out, m)
		for _, r := range m.Replies {
			walk(r)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return out
}
