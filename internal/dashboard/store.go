package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Upload is the raw file a browser session uploaded. Only the bytes are kept;
// every render cycle parses them again into a fresh table.
type Upload struct {
	ID       string
	Filename string
	Data     []byte
	Created  time.Time
}

// Store keeps at most max uploads in memory and evicts the oldest first.
type Store struct {
	mu    sync.Mutex
	max   int
	items map[string]*Upload
	order []string
	now   func() time.Time
}

// NewStore returns an empty store. max below 1 is treated as 1.
func NewStore(max int) *Store {
	if max < 1 {
		max = 1
	}
	return &Store{
		max:   max,
		items: make(map[string]*Upload, max+1),
		order: make([]string, 0, max+1),
		now:   time.Now,
	}
}

// Put stores an upload under a new session id.
func (s *Store) Put(filename string, data []byte) *Upload {
	u := &Upload{
		ID:       uuid.NewString(),
		Filename: filename,
		Data:     data,
		Created:  s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[u.ID] = u
	s.order = append(s.order, u.ID)
	if n := len(s.order) - s.max; n > 0 {
		for _, id := range s.order[:n] {
			delete(s.items, id)
		}
		// Copy down so order keeps reusing its max+1 backing array.
		s.order = s.order[:copy(s.order, s.order[n:])]
	}
	return u
}

// Get returns the upload for a session id.
func (s *Store) Get(id string) (*Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	return u, ok
}

// Len reports the number of stored uploads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
