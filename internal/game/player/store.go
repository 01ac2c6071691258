package player

import (
	"sync"

	"go.uber.org/zap"
)

// Store holds the current player State and applies dispatched intents through Reduce.
// All methods are safe for concurrent use.
type Store struct {
	logger *zap.Logger

	mu          sync.Mutex
	state       State
	subscribers map[chan<- State]struct{}
}

// NewStore returns a Store starting at Initial().
//
// Precondition: logger must be non-nil.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		panic("player.NewStore: logger must not be nil")
	}
	return &Store{
		logger:      logger,
		state:       Initial(),
		subscribers: make(map[chan<- State]struct{}),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies intent and returns the new snapshot. Subscribers receive the
// new snapshot without blocking; a full subscriber channel drops the update.
// Snapshots are delivered in dispatch order, even across goroutines.
func (s *Store) Dispatch(intent Intent) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Reduce(s.state, intent)
	s.state = next

	if intent.Kind == IntentUnknown || intent.Kind > IntentReset {
		s.logger.Debug("ignoring unknown intent", zap.Int("kind", int(intent.Kind)))
	} else {
		s.logger.Debug("intent applied",
			zap.Stringer("intent", intent.Kind),
			zap.Int("health", next.Health),
			zap.Int("ammo", next.Ammo),
			zap.Int("score", next.Score),
		)
	}

	for ch := range s.subscribers {
		select {
		case ch <- next:
		default:
		}
	}
	return next
}

// Subscribe registers ch to receive every new snapshot.
//
// Precondition: ch must not be nil.
func (s *Store) Subscribe(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (s *Store) Unsubscribe(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, ch)
}
