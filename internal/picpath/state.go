package picpath

import "sync"

// Observable is a read-only view of a value that changes over time.
type Observable[T any] interface {
	// Get returns the current value.
	Get() T

	// Subscribe returns a channel that receives the current value right away
	// and every later value. A subscriber that falls behind only sees the
	// latest value. The returned func unsubscribes and closes the channel;
	// it is safe to call more than once.
	Subscribe() (<-chan T, func())
}

// State holds a value and pushes every change to its subscribers.
// Values are delivered as-is, so callers must not mutate slices or maps
// after handing them to Set.
type State[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]chan T
	next  int
}

// NewState creates a State holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial, subs: make(map[int]chan T)}
}

func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and notifies every subscriber.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(v)
}

// Update applies fn to the current value under the state's lock, stores and
// publishes the result, and returns it.
func (s *State[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := fn(s.value)
	s.setLocked(v)
	return v
}

func (s *State[T]) setLocked(v T) {
	s.value = v
	for _, ch := range s.subs {
		offerLatest(ch, v)
	}
}

func (s *State[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	ch <- s.value
	id := s.next
	s.next++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// offerLatest puts v into a one-slot channel, evicting a value the
// subscriber has not read yet. Only called with the owning state's lock
// held, so no other sender competes for the slot.
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

var _ Observable[int] = (*State[int])(nil)
