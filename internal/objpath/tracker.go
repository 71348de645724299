package objpath

// ----------------------------------------------------------------------------
// Recursion Tracker
// ----------------------------------------------------------------------------

type trackerKey struct {
	entity any
	path   string
}

// Tracker detects re-entrant queries on the same (entity, path) pair.
//
// One tracker is shared by every query of an analysis pass. It must never be
// a package-level variable: independent passes and tests each own one.
type Tracker struct {
	inFlight map[trackerKey]int
}

// NewTracker creates an empty recursion tracker.
func NewTracker() *Tracker {
	return &Tracker{inFlight: make(map[trackerKey]int)}
}

// WithTracking runs compute unless (entity, path) is already being computed,
// in which case ifTracked is returned immediately. The pair is always
// released again, even if compute panics.
func WithTracking[T any](t *Tracker, entity any, path Path, compute func() T, ifTracked T) T {
	key := trackerKey{entity, path.hashKey()}
	if t.inFlight[key] > 0 {
		return ifTracked
	}
	t.inFlight[key]++
	defer func() {
		if t.inFlight[key]--; t.inFlight[key] == 0 {
			delete(t.inFlight, key)
		}
	}()
	return compute()
}

// ----------------------------------------------------------------------------
// Entity Sets
// ----------------------------------------------------------------------------

type setKey struct {
	entity        any
	discriminator any
	path          string
}

// EntitySet remembers which (entity, path) pairs an effect query has already
// visited. Unlike Tracker, entries are never released: once an entity has
// been asked about a path within one effect context, asking again is
// answered "no additional effect".
type EntitySet struct {
	seen map[setKey]struct{}
}

// TrackAndCheck records the pair and returns true if it was already present.
// The discriminator separates otherwise equal entries, e.g. distinct call
// sites of the same function.
func (s *EntitySet) TrackAndCheck(path Path, entity any, discriminator any) bool {
	if s.seen == nil {
		s.seen = make(map[setKey]struct{})
	}
	key := setKey{entity, discriminator, path.hashKey()}
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

// Len returns the number of tracked pairs.
func (s *EntitySet) Len() int {
	return len(s.seen)
}
