package router

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vango-dev/routestate/pkg/route"
)

// Import sources reported to an Observer.
const (
	SourceURL   = "url"
	SourceState = "state"
)

// ErrNilRoot is returned by New when no route tree is given.
var ErrNilRoot = errors.New("router: nil root route")

// Snapshot is the URL and state of the tree at one point in time.
type Snapshot struct {
	URL   string       `json:"url"`
	State *route.State `json:"state"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{URL: s.URL, State: s.State.Clone()}
}

// Listener receives the new snapshot after an import changed the state.
type Listener func(Snapshot)

// Observer is notified about every import. It is called with the router
// lock released.
type Observer interface {
	ObserveImport(source string, d time.Duration, changed bool, err error)
}

// Router owns a route tree and serializes access to it.
type Router struct {
	mu   sync.Mutex
	root *route.Node
	last Snapshot

	seq       uint64
	listeners map[uint64]*subscriber
	nextID    uint64

	logger   *slog.Logger
	observer Observer
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports every import to o.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// New creates a Router for a fully built tree. The tree is validated with
// route.Validate, and must not be modified through other references
// afterwards.
func New(root *route.Node, opts ...Option) (*Router, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if err := route.Validate(root); err != nil {
		return nil, err
	}

	r := &Router{
		root:      root,
		listeners: make(map[uint64]*subscriber),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "router")
	r.last = r.snapshotLocked()

	return r, nil
}

// URL returns the current URL.
func (r *Router) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.URL
}

// State returns a copy of the current state.
func (r *Router) State() *route.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.State.Clone()
}

// Snapshot returns a copy of the current URL and state.
func (r *Router) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last.clone()
}

// SetURL imports url and returns the resulting snapshot. The snapshot's URL
// is the normalized form of url. Unknown path segments are not an error;
// they deactivate the routes below them.
func (r *Router) SetURL(url string) Snapshot {
	start := time.Now()

	r.mu.Lock()
	r.root.SetURL(url)
	snap, seq, changed, subs := r.commitLocked()
	r.mu.Unlock()

	r.logger.Debug("url applied", "url", url, "canonical", snap.URL, "changed", changed)
	r.finish(SourceURL, start, snap, seq, changed, subs, nil)
	return snap
}

// SetState imports state and returns the resulting snapshot. A state that
// does not fit the tree is rejected with a *route.MalformedStateError and
// the tree is left unchanged.
func (r *Router) SetState(state *route.State) (Snapshot, error) {
	start := time.Now()

	r.mu.Lock()
	if err := r.root.SetState(state); err != nil {
		snap := r.last.clone()
		r.mu.Unlock()

		r.logger.Warn("state rejected", "error", err)
		r.finish(SourceState, start, snap, 0, false, nil, err)
		return snap, err
	}
	snap, seq, changed, subs := r.commitLocked()
	r.mu.Unlock()

	r.logger.Debug("state applied", "canonical", snap.URL, "changed", changed)
	r.finish(SourceState, start, snap, seq, changed, subs, nil)
	return snap, nil
}

// Subscribe registers fn to be called after every import that changes the
// state. Listeners run on an importing goroutine, in subscription order,
// after the lock is released.
//
// Calls to one listener never overlap and follow commit order. When imports
// race, a listener may skip intermediate snapshots, but the last snapshot it
// receives is always the router's current one. The returned function
// removes fn.
func (r *Router) Subscribe(fn Listener) (cancel func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = &subscriber{fn: fn}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// Inspect calls fn with the route tree while holding the lock. fn must not
// modify the tree or call back into r.
func (r *Router) Inspect(fn func(root *route.Node)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.root)
}

func (r *Router) snapshotLocked() Snapshot {
	return Snapshot{URL: r.root.URL(), State: r.root.State()}
}

// commitLocked recomputes the snapshot after an import. It returns a copy
// safe to hand out, its commit sequence, whether the state changed, and the
// subscribers to notify.
func (r *Router) commitLocked() (Snapshot, uint64, bool, []*subscriber) {
	snap := r.snapshotLocked()
	changed := !snap.State.Equal(r.last.State)
	r.last = snap
	if !changed {
		return snap.clone(), r.seq, false, nil
	}
	r.seq++

	ids := make([]uint64, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	subs := make([]*subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, r.listeners[id])
	}
	return snap.clone(), r.seq, true, subs
}

func (r *Router) finish(source string, start time.Time, snap Snapshot, seq uint64, changed bool, subs []*subscriber, err error) {
	if r.observer != nil {
		r.observer.ObserveImport(source, time.Since(start), changed, err)
	}
	for _, sub := range subs {
		sub.deliver(seq, snap)
	}
}

// subscriber serializes calls to one listener. A goroutine that finds a
// delivery in progress leaves its snapshot as pending and returns; the
// running goroutine delivers the newest pending snapshot before it stops.
// This also keeps a listener that imports from inside its own callback
// from deadlocking.
type subscriber struct {
	fn Listener

	mu        sync.Mutex
	running   bool
	delivered uint64
	pending   uint64
	next      Snapshot
}

func (s *subscriber) deliver(seq uint64, snap Snapshot) {
	s.mu.Lock()
	if seq <= s.delivered || seq <= s.pending {
		s.mu.Unlock()
		return
	}
	s.pending, s.next = seq, snap
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true

	for s.pending > s.delivered {
		seq, snap := s.pending, s.next
		s.delivered = seq
		s.next = Snapshot{}
		s.mu.Unlock()

		s.fn(snap.clone())

		s.mu.Lock()
	}
	s.running = false
	s.mu.Unlock()
}
