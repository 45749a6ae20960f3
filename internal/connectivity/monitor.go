package connectivity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Monitor combines interface path events with a reachability probe and
// publishes the result to subscribers.
type Monitor struct {
	source PathSource
	prober Prober
	logger zerolog.Logger

	mu          sync.RWMutex
	state       State
	seq         uint64
	probeCancel context.CancelFunc

	updates   chan State
	ready     chan struct{}
	readyOnce sync.Once
	startOnce sync.Once

	subMu          sync.Mutex
	subs           map[int]*subscriber[bool]
	stateSubs      map[int]*subscriber[State]
	nextSubID      int
	delivered      bool
	deliveredState State
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the transition logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// New builds a monitor. It does nothing until Start.
func New(source PathSource, prober Prober, opts ...Option) *Monitor {
	m := &Monitor{
		source:    source,
		prober:    prober,
		logger:    zerolog.Nop(),
		state:     initialState,
		updates:   make(chan State, 16),
		ready:     make(chan struct{}),
		subs:      make(map[int]*subscriber[bool]),
		stateSubs: make(map[int]*subscriber[State]),
		delivered: initialState.Connected,

		deliveredState: initialState,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start consumes path events until ctx is done. Calling it twice has no effect.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		go m.dispatch(ctx)
		go m.run(ctx)
	})
}

// Current returns the latest published state.
func (m *Monitor) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected reports the latest published connectivity.
func (m *Monitor) IsConnected() bool {
	return m.Current().Connected
}

// Kind reports the latest published interface kind.
func (m *Monitor) Kind() Kind {
	return m.Current().Kind
}

// Ready is closed once the first state after Start has been published.
func (m *Monitor) Ready() <-chan struct{} {
	return m.ready
}

func (m *Monitor) run(ctx context.Context) {
	events := m.source.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			m.cancelProbe()
			return
		case path, ok := <-events:
			if !ok {
				m.cancelProbe()
				return
			}
			m.handle(ctx, path)
		}
	}
}

// handle supersedes any in-flight probe and starts a new one when the path
// is satisfied.
func (m *Monitor) handle(ctx context.Context, path Path) {
	m.mu.Lock()
	if m.probeCancel != nil {
		m.probeCancel()
		m.probeCancel = nil
	}
	m.seq++
	seq := m.seq

	if !path.Satisfied {
		m.mu.Unlock()
		m.logger.Debug().Msg("no satisfied interface")
		m.publish(ctx, seq, State{Connected: false, Kind: KindDisconnected})
		return
	}

	probeCtx, cancel := context.WithCancel(ctx)
	m.probeCancel = cancel
	m.mu.Unlock()

	go func() {
		defer cancel()
		ok := m.prober.Probe(probeCtx)
		switch {
		case probeCtx.Err() != nil:
			recordProbe("cancelled")
			return
		case ok:
			recordProbe("reachable")
		default:
			recordProbe("unreachable")
			m.logger.Debug().Str("kind", path.Kind.String()).Msg("reachability probe failed")
		}
		state := State{Connected: ok, Kind: path.Kind}
		if !ok {
			state.Kind = KindDisconnected
		}
		m.publish(ctx, seq, state)
	}()
}

func (m *Monitor) cancelProbe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.probeCancel != nil {
		m.probeCancel()
		m.probeCancel = nil
	}
}

// publish stores state unless a newer event superseded seq.
func (m *Monitor) publish(ctx context.Context, seq uint64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.seq {
		return
	}
	m.state = state
	recordState(state)
	m.readyOnce.Do(func() { close(m.ready) })

	// Sent under mu so updates keep seq order.
	select {
	case m.updates <- state:
	case <-ctx.Done():
	}
}

// dispatch is the single delivery goroutine. Flag subscribers see changes of
// the connected flag and state subscribers see changes of the whole state,
// both in publish order without repeats.
func (m *Monitor) dispatch(ctx context.Context) {
	defer m.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-m.updates:
			m.subMu.Lock()
			if state == m.deliveredState {
				m.subMu.Unlock()
				continue
			}
			m.deliveredState = state
			for _, sub := range m.stateSubs {
				sub.push(state)
			}
			flagChanged := state.Connected != m.delivered
			if flagChanged {
				m.delivered = state.Connected
				for _, sub := range m.subs {
					sub.push(state.Connected)
				}
			}
			m.subMu.Unlock()

			if flagChanged {
				m.logger.Info().
					Bool("connected", state.Connected).
					Str("kind", state.Kind.String()).
					Msg("connectivity changed")
			} else {
				m.logger.Debug().Str("kind", state.Kind.String()).Msg("interface changed")
			}
		}
	}
}

// Subscribe returns a channel of connected flags starting with the current
// value. A slow reader never blocks the monitor: pending values are
// coalesced so the reader never sees the same flag twice in a row and always
// ends on the latest one. The channel is closed by cancel or when the
// monitor stops.
func (m *Monitor) Subscribe(buffer int) (<-chan bool, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return subscribe(m, m.subs, buffer, m.delivered)
}

// SubscribeState is Subscribe for the full state, so interface kind changes
// that keep the flag unchanged are delivered too.
func (m *Monitor) SubscribeState(buffer int) (<-chan State, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return subscribe(m, m.stateSubs, buffer, m.deliveredState)
}

// subscribe registers a subscriber in subs. Called with subMu held.
func subscribe[T comparable](m *Monitor, subs map[int]*subscriber[T], buffer int, current T) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber[T]{ch: make(chan T, buffer)}
	id := m.nextSubID
	m.nextSubID++
	sub.push(current)
	subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			if s, ok := subs[id]; ok {
				delete(subs, id)
				close(s.ch)
			}
		})
	}
	return sub.ch, cancel
}

func (m *Monitor) closeAll() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for id, sub := range m.subs {
		delete(m.subs, id)
		close(sub.ch)
	}
	for id, sub := range m.stateSubs {
		delete(m.stateSubs, id)
		close(sub.ch)
	}
}

// subscriber is one buffered delivery channel. recent holds the values
// enqueued since the channel was last drained, so that after a drain the
// value the reader last received is known.
type subscriber[T comparable] struct {
	ch      chan T
	recent  []T
	last    T
	hasLast bool
}

// push never blocks. Only called with subMu held. When the buffer is full the
// pending values are drained; v is then enqueued only if it differs from the
// value the reader last received.
func (s *subscriber[T]) push(v T) {
	select {
	case s.ch <- v:
		s.remember(v)
		return
	default:
	}

	drained := 0
drain:
	for {
		select {
		case <-s.ch:
			drained++
		default:
			break drain
		}
	}
	if read := len(s.recent) - drained; read > 0 {
		s.last = s.recent[read-1]
		s.hasLast = true
	}
	s.recent = s.recent[:0]
	if s.hasLast && s.last == v {
		return
	}
	s.ch <- v
	s.remember(v)
}

func (s *subscriber[T]) remember(v T) {
	s.recent = append(s.recent, v)
	if limit := cap(s.ch) + 1; len(s.recent) > limit {
		s.recent = append(s.recent[:0], s.recent[len(s.recent)-limit:]...)
	}
}
