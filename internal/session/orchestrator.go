package session

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/thruflo/ranker/internal/logging"
	"github.com/thruflo/ranker/internal/pubsub"
	"github.com/thruflo/ranker/internal/stream"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("session closed")

// Opener opens the event stream for one request.
type Opener interface {
	Open(ctx context.Context, req stream.AnalysisRequest) (stream.EventReader, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, req stream.AnalysisRequest) (stream.EventReader, error)

func (f OpenerFunc) Open(ctx context.Context, req stream.AnalysisRequest) (stream.EventReader, error) {
	return f(ctx, req)
}

// ClientOpener opens streams with a backend client.
func ClientOpener(c *stream.Client) Opener {
	return OpenerFunc(func(ctx context.Context, req stream.AnalysisRequest) (stream.EventReader, error) {
		s, err := c.Open(ctx, req)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.log = logger
	}
}

// Orchestrator owns the session state.
type Orchestrator struct {
	opener Opener
	log    *logging.Logger

	// mu guards everything below. Transitions and their publication happen
	// under mu so subscribers see them in order.
	mu         sync.Mutex
	state      State
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	wg      sync.WaitGroup
	states  *pubsub.Broker[State]
	notices *pubsub.Broker[Notice]
}

// New creates an idle Orchestrator.
func New(opener Opener, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		opener:  opener,
		log:     logging.Default(),
		states:  pubsub.NewBroker[State](),
		notices: pubsub.NewBroker[Notice](),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "session")
	return o
}

// Start makes req the current request and returns its generation. An invalid
// request is rejected without touching state. Any request already in flight is
// abandoned: its stream is canceled on a best-effort basis and whatever it still
// delivers is discarded. ctx bounds the lifetime of the new stream.
func (o *Orchestrator) Start(ctx context.Context, req stream.AnalysisRequest) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return 0, ErrClosed
	}

	if o.state.Status.Active() {
		o.log.Info("superseding in-flight request", "generation", o.generation, "request", o.state.Request.ID)
	}
	o.abandonLocked()
	o.generation++
	gen := o.generation

	streamCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.setLocked(State{Status: StatusRequesting, Generation: gen, Request: &req})

	o.wg.Add(1)
	go o.consume(streamCtx, gen, req)
	return gen, nil
}

// Reset returns to Idle from any state and invalidates the current generation.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.abandonLocked()
	o.generation++
	o.setLocked(State{Status: StatusIdle, Generation: o.generation})
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Generation returns the current generation.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Subscribe streams every subsequent transition until ctx is done or the
// orchestrator is closed.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan pubsub.Event[State] {
	return o.states.Subscribe(ctx)
}

// Notices streams one Notice per completed or failed request.
func (o *Orchestrator) Notices(ctx context.Context) <-chan pubsub.Event[Notice] {
	return o.notices.Subscribe(ctx)
}

// Await blocks until generation gen reaches a terminal state. It returns
// stream.ErrSuperseded if a newer Start or a Reset replaced gen first.
func (o *Orchestrator) Await(ctx context.Context, gen uint64) (State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe before reading the snapshot so no transition falls in between.
	updates := o.Subscribe(ctx)
	if st, done, err := settled(o.State(), gen); done {
		return st, err
	}

	for {
		select {
		case <-ctx.Done():
			return o.State(), ctx.Err()
		case ev, ok := <-updates:
			if !ok {
				return o.State(), ErrClosed
			}
			if st, done, err := settled(ev.Payload, gen); done {
				return st, err
			}
		}
	}
}

func settled(st State, gen uint64) (State, bool, error) {
	switch {
	case st.Generation > gen:
		return st, true, stream.ErrSuperseded
	case st.Generation == gen && st.Status.Terminal():
		return st, true, nil
	default:
		return st, false, nil
	}
}

// Close abandons any in-flight request, waits for its consumer to exit, and
// closes every subscription.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.abandonLocked()
	o.generation++
	o.mu.Unlock()

	o.wg.Wait()
	o.states.Shutdown()
	o.notices.Shutdown()
}

func (o *Orchestrator) consume(ctx context.Context, gen uint64, req stream.AnalysisRequest) {
	defer o.wg.Done()
	log := o.log.With("generation", gen).With("request", req.ID)

	s, err := o.opener.Open(ctx, req)
	if err != nil {
		o.fail(gen, req, err)
		return
	}
	defer s.Close()

	for {
		ev, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Only reachable if the reader ends without a completion event.
				err = &stream.TransportError{Op: "read", Err: io.ErrUnexpectedEOF}
			}
			o.fail(gen, req, err)
			return
		}
		if err := o.apply(gen, req, ev); err != nil {
			if errors.Is(err, stream.ErrSuperseded) {
				log.Debug("discarding event from superseded request", "type", ev.Type)
			}
			return
		}
	}
}

// errStop ends consumption after a terminal event.
var errStop = errors.New("stream finished")

// apply folds one event into state. It returns stream.ErrSuperseded when gen is
// stale and errStop after completion.
func (o *Orchestrator) apply(gen uint64, req stream.AnalysisRequest, ev stream.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		return stream.ErrSuperseded
	}

	switch ev.Type {
	case stream.EventTypeProgress:
		p := *ev.Progress
		o.setLocked(State{Status: StatusStreaming, Generation: gen, Request: &req, Progress: &p})
		return nil

	case stream.EventTypeComplete:
		items := slices.Clone(ev.Completion.Items)
		o.setLocked(State{Status: StatusCompleted, Generation: gen, Request: &req, Items: items})
		o.abandonLocked()
		o.log.Info("analysis complete", "generation", gen, "items", len(items))
		o.notices.Publish(pubsub.EventTypeCreated, Notice{
			Generation: gen,
			Status:     StatusCompleted,
			Request:    req,
			Count:      len(items),
		})
		return errStop

	default:
		// Error events never reach here; the stream turns them into errors.
		return nil
	}
}

func (o *Orchestrator) fail(gen uint64, req stream.AnalysisRequest, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.log.Debug("discarding failure from superseded request", "generation", gen, "error", err)
		return
	}

	if !stream.IsTransportError(err) {
		err = &stream.TransportError{Op: "connect", Err: err}
	}
	o.setLocked(State{Status: StatusFailed, Generation: gen, Request: &req, Err: err})
	o.abandonLocked()
	o.log.Info("analysis failed", "generation", gen, "error", err)
	o.notices.Publish(pubsub.EventTypeCreated, Notice{
		Generation: gen,
		Status:     StatusFailed,
		Request:    req,
		Err:        err,
	})
}

func (o *Orchestrator) setLocked(st State) {
	o.state = st
	o.log.Debug("session transition", "status", st.Status, "generation", st.Generation,
		"subscribers", o.states.GetSubscriberCount())
	o.states.Publish(pubsub.EventTypeUpdated, st)
}

// abandonLocked cancels the in-flight stream, if any.
func (o *Orchestrator) abandonLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}
