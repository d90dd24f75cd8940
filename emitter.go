package wemit

import (
	"context"
	"io"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/nkcmr/wemit/internal/series"
	"github.com/nkcmr/wemit/internal/stable"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultWeight is the weight to register a listener with when it has no
// particular ordering requirements.
const DefaultWeight = 0

// ErrListenerPanic is wrapped into the emission error when a listener panics
// with a value that is not itself an error.
var ErrListenerPanic = errors.New("wemit: listener panicked")

// Next lets the emission continue with the next listener. A non-nil error
// stops the emission.
type Next func(err error)

// Done is called once per emission with either the first listener error or
// the final value of Response.Result.
type Done func(err error, result any)

// Response is shared by every listener run for a single emission.
type Response struct {
	// Args is whatever the caller emitted with. The emitter never changes it.
	Args any
	// Result starts out nil and is handed to Done once every listener has
	// continued without error.
	Result any

	values map[string]any
}

// Set attaches an extra value to the response for later listeners.
func (r *Response) Set(key string, value any) {
	if r.values == nil {
		r.values = map[string]any{}
	}
	r.values[key] = value
}

// Get returns a value attached with Set.
func (r *Response) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Listener handles an emitted event. Handle must eventually call next exactly
// once, either before returning or later from any goroutine.
type Listener interface {
	Handle(ctx context.Context, res *Response, next Next)
}

type funcListener struct {
	fn func(ctx context.Context, res *Response, next Next)
}

func (f *funcListener) Handle(ctx context.Context, res *Response, next Next) {
	f.fn(ctx, res, next)
}

// Func turns a function into a Listener. Every call returns a new listener,
// so the returned value is what must be passed to Un to remove it.
func Func(fn func(ctx context.Context, res *Response, next Next)) Listener {
	return &funcListener{fn: fn}
}

// Registration is a listener stored against an event.
type Registration struct {
	Listener Listener
	Weight   int
}

// Emitter keeps per-event listener lists ordered by weight. The zero value is
// ready to use.
type Emitter struct {
	l sync.RWMutex

	listeners map[string][]Registration
	log       logrus.FieldLogger
}

// New creates an Emitter.
func New(opts ...Option) *Emitter {
	e := new(Emitter)
	for _, opt := range opts {
		opt(e)
	}
	e.init()
	return e
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (e *Emitter) init() {
	if e.listeners == nil {
		e.listeners = map[string][]Registration{}
	}
	if e.log == nil {
		e.log = discard
	}
}

var globalEmitter = new(Emitter)

// On registers a listener on the default emitter.
func On(event string, listener Listener, weight int) *Emitter {
	return globalEmitter.On(event, listener, weight)
}

// Un removes listeners from the default emitter.
func Un(event string, listener Listener) *Emitter {
	return globalEmitter.Un(event, listener)
}

// Emit emits an event without arguments on the default emitter.
func Emit(ctx context.Context, event string, done Done) *Emitter {
	return globalEmitter.Emit(ctx, event, done)
}

// EmitWith emits an event with arguments on the default emitter.
func EmitWith(ctx context.Context, event string, args any, done Done) *Emitter {
	return globalEmitter.EmitWith(ctx, event, args, done)
}

// EmitWait emits an event on the default emitter and waits for the outcome.
func EmitWait(ctx context.Context, event string, args any) (any, error) {
	return globalEmitter.EmitWait(ctx, event, args)
}

// On registers listener for event. Listeners run in ascending weight order,
// and listeners with the same weight run in registration order. Registering
// the same listener again adds a second, independent registration.
func (e *Emitter) On(event string, listener Listener, weight int) *Emitter {
	if listener == nil {
		return e
	}

	e.l.Lock()
	defer e.l.Unlock()
	e.init()

	regs := append(e.listeners[event], Registration{Listener: listener, Weight: weight})
	stable.SortByKey(regs, func(r Registration) int { return r.Weight })
	e.listeners[event] = regs
	return e
}

// Un removes every registration of listener for event. A nil listener removes
// all of the event's listeners. Unknown events are ignored.
func (e *Emitter) Un(event string, listener Listener) *Emitter {
	e.l.Lock()
	defer e.l.Unlock()

	regs, ok := e.listeners[event]
	if !ok {
		return e
	}

	if listener == nil {
		delete(e.listeners, event)
		return e
	}

	kept := make([]Registration, 0, len(regs))
	for _, r := range regs {
		if sameListener(r.Listener, listener) {
			continue
		}
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		delete(e.listeners, event)
		return e
	}
	e.listeners[event] = kept
	return e
}

func sameListener(a, b Listener) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// Listeners returns a copy of the listener table, keyed by event name. Changes
// to the returned map do not affect the emitter.
func (e *Emitter) Listeners() map[string][]Registration {
	e.l.RLock()
	defer e.l.RUnlock()

	out := make(map[string][]Registration, len(e.listeners))
	for event, regs := range e.listeners {
		out[event] = slices.Clone(regs)
	}
	return out
}

// Emit is EmitWith with an empty argument map.
func (e *Emitter) Emit(ctx context.Context, event string, done Done) *Emitter {
	return e.EmitWith(ctx, event, map[string]any{}, done)
}

// EmitWith runs the listeners registered for event, in order, with a fresh
// Response carrying args. done is called with the first listener error, or
// with the final Response.Result once all listeners have continued. If the
// event has no listeners done is called with (nil, nil) before EmitWith
// returns.
//
// The listeners of the event are captured when EmitWith is called; registering
// or removing listeners while an emission is in flight does not change which
// listeners that emission runs.
func (e *Emitter) EmitWith(ctx context.Context, event string, args any, done Done) *Emitter {
	if done == nil {
		done = func(error, any) {}
	}

	e.l.RLock()
	regs := slices.Clone(e.listeners[event])
	log := e.log
	e.l.RUnlock()
	if log == nil {
		log = discard
	}

	if len(regs) == 0 {
		done(nil, nil)
		return e
	}

	log = log.WithFields(logrus.Fields{
		"event":     event,
		"emission":  uuid.NewString(),
		"listeners": len(regs),
	})
	log.Debug("emitting event")

	res := &Response{Args: args}
	tasks := make([]series.Task, len(regs))
	for i, r := range regs {
		tasks[i] = listenerTask(log, res, r.Listener)
	}

	runner := series.Runner{
		OnRepeat: func(index int) {
			log.WithField("index", index).Warn("listener called next more than once")
		},
	}
	runner.Run(ctx, tasks, func(err error) {
		if err != nil {
			log.WithError(err).Debug("emission failed")
			done(err, nil)
			return
		}
		log.Debug("emission completed")
		done(nil, res.Result)
	})
	return e
}

// EmitWait emits event and blocks until the emission completes or ctx is done.
// When ctx ends first the emission keeps running in the background and its
// outcome is dropped.
func (e *Emitter) EmitWait(ctx context.Context, event string, args any) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	ch := make(chan outcome, 1)
	e.EmitWith(ctx, event, args, func(err error, result any) {
		ch <- outcome{result: result, err: err}
	})

	select {
	case o := <-ch:
		return o.result, o.err
	default:
	}

	select {
	case o := <-ch:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func listenerTask(log logrus.FieldLogger, res *Response, listener Listener) series.Task {
	return func(ctx context.Context, next func(error)) {
		var continued atomic.Bool
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			// once next has been called the panic belongs to someone else
			if continued.Load() {
				panic(v)
			}
			err := panicError(v)
			log.WithError(err).Debug("recovered listener panic")
			next(err)
		}()

		listener.Handle(ctx, res, func(err error) {
			continued.Store(true)
			next(err)
		})
	}
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return errors.Wrapf(ErrListenerPanic, "%v", v)
}
