// Package wemit implements a weighted event emitter. Listeners are registered
// against an event name with an integer weight, and emitting the event runs
// every listener one at a time in ascending weight order, threading a single
// shared Response through all of them.
//
// # Register listeners
//
// A listener receives the shared response and a continuation that it must
// call to let the next listener run:
//
//	e := wemit.New()
//	e.On("save", wemit.Func(func(ctx context.Context, res *wemit.Response, next wemit.Next) {
//	    res.Result = []string{"hello"}
//	    next(nil)
//	}), -10)
//
// Lower weights run first. Listeners that share a weight run in the order they
// were registered. Keep the value returned by Func around if the listener
// needs to be removed later with Un, since listeners are matched by identity.
//
// # Emit events
//
// Emit reports the outcome through an error-first completion callback:
//
//	e.EmitWith(ctx, "save", map[string]any{"id": 42}, func(err error, result any) {
//	    fmt.Println(result) // [hello]
//	})
//
// Calling next with an error, or panicking inside a listener before next was
// called, stops the emission. The remaining listeners are skipped and the
// error is passed to the completion callback as is. Listeners may call next
// later from another goroutine; the following listener only starts once they
// do.
//
// EmitWait blocks until the completion callback fires:
//
//	result, err := e.EmitWait(ctx, "save", nil)
package wemit
