package wemit

import "github.com/sirupsen/logrus"

// Option configures an Emitter created with New.
type Option func(*Emitter)

// WithLogger sets the logger used for emission tracing. Emissions are logged
// at debug level, repeated continuation calls at warn level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Emitter) {
		e.log = log
	}
}
