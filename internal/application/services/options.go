package services

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
)

type options struct {
	now        func() time.Time
	bcryptCost int
	metrics    *metrics.Metrics
}

// Option customises a service
type Option func(*options)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBcryptCost sets the cost used when hashing passwords
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// WithMetrics records domain counters on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// timestamp returns the current time in the form it is stored
func (o options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Microsecond)
}

func (o options) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), o.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
