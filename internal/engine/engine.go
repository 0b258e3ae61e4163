// Package engine implements the order and table lifecycle rules of the POS.
// Commands run as single store units of work and publish their events only
// after the unit of work commits.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/config"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
)

// Options are the business rule switches of the engine
type Options struct {
	TaxRate                 decimal.Decimal
	StrictQuantity          bool
	ApplyDiscounts          bool
	FreeTableOnCancel       bool
	CompleteOrderOnDelivery bool
	DefaultEstimate         string
	EnforceCapacity         bool
	DetectOverlap           bool
	BcryptCost              int
}

// DefaultOptions returns the options matching config.Default
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Engine)
}

// OptionsFromConfig maps the engine config section onto Options
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		TaxRate:                 decimal.NewFromFloat(cfg.TaxRate),
		StrictQuantity:          cfg.Cart.StrictQuantity,
		ApplyDiscounts:          cfg.Cart.ApplyDiscounts,
		FreeTableOnCancel:       cfg.Orders.FreeTableOnCancel,
		CompleteOrderOnDelivery: cfg.Delivery.CompleteOrderOnDelivery,
		DefaultEstimate:         cfg.Delivery.DefaultEstimate,
		EnforceCapacity:         cfg.Reservations.EnforceCapacity,
		DetectOverlap:           cfg.Reservations.DetectOverlap,
		BcryptCost:              cfg.Users.BcryptCost,
	}
}

// Notifier receives events after a command commits
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// Recorder receives domain measurements
type Recorder interface {
	OrderPlaced(mode models.DiningMode)
	OrderTransitioned(status models.OrderStatus)
	LedgerRecorded(txType models.TransactionType, amount decimal.Decimal)
	CommandFailed(code string)
}

type nopRecorder struct{}

func (nopRecorder) OrderPlaced(models.DiningMode)                          {}
func (nopRecorder) OrderTransitioned(models.OrderStatus)                   {}
func (nopRecorder) LedgerRecorded(models.TransactionType, decimal.Decimal) {}
func (nopRecorder) CommandFailed(string)                                   {}

// Engine is the POS command and query surface
type Engine struct {
	store     store.Store
	opts      Options
	log       *logger.Logger
	notifiers []Notifier
	metrics   Recorder
	now       func() time.Time
	newID     func() string
	carts     *Carts
}

// Option configures an Engine
type Option func(*Engine)

// WithNotifier adds an event sink
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifiers = append(e.notifiers, n) }
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides uuid generation
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over s
func New(s store.Store, opts Options, log *logger.Logger, options ...Option) *Engine {
	e := &Engine{
		store:   s,
		opts:    opts,
		log:     log,
		metrics: nopRecorder{},
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, o := range options {
		o(e)
	}
	e.carts = NewCarts(e.newCartOptions(), e.newID)
	return e
}

// Options returns the active rule switches
func (e *Engine) Options() Options {
	return e.opts
}

// Carts returns the session cart registry
func (e *Engine) Carts() *Carts {
	return e.carts
}

// NewCart creates an unregistered cart using the engine's rules
func (e *Engine) NewCart() *Cart {
	return NewCart(e.newCartOptions())
}

func (e *Engine) newCartOptions() CartOptions {
	return CartOptions{
		TaxRate:        e.opts.TaxRate,
		StrictQuantity: e.opts.StrictQuantity,
		ApplyDiscounts: e.opts.ApplyDiscounts,
	}
}

// view runs a query
func (e *Engine) view(ctx context.Context, fn func(r store.Repos) error) error {
	if err := e.store.View(ctx, fn); err != nil {
		return classify(err)
	}
	return nil
}

// update runs a command and, once it commits, publishes the events it produced
func (e *Engine) update(ctx context.Context, action string, fn func(r store.Repos) ([]models.Event, error)) error {
	requestID := logger.RequestIDFromContext(ctx)

	var events []models.Event
	err := e.store.Update(ctx, func(r store.Repos) error {
		var err error
		events, err = fn(r)
		return err
	})
	if err != nil {
		err = classify(err)
		e.metrics.CommandFailed(apperr.CodeOf(err))
		if apperr.KindOf(err) == apperr.Internal {
			e.log.Error(action+"_failed", "Command failed", requestID, err, nil)
		} else {
			e.log.Debug(action+"_rejected", err.Error(), requestID, map[string]interface{}{"code": apperr.CodeOf(err)})
		}
		return err
	}

	e.log.Debug(action, "Command applied", requestID, map[string]interface{}{"events": len(events)})
	for _, ev := range events {
		ev.RequestID = requestID
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = e.now()
		}
		for _, n := range e.notifiers {
			if err := n.Notify(ctx, ev); err != nil {
				e.log.Warn("event_publish_failed", "Failed to publish event", requestID, map[string]interface{}{
					"event": string(ev.Type),
					"error": err.Error(),
				})
			}
		}
	}
	return nil
}

// classify leaves engine errors alone and marks everything else Internal
func classify(err error) error {
	var target *apperr.Error
	if errors.As(err, &target) {
		return err
	}
	return apperr.InternalError("store operation failed", err)
}
