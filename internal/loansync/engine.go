package loansync

import (
	"go.uber.org/zap"
)

// Engine wires the three components over one set of stores.
type Engine struct {
	*Synchronizer
	*Propagator
	*Recalculator
}

// New creates an Engine.
func New(stores Stores, converter AmountConverter, cfg Config, log *zap.SugaredLogger) *Engine {
	recalc := NewRecalculator(stores, stores, converter, cfg, log)
	return &Engine{
		Synchronizer: NewSynchronizer(stores, stores, log),
		Propagator:   NewPropagator(stores, stores, stores, recalc, log),
		Recalculator: recalc,
	}
}
