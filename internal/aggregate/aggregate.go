// Package aggregate flattens registries into one ordered registration list.
package aggregate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sghaida/speedioc/di"
)

// Aggregator invokes registries and concatenates their registrations.
//
// It performs no validation and no override resolution.
type Aggregator struct {
	log *zap.Logger
}

// New returns an Aggregator. A nil logger disables logging.
func New(log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{log: log}
}

// Aggregate calls RegisterTypes exactly once on each registry, in order, each
// with a fresh Registrar, and returns the registrations in registry order then
// declaration order. Nil registries are skipped.
func (a *Aggregator) Aggregate(registries []di.Registry) ([]*di.Registration, error) {
	var out []*di.Registration
	for i, reg := range registries {
		if reg == nil {
			a.log.Debug("skipping nil registry", zap.Int("registry", i))
			continue
		}
		regs, err := invoke(reg)
		if err != nil {
			return nil, fmt.Errorf("registry %d (%T): %w", i, reg, err)
		}
		a.log.Debug("registry aggregated",
			zap.Int("registry", i),
			zap.String("type", fmt.Sprintf("%T", reg)),
			zap.Int("registrations", len(regs)),
		)
		out = append(out, regs...)
	}
	return out, nil
}

// invoke runs one registry and converts panics into errors.
func invoke(reg di.Registry) (regs []*di.Registration, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			regs = nil
			err = fmt.Errorf("%w: %v", di.ErrRegistryPanic, rec)
		}
	}()

	r := di.NewRegistrar()
	reg.RegisterTypes(r)
	return r.Registrations(), nil
}
