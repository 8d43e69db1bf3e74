// Package resolver turns a catalog recipe and a query window into a single
// scalar read from Azure Monitor.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"checkazure/internal/azure"
	"checkazure/internal/catalog"
	"checkazure/internal/domain"
	"checkazure/internal/timewindow"

	"github.com/go-logr/logr"
)

// Resolver fetches metric values through an Azure client.
type Resolver struct {
	client *azure.Client
	log    logr.Logger
	debug  bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDebug enables the diagnostic enumeration that runs before each
// query: resource groups, virtual machines, metric definitions of the
// target and the raw series.
func WithDebug(enabled bool) Option {
	return func(r *Resolver) { r.debug = enabled }
}

// New returns a resolver using client.
func New(client *azure.Client, log logr.Logger, opts ...Option) *Resolver {
	r := &Resolver{client: client, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch queries recipe over w on resourceID and returns the value of the
// first data point of the first metric returned.
//
// It returns an error wrapping domain.ErrNoData when Azure has nothing for
// the window or does not know the resource, and domain.ErrQueryFailed for
// every other API failure.
func (r *Resolver) Fetch(ctx context.Context, recipe catalog.Recipe, w timewindow.Window, resourceID string) (float64, error) {
	filter := BuildFilter(recipe, w)
	r.log.V(1).Info("querying metric", "resource", resourceID, "filter", filter)

	if r.debug {
		r.enumerate(ctx, resourceID, filter)
	}

	pager := r.client.NewMetricsPager(resourceID, filter)
	m, ok, err := pager.Next(ctx)
	if err != nil {
		return 0, classify(r.log, err)
	}
	if !ok {
		return 0, domain.ErrNoData
	}

	v, err := Extract(recipe.Aggregation, m)
	if err != nil {
		return 0, err
	}
	r.log.V(1).Info("metric value", "metric", m.Name.Value, "aggregation", recipe.Aggregation, "value", v)
	return v, nil
}

func classify(log logr.Logger, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		log.V(1).Info("resource not found, reporting no data", "error", err.Error())
		return domain.ErrNoData
	}
	return fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
}
