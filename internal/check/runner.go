// Package check runs one Azure Monitor check: resolve the mode, make sure
// the Insights provider is registered, advance the time window, fetch the
// metric and turn it into a measurement.
package check

import (
	"context"
	"time"

	"checkazure/internal/azure"
	"checkazure/internal/cache"
	"checkazure/internal/catalog"
	"checkazure/internal/config"
	"checkazure/internal/report"
	"checkazure/internal/resolver"
	"checkazure/internal/retry"
	"checkazure/internal/state"
	"checkazure/internal/timewindow"

	"github.com/go-logr/logr"
)

const (
	// InsightsNamespace must be registered on the subscription before
	// metrics can be read.
	InsightsNamespace = "Microsoft.Insights"

	// RegistrationTTL is how long a successful registration is trusted.
	RegistrationTTL = 24 * time.Hour
)

// Deps are the collaborators a Runner needs. Store and Client are
// required; the rest have usable zero values.
type Deps struct {
	Client *azure.Client
	Store  state.Store
	Cache  *cache.Cache
	Log    logr.Logger
	Now    func() time.Time
	Retry  *retry.Config
}

// Runner executes a check described by a validated config.
type Runner struct {
	cfg      *config.Config
	client   *azure.Client
	tracker  *timewindow.Tracker
	resolver *resolver.Resolver
	cache    *cache.Cache
	log      logr.Logger
	now      func() time.Time
	retry    retry.Config
}

// NewRunner wires a runner for cfg.
func NewRunner(cfg *config.Config, deps Deps) *Runner {
	log := deps.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	retryCfg := retry.DefaultConfig()
	if deps.Retry != nil {
		retryCfg = *deps.Retry
	}
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.V(1).Info("retrying provider registration", "attempt", attempt, "delay", delay.String(), "error", err.Error())
	}

	return &Runner{
		cfg:      cfg,
		client:   deps.Client,
		tracker:  timewindow.NewTracker(deps.Store, log.WithName("timewindow")),
		resolver: resolver.New(deps.Client, log.WithName("resolver"), resolver.WithDebug(cfg.Debug)),
		cache:    deps.Cache,
		log:      log,
		now:      now,
		retry:    retryCfg,
	}
}

// Run performs the check. Every returned error is meant to be reported as
// UNKNOWN; classify it with errors.Is against the domain sentinels.
func (r *Runner) Run(ctx context.Context) (report.Measurement, error) {
	cfg := r.cfg

	correlationID := azure.NewCorrelationID()
	ctx = azure.WithCorrelationID(ctx, correlationID)
	r.log.V(1).Info("starting check", "mode", cfg.Mode, "host", cfg.Host, "endpoint", r.client.Endpoint(), "correlationID", correlationID)

	recipe, err := catalog.Resolve(cfg.Mode, catalog.Options{
		Qualifier: cfg.ExtraProvider,
		Generic: catalog.GenericArgs{
			ProviderType: cfg.Provider,
			Unit:         cfg.Unit,
			Aggregation:  cfg.Aggregation,
			MetricName:   cfg.Metric,
		},
	})
	if err != nil {
		return report.Measurement{}, err
	}
	r.log.V(1).Info("resolved mode", "mode", cfg.Mode, "recipe", recipe)

	if !cfg.SkipRegistration {
		r.ensureRegistered(ctx)
	}

	key := timewindow.StateKey(cfg.Mode, recipe.MetricName, cfg.Host, cfg.Mode == catalog.GenericMode)
	window := r.tracker.ComputeWindow(ctx, key, r.now())

	resourceID := azure.ResourceID(cfg.SubscriptionID, cfg.ResourceGroup, recipe.ProviderType, cfg.Host)
	value, err := r.resolver.Fetch(ctx, recipe, window, resourceID)
	if err != nil {
		if azure.IsMissingRegistration(err) {
			r.forgetRegistration()
		}
		return report.Measurement{}, err
	}

	m := report.New(value, cfg.Mode, recipe.MetricName, recipe.Unit, cfg.Warning, cfg.Critical)
	r.log.V(1).Info("measurement", "value", m.String(), "warning", m.Warning, "critical", m.Critical)
	return m, nil
}

func registrationKey(subscriptionID string) string {
	return "register_" + subscriptionID + "_" + InsightsNamespace
}

// ensureRegistered registers the Insights provider unless a recent
// registration is cached. Failures are logged and never fail the check.
func (r *Runner) ensureRegistered(ctx context.Context) {
	key := registrationKey(r.cfg.SubscriptionID)
	if m, ok := r.cache.Fresh(key, RegistrationTTL); ok {
		r.log.V(1).Info("provider registration cached", "namespace", InsightsNamespace, "since", m.At)
		return
	}

	var reg *azure.ProviderRegistration
	err := retry.Do(ctx, r.retry, retry.IsRetryable, func(ctx context.Context) error {
		var err error
		reg, err = r.client.RegisterProvider(ctx, InsightsNamespace)
		return err
	})
	if err != nil {
		r.log.Error(err, "failed to register resource provider", "namespace", InsightsNamespace)
		return
	}

	r.log.V(1).Info("registered resource provider", "namespace", InsightsNamespace, "state", reg.RegistrationState)
	if reg.RegistrationState != "Registered" {
		return
	}
	if err := r.cache.Mark(key, reg.RegistrationState); err != nil {
		r.log.V(1).Info("failed to cache provider registration", "error", err.Error())
	}
}

// forgetRegistration drops a cached registration that Azure no longer
// agrees with, so the next run registers again instead of waiting for
// the marker to expire.
func (r *Runner) forgetRegistration() {
	key := registrationKey(r.cfg.SubscriptionID)
	if err := r.cache.Forget(key); err != nil {
		r.log.V(1).Info("failed to forget provider registration", "error", err.Error())
		return
	}
	r.log.Info("provider not registered, cleared cached registration", "namespace", InsightsNamespace)
}
