package domain

import "errors"

// Sentinel errors for classifying check failures.
// Components wrap these so the CLI can report every failure as a single
// UNKNOWN plugin error while tests still distinguish the cause.
//
//	return fmt.Errorf("mode %q: %w", mode, domain.ErrUnknownMode)
var (
	// ErrUnknownMode indicates the requested mode is not in the catalog.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrMissingArgument indicates a value required by the selected mode
	// was not supplied.
	ErrMissingArgument = errors.New("missing argument")

	// ErrInvalidAggregation indicates an aggregation outside
	// Average, Total, Maximum and Minimum.
	ErrInvalidAggregation = errors.New("invalid aggregation")

	// ErrQueryFailed indicates the monitoring API call failed at the
	// transport, authentication or provider level.
	ErrQueryFailed = errors.New("metric query failed")

	// ErrNoData indicates the query succeeded but produced no usable
	// data point for the requested aggregation.
	ErrNoData = errors.New("no metric data was found; check the resource group and resource, or the check was run too soon after the previous run")
)

// API-level classification used by the Azure client.
var (
	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrThrottled indicates Azure Resource Manager throttled the request.
	ErrThrottled = errors.New("throttled")
)
