package catalog

import (
	"fmt"
	"strings"

	"checkazure/internal/domain"
)

// Aggregation is the Azure Monitor aggregation type requested for a metric.
type Aggregation string

const (
	AggregationAverage Aggregation = "Average"
	AggregationTotal   Aggregation = "Total"
	AggregationMaximum Aggregation = "Maximum"
	AggregationMinimum Aggregation = "Minimum"
)

// Aggregations lists every supported aggregation.
var Aggregations = []Aggregation{
	AggregationAverage,
	AggregationTotal,
	AggregationMaximum,
	AggregationMinimum,
}

// ParseAggregation matches s case-insensitively against the supported
// aggregations and returns the canonical spelling.
func ParseAggregation(s string) (Aggregation, error) {
	normalized := strings.TrimSpace(s)
	for _, a := range Aggregations {
		if strings.EqualFold(string(a), normalized) {
			return a, nil
		}
	}
	return "", fmt.Errorf("aggregation %q (want Average, Total, Maximum or Minimum): %w", s, domain.ErrInvalidAggregation)
}

// Recipe describes how to fetch one metric from Azure Monitor.
type Recipe struct {
	// ProviderType is the resource provider path segment, e.g.
	// "Microsoft.Compute/VirtualMachines".
	ProviderType string `json:"provider_type"`

	// Unit is the unit of measure reported in perfdata ("%", "b", "ms"...).
	Unit string `json:"unit"`

	Aggregation Aggregation `json:"aggregation"`

	// MetricName is the Azure Monitor metric name (name.value).
	MetricName string `json:"metric_name"`
}
