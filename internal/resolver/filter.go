package resolver

import (
	"fmt"

	"checkazure/internal/azure"
	"checkazure/internal/catalog"
	"checkazure/internal/domain"
	"checkazure/internal/timewindow"
)

// BuildFilter renders the OData filter selecting one metric, one
// aggregation and one time-grain bucket covering w.
func BuildFilter(r catalog.Recipe, w timewindow.Window) string {
	return fmt.Sprintf(
		"name.value eq '%s' and aggregationType eq '%s' and startTime eq %s and endTime eq %s and timeGrain eq duration'%s'",
		r.MetricName, r.Aggregation, timewindow.Format(w.Start), timewindow.Format(w.End), w.TimeGrain(),
	)
}

// Extract reads the field matching agg from the first data point of m.
func Extract(agg catalog.Aggregation, m azure.Metric) (float64, error) {
	points := m.Points()
	if len(points) == 0 {
		return 0, domain.ErrNoData
	}

	p := points[0]
	var v *float64
	switch agg {
	case catalog.AggregationAverage:
		v = p.Average
	case catalog.AggregationTotal:
		v = p.Total
	case catalog.AggregationMaximum:
		v = p.Maximum
	case catalog.AggregationMinimum:
		v = p.Minimum
	default:
		return 0, fmt.Errorf("aggregation %q: %w", agg, domain.ErrInvalidAggregation)
	}

	if v == nil {
		return 0, domain.ErrNoData
	}
	return *v, nil
}
