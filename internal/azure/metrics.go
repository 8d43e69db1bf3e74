package azure

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	metricsAPIVersion           = "2016-09-01"
	metricDefinitionsAPIVersion = "2018-01-01"
)

// LocalizableString is the {value, localizedValue} pair Azure uses for
// metric names.
type LocalizableString struct {
	Value          string `json:"value"`
	LocalizedValue string `json:"localizedValue"`
}

// MetricValue is one data point. Aggregations that were not requested,
// or have no samples in the bucket, are nil.
type MetricValue struct {
	TimeStamp string   `json:"timeStamp"`
	Average   *float64 `json:"average"`
	Total     *float64 `json:"total"`
	Maximum   *float64 `json:"maximum"`
	Minimum   *float64 `json:"minimum"`
	Count     *float64 `json:"count"`
}

// TimeSeries groups data points in newer API versions.
type TimeSeries struct {
	Data []MetricValue `json:"data"`
}

// Metric is one entry of a metrics response.
type Metric struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Name       LocalizableString `json:"name"`
	Unit       string            `json:"unit"`
	Data       []MetricValue     `json:"data"`
	Timeseries []TimeSeries      `json:"timeseries"`
}

// Points returns the metric's data points regardless of whether the
// response used the flat (2016-09-01) or the timeseries layout.
func (m Metric) Points() []MetricValue {
	if len(m.Data) > 0 {
		return m.Data
	}
	for _, ts := range m.Timeseries {
		if len(ts.Data) > 0 {
			return ts.Data
		}
	}
	return nil
}

// MetricDefinition describes a metric a resource can emit.
type MetricDefinition struct {
	ID                        string            `json:"id"`
	Name                      LocalizableString `json:"name"`
	Unit                      string            `json:"unit"`
	PrimaryAggregationType    string            `json:"primaryAggregationType"`
	SupportedAggregationTypes []string          `json:"supportedAggregationTypes"`
}

// ResourceID builds the ARM identifier of a resource:
// subscriptions/{s}/resourceGroups/{rg}/providers/{providerType}/{name}.
// providerType is a namespace/type path such as
// "Microsoft.Compute/virtualMachines".
func ResourceID(subscriptionID, resourceGroup, providerType, name string) string {
	return fmt.Sprintf("subscriptions/%s/resourceGroups/%s/providers/%s/%s",
		subscriptionID, resourceGroup, strings.Trim(providerType, "/"), name)
}

// MetricsPager iterates over the metrics matching one filter, fetching
// further pages lazily through nextLink. A pager is single-use.
type MetricsPager struct {
	client  *Client
	nextURL string
	buf     []Metric
}

// NewMetricsPager prepares a metrics query on resourceID with an OData
// filter. No request is sent until Next is called.
func (c *Client) NewMetricsPager(resourceID, filter string) *MetricsPager {
	q := url.Values{}
	q.Set("$filter", filter)
	return &MetricsPager{
		client:  c,
		nextURL: c.resourceURL(resourceID+"/providers/microsoft.insights/metrics", metricsAPIVersion, q),
	}
}

// Next returns the next metric. ok is false once the result set is
// exhausted.
func (p *MetricsPager) Next(ctx context.Context) (m Metric, ok bool, err error) {
	for len(p.buf) == 0 {
		if p.nextURL == "" {
			return Metric{}, false, nil
		}
		var page listPage[Metric]
		if err := p.client.doJSON(ctx, p.nextURL, &page); err != nil {
			return Metric{}, false, err
		}
		p.buf = page.Value
		p.nextURL = page.NextLink
	}
	m, p.buf = p.buf[0], p.buf[1:]
	return m, true, nil
}

// ListMetricDefinitions returns the metrics resourceID supports.
func (c *Client) ListMetricDefinitions(ctx context.Context, resourceID string) ([]MetricDefinition, error) {
	u := c.resourceURL(resourceID+"/providers/microsoft.insights/metricDefinitions", metricDefinitionsAPIVersion, nil)
	return listAll[MetricDefinition](ctx, c, u)
}
