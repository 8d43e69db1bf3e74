// Package report hands a resolved metric value to the plugin status
// engine, which classifies it against thresholds and prints the status
// line and perfdata.
package report

import (
	"fmt"
	"math"
	"strings"
)

// Measurement is one value ready for threshold evaluation.
type Measurement struct {
	// Label is the mode that produced the value.
	Label string

	// Metric is the Azure Monitor metric name, used as the perfdata label.
	Metric string

	Value    int64
	Unit     string
	Warning  string
	Critical string
}

// New builds a measurement from a raw metric value. Fractions are
// truncated toward zero.
func New(value float64, mode, metricName, unit, warning, critical string) Measurement {
	return Measurement{
		Label:    mode,
		Metric:   metricName,
		Value:    int64(math.Trunc(value)),
		Unit:     unit,
		Warning:  strings.TrimSpace(warning),
		Critical: strings.TrimSpace(critical),
	}
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s %s=%d%s", m.Label, m.Metric, m.Value, m.Unit)
}

// Sink is the part of the plugin status engine used by the check.
// *Plugin satisfies it.
type Sink interface {
	AddMetric(name string, value interface{}, args ...string) error
	ExitUnknown(format string, args ...interface{})
	Final()
}

// Emit adds m to sink. Empty thresholds are passed through unchanged and
// mean "no threshold".
func Emit(sink Sink, m Measurement) error {
	if err := sink.AddMetric(m.Metric, m.Value, m.Unit, m.Warning, m.Critical); err != nil {
		return fmt.Errorf("failed to add metric %q: %w", m.Metric, err)
	}
	return nil
}
