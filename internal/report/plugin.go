package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/atc0005/go-nagios"
)

// Plugin is the Sink used by the check. It classifies every metric
// against its Nagios threshold ranges, keeps the worst state and prints
// the status line with perfdata through go-nagios.
type Plugin struct {
	p        *nagios.Plugin
	messages []string
}

// NewPlugin returns a sink writing to w, or to stdout when w is nil.
func NewPlugin(w io.Writer) *Plugin {
	p := nagios.NewPlugin()
	if w != nil {
		p.SetOutputTarget(w)
	}
	return &Plugin{p: p}
}

// AddMetric records one value. args are the unit, the warning range and
// the critical range, all optional. A malformed range is an error and
// leaves the state untouched.
func (pl *Plugin) AddMetric(name string, value interface{}, args ...string) error {
	var uom, warn, crit string
	if len(args) > 0 {
		uom = args[0]
	}
	if len(args) > 1 {
		warn = args[1]
	}
	if len(args) > 2 {
		crit = args[2]
	}

	v := fmt.Sprint(value)
	code, err := classify(v, warn, crit)
	if err != nil {
		return err
	}

	perf := nagios.PerformanceData{
		Label:             name,
		Value:             v,
		UnitOfMeasurement: uom,
		Warn:              warn,
		Crit:              crit,
	}
	// Azure units such as "B/s" are outside the Nagios unit list.
	if err := pl.p.AddPerfData(true, perf); err != nil {
		return fmt.Errorf("invalid performance data: %w", err)
	}

	if code > pl.p.ExitStatusCode {
		pl.p.ExitStatusCode = code
	}
	pl.messages = append(pl.messages, fmt.Sprintf("%s is %s%s", name, v, uom))
	pl.p.ServiceOutput = stateLabel(pl.p.ExitStatusCode) + ": " + strings.Join(pl.messages, ", ")
	return nil
}

// ExitUnknown prints an UNKNOWN status and exits with code 3.
func (pl *Plugin) ExitUnknown(format string, args ...interface{}) {
	pl.p.ExitStatusCode = nagios.StateUNKNOWNExitCode
	pl.p.ServiceOutput = nagios.StateUNKNOWNLabel + ": " + fmt.Sprintf(format, args...)
	pl.p.ReturnCheckResults()
}

// Final prints the status line and perfdata and exits with the state.
func (pl *Plugin) Final() {
	if len(pl.messages) == 0 {
		pl.p.ExitStatusCode = nagios.StateUNKNOWNExitCode
		pl.p.ServiceOutput = nagios.StateUNKNOWNLabel + ": no metrics reported"
	}
	pl.p.ReturnCheckResults()
}

// classify evaluates the critical range first. Both ranges must parse,
// even when the critical one already matches.
func classify(value, warn, crit string) (int, error) {
	checks := []struct {
		spec string
		code int
	}{
		{crit, nagios.StateCRITICALExitCode},
		{warn, nagios.StateWARNINGExitCode},
	}

	ranges := make([]*nagios.Range, len(checks))
	for i, c := range checks {
		if c.spec == "" {
			continue
		}
		r := nagios.ParseRangeString(c.spec)
		if r == nil {
			return 0, fmt.Errorf("invalid threshold range %q", c.spec)
		}
		ranges[i] = r
	}

	for i, c := range checks {
		if ranges[i] != nil && ranges[i].CheckRange(value) {
			return c.code, nil
		}
	}
	return nagios.StateOKExitCode, nil
}

func stateLabel(code int) string {
	switch code {
	case nagios.StateOKExitCode:
		return nagios.StateOKLabel
	case nagios.StateWARNINGExitCode:
		return nagios.StateWARNINGLabel
	case nagios.StateCRITICALExitCode:
		return nagios.StateCRITICALLabel
	default:
		return nagios.StateUNKNOWNLabel
	}
}
