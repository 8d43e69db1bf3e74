package report

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recordedMetric struct {
	Name  string
	Value interface{}
	Args  []string
}

type fakeSink struct {
	metrics []recordedMetric
	unknown string
	err     error
}

func (s *fakeSink) AddMetric(name string, value interface{}, args ...string) error {
	if s.err != nil {
		return s.err
	}
	s.metrics = append(s.metrics, recordedMetric{Name: name, Value: value, Args: args})
	return nil
}

func (s *fakeSink) ExitUnknown(format string, args ...interface{}) {
	s.unknown = fmt.Sprintf(format, args...)
}

func (s *fakeSink) Final() {}

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  int64
	}{
		{"truncates fraction", 42.7, 42},
		{"whole number", 10, 10},
		{"negative truncates toward zero", -3.9, -3},
		{"below one", 0.99, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.value, "VM.PercentageCPU", "Percentage CPU", "%", "80", " 90 ")
			want := Measurement{
				Label:    "VM.PercentageCPU",
				Metric:   "Percentage CPU",
				Value:    tt.want,
				Unit:     "%",
				Warning:  "80",
				Critical: "90",
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("measurement mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEmit(t *testing.T) {
	sink := &fakeSink{}
	m := New(512.4, "REDIS.usedmemory", "usedmemory", "b", "", "")

	if err := Emit(sink, m); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	want := []recordedMetric{{Name: "usedmemory", Value: int64(512), Args: []string{"b", "", ""}}}
	if diff := cmp.Diff(want, sink.metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_SinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("invalid threshold")}

	err := Emit(sink, New(1, "VM.PercentageCPU", "Percentage CPU", "%", "x:y:z", ""))
	if err == nil || !errors.Is(err, sink.err) {
		t.Fatalf("expected sink error to be wrapped, got %v", err)
	}
}

func TestMeasurement_String(t *testing.T) {
	m := New(3, "VM.DiskReadOperations", "Disk Read Operations/Sec", "", "", "")
	if got := m.String(); got != "VM.DiskReadOperations Disk Read Operations/Sec=3" {
		t.Errorf("String() = %q", got)
	}
}
