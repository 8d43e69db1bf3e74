package catalog

import (
	"errors"
	"strings"
	"testing"

	"checkazure/internal/domain"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_AllModes(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(mode, func(t *testing.T) {
			recipe, err := Resolve(mode, Options{Qualifier: "parent"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if recipe.ProviderType == "" {
				t.Error("expected non-empty provider type")
			}
			if recipe.MetricName == "" {
				t.Error("expected non-empty metric name")
			}
			if strings.Contains(recipe.ProviderType, "%") {
				t.Errorf("provider type %q still contains a placeholder", recipe.ProviderType)
			}
			if _, err := ParseAggregation(string(recipe.Aggregation)); err != nil {
				t.Errorf("recipe has invalid aggregation %q", recipe.Aggregation)
			}
		})
	}
}

func TestResolve_KnownRecipes(t *testing.T) {
	tests := []struct {
		mode      string
		qualifier string
		want      Recipe
	}{
		{
			mode: "VM.PercentageCPU",
			want: Recipe{ProviderType: "Microsoft.Compute/VirtualMachines", Unit: "%", Aggregation: AggregationAverage, MetricName: "Percentage CPU"},
		},
		{
			mode:      "VMSSVM.NetworkIn",
			qualifier: "web-ss",
			want:      Recipe{ProviderType: "Microsoft.Compute/virtualMachineScaleSets/web-ss/virtualMachines", Unit: "b", Aggregation: AggregationTotal, MetricName: "Network In"},
		},
		{
			mode:      "SQL.storage",
			qualifier: "sqlsrv01",
			want:      Recipe{ProviderType: "Microsoft.Sql/servers/sqlsrv01/databases", Unit: "b", Aggregation: AggregationMaximum, MetricName: "storage"},
		},
		{
			mode:      "EP.eDTU_used",
			qualifier: "sqlsrv01",
			want:      Recipe{ProviderType: "Microsoft.Sql/servers/sqlsrv01/elasticPools", Unit: "", Aggregation: AggregationAverage, MetricName: "eDTU_used"},
		},
		{
			mode: "IOT.d2c.endpoints.latency.eventHubs",
			want: Recipe{ProviderType: "Microsoft.Devices/IotHubs", Unit: "ms", Aggregation: AggregationAverage, MetricName: "d2c.endpoints.latency.eventHubs"},
		},
		{
			mode: "REDIS.cacheWrite",
			want: Recipe{ProviderType: "Microsoft.Cache/redis", Unit: "BPerSecond", Aggregation: AggregationMaximum, MetricName: "cacheWrite"},
		},
		{
			mode:      "PGSQL.storage_used",
			qualifier: "ignored",
			want:      Recipe{ProviderType: "Microsoft.DBforPostgreSQL/servers", Unit: "b", Aggregation: AggregationAverage, MetricName: "storage_used"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := Resolve(tt.mode, Options{Qualifier: tt.qualifier})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("recipe mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_UnknownMode(t *testing.T) {
	_, err := Resolve("VM.Nonexistent", Options{})
	if !errors.Is(err, domain.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if !strings.Contains(err.Error(), "VM.Nonexistent") {
		t.Errorf("expected error to name the mode, got %q", err)
	}
}

func TestResolve_QualifiedFamilyNeedsQualifier(t *testing.T) {
	for _, mode := range []string{"VMSSVM.PercentageCPU", "SQL.cpu_percent", "EP.cpu_percent"} {
		t.Run(mode, func(t *testing.T) {
			_, err := Resolve(mode, Options{Qualifier: "  "})
			if !errors.Is(err, domain.ErrMissingArgument) {
				t.Fatalf("expected ErrMissingArgument, got %v", err)
			}
		})
	}
}

func TestResolve_Generic(t *testing.T) {
	got, err := Resolve(GenericMode, Options{Generic: GenericArgs{
		ProviderType: "Microsoft.Web/sites/",
		Unit:         "ms",
		Aggregation:  "average",
		MetricName:   "AverageResponseTime",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Recipe{
		ProviderType: "Microsoft.Web/sites",
		Unit:         "ms",
		Aggregation:  AggregationAverage,
		MetricName:   "AverageResponseTime",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recipe mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_GenericMissingArguments(t *testing.T) {
	full := GenericArgs{ProviderType: "Microsoft.Web/sites", Aggregation: "Total", MetricName: "Requests"}

	tests := []struct {
		name    string
		mutate  func(a *GenericArgs)
		wantMsg string
	}{
		{"no provider", func(a *GenericArgs) { a.ProviderType = "" }, "-p provider"},
		{"no aggregation", func(a *GenericArgs) { a.Aggregation = "" }, "-a aggregation"},
		{"no metric", func(a *GenericArgs) { a.MetricName = "" }, "-M metric"},
		{"nothing", func(a *GenericArgs) { *a = GenericArgs{} }, "-p provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := full
			tt.mutate(&args)
			_, err := Resolve(GenericMode, Options{Generic: args})
			if !errors.Is(err, domain.ErrMissingArgument) {
				t.Fatalf("expected ErrMissingArgument, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err)
			}
		})
	}
}

func TestResolve_GenericInvalidAggregation(t *testing.T) {
	_, err := Resolve(GenericMode, Options{Generic: GenericArgs{
		ProviderType: "Microsoft.Web/sites",
		Aggregation:  "Median",
		MetricName:   "Requests",
	}})
	if !errors.Is(err, domain.ErrInvalidAggregation) {
		t.Fatalf("expected ErrInvalidAggregation, got %v", err)
	}
}

func TestParseAggregation(t *testing.T) {
	tests := []struct {
		in   string
		want Aggregation
	}{
		{"Average", AggregationAverage},
		{"total", AggregationTotal},
		{" MAXIMUM ", AggregationMaximum},
		{"Minimum", AggregationMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAggregation(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAggregation(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModes_SortedAndComplete(t *testing.T) {
	names := Modes()
	if len(names) != 139 {
		t.Errorf("expected 139 modes, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("modes not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
	for _, name := range names {
		if name == GenericMode {
			t.Fatal("generic mode must not be listed in the table")
		}
	}
}

func TestEntries_FamiliesCovered(t *testing.T) {
	seen := make(map[string]int)
	for _, e := range Entries() {
		if !strings.HasPrefix(e.Mode, e.Family+".") {
			t.Errorf("mode %q not prefixed by family %q", e.Mode, e.Family)
		}
		seen[e.Family]++
	}

	want := map[string]int{
		"VM":     7,
		"VMSS":   7,
		"VMSSVM": 7,
		"MYSQL":  10,
		"PGSQL":  10,
		"IOT":    53,
		"SQL":    18,
		"EP":     12,
		"REDIS":  15,
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("family counts mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupFamily(t *testing.T) {
	if f := LookupFamily("redis"); f == nil || f.Name != "REDIS" {
		t.Errorf("expected REDIS family, got %+v", f)
	}
	if f := LookupFamily("nope"); f != nil {
		t.Errorf("expected nil, got %+v", f)
	}
}
