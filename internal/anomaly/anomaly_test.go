package anomaly

import (
	"testing"

	"github.com/pfrederiksen/dgs-reports/internal/dataset"
)

func row(place string, counts ...dataset.Count) dataset.Row {
	return dataset.Row{Static: []string{place}, Counts: counts}
}

var null = dataset.Count{}

func TestCheck(t *testing.T) {
	ds := &dataset.Dataset{
		Static: []string{"concelho"},
		Dates:  []string{"2021/01/13", "2021/01/14", "2021/01/15"},
		Rows: []dataset.Row{
			row("A", dataset.Known(1), dataset.Known(5), null),
			row("B", dataset.Known(3), dataset.Known(0), null),
			row("C", null, dataset.Known(5), dataset.Known(7)),
			row("D", dataset.Known(2), null, null),
			row("E", null, dataset.Known(12), null),
		},
	}

	report, err := Check(ds)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if report.PreviousColumn != "2021/01/14" || report.CurrentColumn != "2021/01/15" {
		t.Errorf("compared %s -> %s, want 2021/01/14 -> 2021/01/15", report.PreviousColumn, report.CurrentColumn)
	}

	want := []Finding{
		{Concelho: "A", Previous: dataset.Known(5), Current: null},
		{Concelho: "E", Previous: dataset.Known(12), Current: null},
	}
	if len(report.Findings) != len(want) {
		t.Fatalf("got %d findings, want %d: %+v", len(report.Findings), len(want), report.Findings)
	}
	for i, f := range report.Findings {
		if f != want[i] {
			t.Errorf("finding %d = %+v, want %+v", i, f, want[i])
		}
	}
}

func TestSuspicious(t *testing.T) {
	tests := []struct {
		name     string
		previous dataset.Count
		current  dataset.Count
		want     bool
	}{
		{"positive then null", dataset.Known(5), null, true},
		{"zero then null", dataset.Known(0), null, false},
		{"positive then positive", dataset.Known(5), dataset.Known(7), false},
		{"null then null", null, null, false},
		{"null then positive", null, dataset.Known(1), false},
		{"positive then zero", dataset.Known(5), dataset.Known(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Suspicious(tt.previous, tt.current); got != tt.want {
				t.Errorf("Suspicious(%v, %v) = %v, want %v", tt.previous, tt.current, got, tt.want)
			}
		})
	}
}

func TestCheck_FewerThanTwoDates(t *testing.T) {
	for _, dates := range [][]string{nil, {"2021/01/15"}} {
		ds := &dataset.Dataset{Static: []string{"concelho"}, Dates: dates}
		for range []int{0, 1} {
			ds.Rows = append(ds.Rows, dataset.Row{Static: []string{"A"}, Counts: make([]dataset.Count, len(dates))})
		}

		report, err := Check(ds)
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if !report.Empty() || report.CurrentColumn != "" {
			t.Errorf("Check() with %d dates = %+v, want empty report", len(dates), report)
		}
	}
}

func TestCheck_ColumnOrderIsExplicit(t *testing.T) {
	// Dates are compared in list order, not calendar order.
	ds := &dataset.Dataset{
		Static: []string{"concelho"},
		Dates:  []string{"2021/01/15", "2021/01/10"},
		Rows:   []dataset.Row{row("A", dataset.Known(4), null)},
	}

	report, err := Check(ds)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if report.CurrentColumn != "2021/01/10" || len(report.Findings) != 1 {
		t.Errorf("Check() = %+v, want one finding against 2021/01/10", report)
	}
}

func TestCheck_NilDataset(t *testing.T) {
	if _, err := Check(nil); err == nil {
		t.Error("Check(nil) should fail")
	}
}
