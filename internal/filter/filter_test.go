package filter_test

import (
	"context"
	"slices"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/voxlex/voxlex/internal/filter"
	"github.com/voxlex/voxlex/internal/observe"
)

func TestFilter_Keep(t *testing.T) {
	t.Parallel()

	f := filter.New()
	tests := []struct {
		name          string
		word          string
		transcription string
		want          bool
	}{
		{
			name:          "exact after normalization",
			word:          "apple_store",
			transcription: "Apple Store.",
			want:          true,
		},
		{
			name:          "close misspelling",
			word:          "barnes_and_noble",
			transcription: "barns and noble.",
			want:          true,
		},
		{
			name:          "doubled letter",
			word:          "lululemon",
			transcription: "lululemmon",
			want:          true,
		},
		{
			name:          "single sound swap",
			word:          "nike",
			transcription: "mike",
			want:          true,
		},
		{
			name:          "shared token",
			word:          "apple_store",
			transcription: "grapple store",
			want:          true,
		},
		{
			name:          "unrelated phrase",
			word:          "lululemon",
			transcription: "weather forecast",
			want:          false,
		},
		{
			name:          "empty transcription",
			word:          "apple_store",
			transcription: "",
			want:          false,
		},
		{
			name:          "punctuation only",
			word:          "apple_store",
			transcription: "  ?!",
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := f.Keep(tt.word, tt.transcription); got != tt.want {
				t.Errorf("Keep(%q, %q) = %v, want %v", tt.word, tt.transcription, got, tt.want)
			}
		})
	}
}

func TestFilter_Keep_RaisedThresholds(t *testing.T) {
	t.Parallel()

	// "mike" passes the default partial threshold against "nike" but has no
	// metaphone code in common with it, so raising the similarity thresholds
	// must reject it.
	if !filter.New().Keep("nike", "mike") {
		t.Fatal("Keep('nike', 'mike') = false with defaults, want true")
	}

	strict := filter.New(
		filter.WithPartialThreshold(0.8),
		filter.WithPhoneticThreshold(0.99),
	)
	if strict.Keep("nike", "mike") {
		t.Error("Keep('nike', 'mike') = true with raised thresholds, want false")
	}
	if !strict.Keep("nike", "Nike!") {
		t.Error("exact match must survive any threshold")
	}
}

func TestFilter_Apply(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	f := filter.New(filter.WithMetrics(metrics))
	observed := map[string][]string{
		"apple_store": {"Apple Store.", "grapple store", "weather forecast"},
		"lululemon":   {"weather forecast"},
	}

	got := f.Apply(context.Background(), observed)

	want := []string{"Apple Store.", "grapple store"}
	if !slices.Equal(got["apple_store"], want) {
		t.Errorf("Apply()[apple_store] = %v, want %v", got["apple_store"], want)
	}

	// A word whose every transcription was rejected keeps its key.
	kept, ok := got["lululemon"]
	if !ok {
		t.Fatal("Apply() dropped the 'lululemon' key entirely")
	}
	if len(kept) != 0 {
		t.Errorf("Apply()[lululemon] = %v, want empty", kept)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	byDecision := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "voxlex.filter.decisions" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				for _, kv := range dp.Attributes.ToSlice() {
					if string(kv.Key) == "decision" {
						byDecision[kv.Value.AsString()] += dp.Value
					}
				}
			}
		}
	}
	if byDecision["kept"] != 2 || byDecision["dropped"] != 2 {
		t.Errorf("filter decisions = %v, want kept:2 dropped:2", byDecision)
	}
}
