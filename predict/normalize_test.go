package predict

import (
	"testing"

	"github.com/rushteam/recforge/core"
)

type stubModel struct {
	task        core.Task
	lower       float64
	upper       float64
	defaultPred float64
	popularPred float64
}

func (m *stubModel) Task() core.Task            { return m.task }
func (m *stubModel) Bounds() (float64, float64) { return m.lower, m.upper }
func (m *stubModel) DefaultPred() float64       { return m.defaultPred }
func (m *stubModel) PopularPred() float64       { return m.popularPred }

func TestNormalize_RatingClip(t *testing.T) {
	m := &stubModel{task: core.TaskRating, lower: 1, upper: 5, defaultPred: 3.5}
	preds := []float64{0.2, 3.0, 7.9, 5.0}

	got, err := Normalize(preds, m, core.ColdStartAverage, 0, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []float64{1, 3, 5, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	// input must stay untouched
	if preds[0] != 0.2 || preds[2] != 7.9 {
		t.Error("Normalize mutated its input")
	}
}

func TestNormalize_RankingPassThrough(t *testing.T) {
	m := &stubModel{task: core.TaskRanking}
	preds := []float64{-3.2, 0.0, 12.5}

	got, err := Normalize(preds, m, core.ColdStartAverage, 0, nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i := range preds {
		if got[i] != preds[i] {
			t.Errorf("got[%d] = %v, want unchanged %v", i, got[i], preds[i])
		}
	}
}

func TestNormalize_ColdStartFallback(t *testing.T) {
	m := &stubModel{task: core.TaskRanking, defaultPred: 0.42, popularPred: 9.9}
	preds := []float64{1, 2, 3}

	tests := []struct {
		name      string
		coldStart core.ColdStart
		want      float64
	}{
		{"average uses default pred", core.ColdStartAverage, 0.42},
		{"popular uses popular pred", core.ColdStartPopular, 9.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(preds, m, tt.coldStart, 2, []int{0, 2})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if got[0] != tt.want || got[2] != tt.want {
				t.Errorf("fallback positions = %v, %v, want %v", got[0], got[2], tt.want)
			}
			if got[1] != 2 {
				t.Errorf("known position = %v, want 2", got[1])
			}
		})
	}
}

// Calling twice with identical inputs and a fixed model must return identical
// fallback values.
func TestNormalize_Deterministic(t *testing.T) {
	m := &stubModel{task: core.TaskRanking, defaultPred: 1.23}
	preds := []float64{5, 6}

	a, err := Normalize(preds, m, core.ColdStartAverage, 1, []int{1})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	b, err := Normalize(preds, m, core.ColdStartAverage, 1, []int{1})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if a[1] != b[1] {
		t.Errorf("fallback not deterministic: %v vs %v", a[1], b[1])
	}
}

func TestNormalize_InvalidColdStart(t *testing.T) {
	m := &stubModel{task: core.TaskRanking}
	_, err := Normalize([]float64{1}, m, core.ColdStart("unsupported"), 1, []int{0})
	if err == nil {
		t.Fatal("Normalize() expected error for unsupported cold start strategy")
	}
	if !core.IsInvalidConfig(err) {
		t.Errorf("error code = %v, want INVALID_CONFIG", err)
	}
}

func TestNormalize_InvalidTaskPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for task outside closed set")
		}
	}()
	m := &stubModel{task: core.Task("classification")}
	_, _ = Normalize([]float64{1}, m, core.ColdStartAverage, 0, nil)
}
