package loss

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/recforge/core"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPairScores_EqualLength(t *testing.T) {
	targets := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	itemsPos := mat.NewDense(2, 3, []float64{
		1, 0, 1,
		0, 1, 0,
	})
	itemsNeg := mat.NewDense(2, 3, []float64{
		1, 1, 1,
		2, 0, 0,
	})

	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, true)
	if err != nil {
		t.Fatalf("PairScores() error = %v", err)
	}

	wantPos := []float64{1*1 + 3*1, 5 * 1}
	wantNeg := []float64{1 + 2 + 3, 4 * 2}
	for i := range wantPos {
		if !almostEqual(pos[i], wantPos[i]) {
			t.Errorf("pos[%d] = %v, want %v", i, pos[i], wantPos[i])
		}
		if !almostEqual(neg[i], wantNeg[i]) {
			t.Errorf("neg[%d] = %v, want %v", i, neg[i], wantNeg[i])
		}
	}
}

// Two anchor rows of dim 4, six negatives (factor 3): positives repeat per block,
// negatives align to anchor row i at positions i*3+k.
func TestPairScores_Expansion(t *testing.T) {
	targets := mat.NewDense(2, 4, []float64{
		1, 0, 2, 0,
		0, 1, 0, 3,
	})
	itemsPos := mat.NewDense(2, 4, []float64{
		1, 1, 1, 1,
		2, 2, 2, 2,
	})
	negData := []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
		1, 1, 0, 0,
		0, 0, 1, 1,
	}
	itemsNeg := mat.NewDense(6, 4, negData)

	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, true)
	if err != nil {
		t.Fatalf("PairScores() error = %v", err)
	}

	p0 := 1.0 + 2.0 // row0 · pos0
	p1 := 2.0 + 6.0 // row1 · pos1
	wantPos := []float64{p0, p0, p0, p1, p1, p1}
	wantNeg := []float64{1, 0, 2, 3, 1, 3}

	if len(pos) != 6 || len(neg) != 6 {
		t.Fatalf("lengths = %d, %d, want 6, 6", len(pos), len(neg))
	}
	for i := range wantPos {
		if !almostEqual(pos[i], wantPos[i]) {
			t.Errorf("pos[%d] = %v, want %v", i, pos[i], wantPos[i])
		}
		if !almostEqual(neg[i], wantNeg[i]) {
			t.Errorf("neg[%d] = %v, want %v", i, neg[i], wantNeg[i])
		}
	}
}

func TestPairScores_NoRepeat(t *testing.T) {
	targets := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	itemsPos := mat.NewDense(2, 2, []float64{2, 0, 0, 2})
	itemsNeg := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		3, 0,
	})

	pos, neg, err := PairScores(targets, itemsPos, itemsNeg, false)
	if err != nil {
		t.Fatalf("PairScores() error = %v", err)
	}
	if len(pos) != 2 {
		t.Errorf("pos length = %d, want 2 (not expanded)", len(pos))
	}
	if len(neg) != 4 {
		t.Errorf("neg length = %d, want 4", len(neg))
	}
}

func TestPairScores_Errors(t *testing.T) {
	tests := []struct {
		name      string
		targets   *mat.Dense
		itemsPos  *mat.Dense
		itemsNeg  *mat.Dense
		wantInMsg []string
	}{
		{
			name:      "targets and positives length mismatch",
			targets:   mat.NewDense(3, 2, nil),
			itemsPos:  mat.NewDense(2, 2, nil),
			itemsNeg:  mat.NewDense(4, 2, nil),
			wantInMsg: []string{"targets and positives length mismatch", "3", "2"},
		},
		{
			name:      "negatives not a multiple of positives",
			targets:   mat.NewDense(2, 2, nil),
			itemsPos:  mat.NewDense(2, 2, nil),
			itemsNeg:  mat.NewDense(5, 2, nil),
			wantInMsg: []string{"negatives length is not a multiple of positives length", "5", "2"},
		},
		{
			name:      "embedding dims mismatch",
			targets:   mat.NewDense(2, 3, nil),
			itemsPos:  mat.NewDense(2, 2, nil),
			itemsNeg:  mat.NewDense(2, 2, nil),
			wantInMsg: []string{"dims"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PairScores(tt.targets, tt.itemsPos, tt.itemsNeg, true)
			if err == nil {
				t.Fatal("PairScores() expected error, got nil")
			}
			if !core.IsShapeMismatch(err) {
				t.Errorf("error code = %v, want SHAPE_MISMATCH", err)
			}
			for _, want := range tt.wantInMsg {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not contain %q", err.Error(), want)
				}
			}
		})
	}
}
