package model

import (
	"os"
	"testing"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestNewNCFLossRestriction(t *testing.T) {
	tests := []struct {
		name    string
		lossCfg loss.Config
		wantErr bool
	}{
		{"cross_entropy allowed", loss.DefaultConfig(loss.TypeCrossEntropy), false},
		{"focal allowed", loss.DefaultConfig(loss.TypeFocal), false},
		{"bpr rejected", loss.DefaultConfig(loss.TypeBPR), true},
		{"max_margin rejected", loss.DefaultConfig(loss.TypeMaxMargin), true},
		{"pairwise_bce rejected", loss.DefaultConfig(loss.TypePairwiseBCE), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNCF(core.TaskRanking, rankingInfo(), tt.lossCfg, 8, nil, 42)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewNCF error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNCFPredict(t *testing.T) {
	info := rankingInfo()
	m, err := NewNCF(core.TaskRanking, info, loss.DefaultConfig(loss.TypeCrossEntropy), 8, []int{16, 8}, 42)
	if err != nil {
		t.Fatalf("NewNCF error: %v", err)
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}

	preds, err := m.Predict([]string{"u1", "ghost"}, []string{"i1", "i1"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[1] != info.GlobalMean {
		t.Errorf("expected fallback for unknown user, got %v", preds[1])
	}
}

func TestNCFDeterministic(t *testing.T) {
	info := rankingInfo()
	build := func() []float64 {
		m, err := NewNCF(core.TaskRanking, info, loss.DefaultConfig(loss.TypeCrossEntropy), 8, []int{16, 8}, 7)
		if err != nil {
			t.Fatalf("NewNCF error: %v", err)
		}
		if err := m.Build(); err != nil {
			t.Fatalf("Build error: %v", err)
		}
		preds, err := m.Predict([]string{"u1", "u2"}, []string{"i2", "i3"}, core.ColdStartAverage)
		if err != nil {
			t.Fatalf("Predict error: %v", err)
		}
		return preds
	}
	a, b := build(), build()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different predictions: %v vs %v", a, b)
		}
	}
}

func TestNCFLoadWeightsShapeMismatch(t *testing.T) {
	info := rankingInfo()
	m, err := NewNCF(core.TaskRanking, info, loss.DefaultConfig(loss.TypeCrossEntropy), 4, []int{8}, 42)
	if err != nil {
		t.Fatalf("NewNCF error: %v", err)
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}

	// 行数不含 OOV 行，应报 SHAPE_MISMATCH
	path := t.TempDir() + "/weights.json"
	if err := writeFile(t, path, `{"user_gmf": [[0,0,0,0]], "item_gmf": [], "user_mlp": [], "item_mlp": [], "tower": [], "out_weights": [], "out_bias": 0}`); err != nil {
		t.Fatal(err)
	}
	err = m.LoadWeights(path)
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
	if !core.IsShapeMismatch(err) {
		t.Errorf("expected SHAPE_MISMATCH, got %v", err)
	}
}
