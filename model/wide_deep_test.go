package model

import (
	"testing"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/feature"
	"github.com/rushteam/recforge/loss"
)

func testProvider() *feature.Map {
	return &feature.Map{
		Users: map[string]map[string]float64{
			"u1": {"user_age": 0.3, "user_ctr": 0.1},
			"u2": {"user_age": 0.7, "user_ctr": 0.4},
			"u3": {"user_age": 0.5, "user_ctr": 0.2},
		},
		Items: map[string]map[string]float64{
			"i1": {"item_ctr": 0.2, "item_price": 0.8},
			"i2": {"item_ctr": 0.6, "item_price": 0.3},
			"i3": {"item_ctr": 0.4, "item_price": 0.5},
		},
	}
}

func newTestWideDeep(t *testing.T) *WideDeep {
	t.Helper()
	m, err := NewWideDeep(core.TaskRanking, rankingInfo(), loss.DefaultConfig(loss.TypeCrossEntropy),
		testProvider(),
		[]string{"user_age_x_item_ctr"},
		[]string{"user_age", "user_ctr", "item_ctr", "item_price"},
		[]int{8, 4}, 42)
	if err != nil {
		t.Fatalf("NewWideDeep error: %v", err)
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return m
}

func TestNewWideDeepValidation(t *testing.T) {
	info := rankingInfo()
	deep := []string{"user_age"}

	if _, err := NewWideDeep(core.TaskRanking, info, loss.DefaultConfig(loss.TypeCrossEntropy), nil, nil, deep, nil, 42); err == nil {
		t.Fatal("expected error for missing provider")
	}
	if _, err := NewWideDeep(core.TaskRanking, info, loss.DefaultConfig(loss.TypeCrossEntropy), testProvider(), nil, nil, nil, 42); err == nil {
		t.Fatal("expected error for empty deep features")
	}
	if _, err := NewWideDeep(core.TaskRanking, info, loss.DefaultConfig(loss.TypeBPR), testProvider(), nil, deep, nil, 42); err == nil {
		t.Fatal("expected error for pairwise loss")
	}
}

func TestWideDeepPredict(t *testing.T) {
	info := rankingInfo()
	m := newTestWideDeep(t)

	preds, err := m.Predict([]string{"u1", "u2"}, []string{"i1", "i2"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}

	// 未知实体不取数，直接兜底
	preds, err = m.Predict([]string{"ghost"}, []string{"i1"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if preds[0] != info.GlobalMean {
		t.Errorf("expected fallback for unknown user, got %v", preds[0])
	}
}

func TestWideDeepLoadWeights(t *testing.T) {
	m := newTestWideDeep(t)

	before, err := m.Predict([]string{"u1"}, []string{"i1"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}

	path := t.TempDir() + "/wd.json"
	if err := writeFile(t, path, `{"wide_bias": 5.0, "wide_weights": {"user_age_x_item_ctr": 2.0}}`); err != nil {
		t.Fatal(err)
	}
	if err := m.LoadWeights(path); err != nil {
		t.Fatalf("LoadWeights error: %v", err)
	}

	after, err := m.Predict([]string{"u1"}, []string{"i1"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if before[0] == after[0] {
		t.Error("expected prediction to change after loading wide weights")
	}
}

func TestCrossValue(t *testing.T) {
	features := map[string]float64{"a": 2, "b": 3, "plain": 7}
	tests := []struct {
		name   string
		key    string
		want   float64
		wantOK bool
	}{
		{"cross present", "a_x_b", 6, true},
		{"cross missing side", "a_x_c", 0, false},
		{"plain present", "plain", 7, true},
		{"plain missing", "other", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := crossValue(features, tt.key)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("crossValue(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
