package model

import (
	"testing"

	"github.com/rushteam/recforge/core"
	"github.com/rushteam/recforge/loss"
	"github.com/rushteam/recforge/recommend"
)

func TestNewLightGCNRejectsRating(t *testing.T) {
	_, err := NewLightGCN(core.TaskRating, ratingInfo(), loss.DefaultConfig(loss.TypeCrossEntropy), 8, 2, 42)
	if err == nil {
		t.Fatal("expected error for rating task")
	}
	if !core.IsInvalidConfig(err) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestLightGCNPredictAndRecommend(t *testing.T) {
	info := rankingInfo()
	m, err := NewLightGCN(core.TaskRanking, info, loss.DefaultConfig(loss.TypeBPR), 8, 2, 42)
	if err != nil {
		t.Fatalf("NewLightGCN error: %v", err)
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}

	preds, err := m.Predict([]string{"u1", "u2"}, []string{"i1", "i3"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}

	recs, err := m.Recommend("u2", 2, recommend.Options{})
	if err != nil {
		t.Fatalf("Recommend error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Score < recs[1].Score {
		t.Errorf("results not sorted by score: %+v", recs)
	}
}

func TestLightGCNDeterministicPropagation(t *testing.T) {
	info := rankingInfo()
	build := func() []float64 {
		m, err := NewLightGCN(core.TaskRanking, info, loss.DefaultConfig(loss.TypeBPR), 8, 3, 7)
		if err != nil {
			t.Fatalf("NewLightGCN error: %v", err)
		}
		if err := m.Build(); err != nil {
			t.Fatalf("Build error: %v", err)
		}
		preds, err := m.Predict([]string{"u1", "u2", "u3"}, []string{"i1", "i2", "i3"}, core.ColdStartAverage)
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

func TestLightGCNRefreshAfterUpdate(t *testing.T) {
	info := rankingInfo()
	m, err := NewLightGCN(core.TaskRanking, info, loss.DefaultConfig(loss.TypeBPR), 4, 1, 42)
	if err != nil {
		t.Fatalf("NewLightGCN error: %v", err)
	}
	if err := m.Build(); err != nil {
		t.Fatalf("Build error: %v", err)
	}

	before, err := m.Predict([]string{"u1"}, []string{"i2"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}

	// 修改底层表后传播结果应随之变化
	userBase, _ := m.BaseTables()
	userBase.AddToRow(0, 1.0, []float64{1, 1, 1, 1})
	if err := m.Refresh(); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	after, err := m.Predict([]string{"u1"}, []string{"i2"}, core.ColdStartAverage)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if before[0] == after[0] {
		t.Error("expected prediction to change after base table update and refresh")
	}
}
