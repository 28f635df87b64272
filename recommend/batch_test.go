package recommend

import (
	"context"
	"errors"
	"testing"
)

// fakeRecommender 按用户 ID 返回固定结果，"bad" 用户返回错误。
type fakeRecommender struct{}

func (fakeRecommender) Recommend(user string, n int, opts Options) ([]Result, error) {
	if user == "bad" {
		return nil, errors.New("boom")
	}
	return []Result{{ItemID: "i_" + user, Score: 1}}, nil
}

func TestBatch(t *testing.T) {
	users := []string{"u1", "u2", "u3", "u4"}
	results, err := Batch(context.Background(), fakeRecommender{}, users, 1, Options{}, 2)
	if err != nil {
		t.Fatalf("Batch error: %v", err)
	}
	if len(results) != len(users) {
		t.Fatalf("expected %d entries, got %d", len(users), len(results))
	}
	for _, u := range users {
		recs := results[u]
		if len(recs) != 1 || recs[0].ItemID != "i_"+u {
			t.Errorf("user %s: unexpected results %+v", u, recs)
		}
	}
}

func TestBatchPropagatesError(t *testing.T) {
	if _, err := Batch(context.Background(), fakeRecommender{}, []string{"u1", "bad"}, 1, Options{}, 0); err == nil {
		t.Fatal("expected error from failing user")
	}
}

func TestBatchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Batch(ctx, fakeRecommender{}, []string{"u1"}, 1, Options{}, 0); err == nil {
		t.Fatal("expected context error")
	}
}
