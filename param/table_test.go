package param

import (
	"math"
	"testing"
)

func TestNewTable_Deterministic(t *testing.T) {
	a := NewTable("user", 10, 4, 42)
	b := NewTable("user", 10, 4, 42)
	c := NewTable("user", 10, 4, 7)

	same := true
	diff := false
	for i := 0; i < 10; i++ {
		for j := 0; j < 4; j++ {
			if a.Row(i)[j] != b.Row(i)[j] {
				same = false
			}
			if a.Row(i)[j] != c.Row(i)[j] {
				diff = true
			}
		}
	}
	if !same {
		t.Error("same seed should produce identical tables")
	}
	if !diff {
		t.Error("different seeds should produce different tables")
	}
}

func TestNewTable_GlorotBound(t *testing.T) {
	tbl := NewTable("item", 100, 16, 1)
	limit := math.Sqrt(6.0 / 16.0)
	for i := 0; i < 100; i++ {
		for _, v := range tbl.Row(i) {
			if math.Abs(v) > limit {
				t.Fatalf("init value %v exceeds glorot limit %v", v, limit)
			}
		}
	}
}

func TestTable_BatchCopies(t *testing.T) {
	tbl := NewTable("user", 5, 2, 1)
	batch := tbl.Batch([]int{0, 3, 0})

	r, c := batch.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("batch dims = (%d, %d), want (3, 2)", r, c)
	}
	if batch.At(0, 0) != tbl.Row(0)[0] || batch.At(1, 1) != tbl.Row(3)[1] {
		t.Error("batch rows should equal gathered table rows")
	}

	// mutating the batch must not touch the table
	orig := tbl.Row(0)[0]
	batch.Set(0, 0, 999)
	if tbl.Row(0)[0] != orig {
		t.Error("batch must be a copy, table row was mutated")
	}
}

func TestTable_AddToRow(t *testing.T) {
	tbl := NewTable("user", 2, 2, 1)
	before := append([]float64(nil), tbl.Row(1)...)
	tbl.AddToRow(1, 0.5, []float64{2, 4})
	if !almost(tbl.Row(1)[0], before[0]+1) || !almost(tbl.Row(1)[1], before[1]+2) {
		t.Errorf("AddToRow result = %v, want %v + [1 2]", tbl.Row(1), before)
	}
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-12 }
