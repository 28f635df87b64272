package recommend

import "testing"

func TestRuleKeep(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		itemID     string
		score      float64
		popularity int
		want       bool
	}{
		{"score threshold pass", `item.score > 0.5`, "i1", 0.8, 1, true},
		{"score threshold reject", `item.score > 0.5`, "i1", 0.2, 1, false},
		{"blacklist", `item.id != "blocked"`, "blocked", 0.9, 1, false},
		{"popularity or score", `item.popularity > 10 || item.score > 2.0`, "i1", 0.5, 20, true},
		{"user match", `user.id == "u1"`, "i1", 0.5, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRule(tt.expr)
			if err != nil {
				t.Fatalf("NewRule(%q) error: %v", tt.expr, err)
			}
			keep, err := rule.Keep("u1", tt.itemID, tt.score, tt.popularity)
			if err != nil {
				t.Fatalf("Keep error: %v", err)
			}
			if keep != tt.want {
				t.Errorf("Keep = %v, want %v", keep, tt.want)
			}
		})
	}
}

func TestRuleCompileError(t *testing.T) {
	if _, err := NewRule("item.score >"); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestRuleNonBoolean(t *testing.T) {
	rule, err := NewRule("item.score + 1.0")
	if err != nil {
		t.Fatalf("NewRule error: %v", err)
	}
	if _, err := rule.Keep("u1", "i1", 0.5, 1); err == nil {
		t.Fatal("expected error for non-boolean rule result")
	}
}
