package idgen

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUID_GeneratesDistinctValidIDs(t *testing.T) {
	var g Generator = UUID{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("generated id %q is not a uuid: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestFunc(t *testing.T) {
	g := Func(func() string { return "fixed" })
	if got := g.Generate(); got != "fixed" {
		t.Fatalf("Generate() = %q, want fixed", got)
	}
}
