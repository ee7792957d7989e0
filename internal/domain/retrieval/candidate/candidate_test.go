package candidate

import (
	"math"
	"testing"

	"github.com/arcline-ai/ragdex/internal/domain/chunk"
)

func TestAbsent(t *testing.T) {
	r := Absent()
	if r.Present() {
		t.Error("Absent() rank must not be present")
	}
	if r.Position() != 0 {
		t.Errorf("Position() = %d, want 0", r.Position())
	}
	if r.Contribution(0.7, 60) != 0 {
		t.Errorf("Contribution() = %v, want exactly 0", r.Contribution(0.7, 60))
	}
}

func TestAt(t *testing.T) {
	r := At(3, 0.91)
	if !r.Present() {
		t.Error("At() rank must be present")
	}
	if r.Position() != 3 {
		t.Errorf("Position() = %d", r.Position())
	}
	if r.Score() != 0.91 {
		t.Errorf("Score() = %v", r.Score())
	}
}

func TestAt_ClampsPosition(t *testing.T) {
	r := At(0, 0.5)
	if r.Position() != 1 {
		t.Errorf("Position() = %d, want 1", r.Position())
	}
}

func TestContribution(t *testing.T) {
	r := At(1, 0.9)
	got := r.Contribution(0.7, 60)
	want := 0.7 / 61.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Contribution() = %v, want %v", got, want)
	}
}

func TestZeroValueRankIsAbsent(t *testing.T) {
	var r Rank
	if r.Present() {
		t.Error("zero value rank must be absent")
	}
	if r.Contribution(1, 60) != 0 {
		t.Error("zero value rank must contribute 0")
	}
}

func TestCandidate(t *testing.T) {
	ch := chunk.Reconstruct("c1", "text", "src", chunk.Trusted, "text", 0.5, []float32{1, 0})
	c := New(ch, At(2, 0.8), Absent())

	if c.ID() != "c1" {
		t.Errorf("ID() = %q", c.ID())
	}
	if !c.Semantic().Present() {
		t.Error("semantic rank should be present")
	}
	if c.Text().Present() {
		t.Error("text rank should be absent")
	}
	if c.InBoth() {
		t.Error("InBoth() should be false with one absent rank")
	}
	if !c.HasVector() {
		t.Error("HasVector() should reflect the chunk vector")
	}
	if c.Fused() != 0 {
		t.Errorf("Fused() = %v before fusion", c.Fused())
	}
}

func TestCandidate_InBoth(t *testing.T) {
	ch := chunk.Reconstruct("c1", "text", "src", chunk.Trusted, "text", 0.5, nil)
	c := New(ch, At(1, 0.9), At(4, 2.1))
	if !c.InBoth() {
		t.Error("InBoth() should be true with two present ranks")
	}
}

func TestWithFused(t *testing.T) {
	ch := chunk.Reconstruct("c1", "text", "src", chunk.Trusted, "text", 0.5, nil)
	c := New(ch, At(1, 0.9), Absent())

	c2 := c.WithFused(0.0123)

	if c.Fused() != 0 {
		t.Error("original candidate must keep zero fused score")
	}
	if c2.Fused() != 0.0123 {
		t.Errorf("Fused() = %v", c2.Fused())
	}
	if c2.ID() != "c1" {
		t.Error("WithFused should preserve the chunk")
	}
}
