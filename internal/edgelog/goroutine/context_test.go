package goroutine

import (
	"testing"

	"github.com/kolkov/edgelog/internal/edgelog/buffer"
)

// TestAlloc tests Context allocation and initialization.
func TestAlloc(t *testing.T) {
	tests := []struct {
		name string
		gid  int64
	}{
		{"main goroutine", 1},
		{"worker", 42},
		{"large id", 1 << 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Alloc(tt.gid, nil)

			if ctx.GID != tt.gid {
				t.Errorf("Alloc(%d).GID = %d", tt.gid, ctx.GID)
			}
			// Cursor must start at the zero sentinel.
			if ctx.Prev != 0 {
				t.Errorf("Alloc(%d).Prev = %#x, want 0", tt.gid, ctx.Prev)
			}
			if ctx.Shard != nil {
				t.Error("Alloc with nil shard produced a shard")
			}
		})
	}
}

// TestAdvanceChain verifies the cursor invariant: each edge starts where the
// previous one ended, and the first edge starts at zero.
func TestAdvanceChain(t *testing.T) {
	ctx := Alloc(1, nil)
	points := []uintptr{0x1000, 0x1010, 0x2000, 0x1000, 0x3000}

	var prev uintptr
	for i, p := range points {
		e := ctx.Advance(p)
		if e.Prev != prev {
			t.Errorf("edge %d: Prev = %#x, want %#x", i, e.Prev, prev)
		}
		if e.Cur != p {
			t.Errorf("edge %d: Cur = %#x, want %#x", i, e.Cur, p)
		}
		if ctx.Prev != p {
			t.Errorf("edge %d: cursor = %#x, want %#x", i, ctx.Prev, p)
		}
		prev = p
	}
}

// TestRecordIntoShard verifies that Record buffers the advanced edges.
func TestRecordIntoShard(t *testing.T) {
	shard := buffer.NewShard(3, nil)
	ctx := Alloc(3, shard)

	for i := uintptr(1); i <= 10; i++ {
		if !ctx.Record(i * 0x10) {
			t.Fatalf("Record(%#x) dropped with unlimited budget", i*0x10)
		}
	}

	edges := shard.Edges()
	if len(edges) != 10 {
		t.Fatalf("shard has %d edges, want 10", len(edges))
	}
	if edges[0].Prev != 0 {
		t.Errorf("first edge Prev = %#x, want 0", edges[0].Prev)
	}
	for i := 1; i < len(edges); i++ {
		if edges[i].Prev != edges[i-1].Cur {
			t.Errorf("edge %d: Prev = %#x, previous Cur = %#x", i, edges[i].Prev, edges[i-1].Cur)
		}
	}
}

// TestRecordDroppedStillAdvances verifies that a dropped edge does not break
// the cursor chain of the following edges.
func TestRecordDroppedStillAdvances(t *testing.T) {
	shard := buffer.NewShard(1, buffer.NewBudget(1))
	ctx := Alloc(1, shard)

	if !ctx.Record(0x10) {
		t.Fatal("first Record dropped")
	}
	if ctx.Record(0x20) {
		t.Fatal("second Record should exceed the budget")
	}
	if ctx.Prev != 0x20 {
		t.Errorf("cursor = %#x after dropped edge, want 0x20", ctx.Prev)
	}

	noShard := Alloc(2, nil)
	if noShard.Record(0x30) {
		t.Error("Record without shard reported success")
	}
	if noShard.Prev != 0x30 {
		t.Errorf("cursor = %#x, want 0x30", noShard.Prev)
	}
}

// BenchmarkAdvance measures the cursor update on the hot path.
func BenchmarkAdvance(b *testing.B) {
	ctx := Alloc(1, nil)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = ctx.Advance(uintptr(i))
	}
}
