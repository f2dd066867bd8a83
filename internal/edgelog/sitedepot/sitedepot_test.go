package sitedepot

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
)

// TestEnrichedLineFormat pins the literal enriched line format.
func TestEnrichedLineFormat(t *testing.T) {
	Reset()

	site := Intern("a.c", "f", 10, edge.ConditionalBranch)
	got := string(site.AppendLine(nil, 0x1000))

	want := "[a.c:f:10] conditional branch @0x1000"
	if got != want {
		t.Errorf("AppendLine = %q, want %q", got, want)
	}
}

// TestUnknownLine tests that negative lines render as "?".
func TestUnknownLine(t *testing.T) {
	Reset()

	for _, line := range []int{-1, -42} {
		site := Intern("main.go", "main.run", line, edge.Return)
		got := string(site.AppendLine(nil, 0xdeadbeef))
		want := "[main.go:main.run:?] return @0xdeadbeef"
		if got != want {
			t.Errorf("line %d: AppendLine = %q, want %q", line, got, want)
		}
	}

	// Both negative lines intern to the same site.
	if n := Stats(); n != 1 {
		t.Errorf("Expected 1 unique site, got %d", n)
	}
}

// TestInternDeduplication tests that identical tuples share one Site.
func TestInternDeduplication(t *testing.T) {
	Reset()

	s1 := Intern("x.go", "pkg.F", 3, edge.Switch)
	s2 := Intern("x.go", "pkg.F", 3, edge.Switch)
	if s1 != s2 {
		t.Error("Expected same Site pointer (deduplication)")
	}

	s3 := Intern("x.go", "pkg.F", 4, edge.Switch)
	if s3 == s1 {
		t.Error("Different lines must not share a Site")
	}
	s4 := Intern("x.go", "pkg.F", 3, edge.Unreachable)
	if s4 == s1 {
		t.Error("Different kinds must not share a Site")
	}

	if n := Stats(); n != 3 {
		t.Errorf("Expected 3 unique sites, got %d", n)
	}
}

// TestHashFieldBoundaries tests that moving bytes between fields changes
// the hash.
func TestHashFieldBoundaries(t *testing.T) {
	h1 := hashSite("ab", "c", 1, edge.Unknown)
	h2 := hashSite("a", "bc", 1, edge.Unknown)
	if h1 == h2 {
		t.Error("hashSite ignores field boundaries")
	}
}

// TestOutOfRangeKind tests that invalid kinds are stored as Unknown.
func TestOutOfRangeKind(t *testing.T) {
	Reset()

	site := Intern("a.c", "f", 1, edge.Kind(99))
	if site.Kind != edge.Unknown {
		t.Errorf("Kind = %v, want Unknown", site.Kind)
	}
	rec := site.Record(0x10)
	if rec.PC != 0x10 || rec.File != "a.c" || rec.Line != 1 {
		t.Errorf("Record = %+v", rec)
	}
}

// TestConcurrentIntern interns the same sites from many goroutines.
func TestConcurrentIntern(t *testing.T) {
	Reset()

	const goroutines = 32
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				Intern(fmt.Sprintf("f%d.go", i%10), "fn", i%10, edge.DirectCall)
			}
		}()
	}
	wg.Wait()

	if n := Stats(); n != 10 {
		t.Errorf("Expected 10 unique sites, got %d", n)
	}
}

// BenchmarkAppendLine measures formatting of an interned site.
func BenchmarkAppendLine(b *testing.B) {
	site := Intern("a.c", "f", 10, edge.ConditionalBranch)
	buf := make([]byte, 0, 128)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = site.AppendLine(buf[:0], uintptr(i))
	}
}
