package edgelog_test

import (
	"fmt"

	"github.com/kolkov/edgelog/edgelog"
)

// Example demonstrates basic usage. Normally the calls are inserted by the
// instrumentation pass.
func Example() {
	edgelog.Init()
	defer edgelog.Fini()

	total := 0
	for i := 0; i < 3; i++ {
		edgelog.Log()
		if i%2 == 0 {
			edgelog.Log()
			total += i
		}
	}

	fmt.Println(total)

	// Output:
	// 2
}

// Example_enriched shows calls carrying source metadata. They are written
// out only when EDGE_LOG_MODE=enriched.
func Example_enriched() {
	edgelog.Init()

	n := 7
	edgelog.LogEdge("example.go", "classify", 38, edgelog.DirectCall)
	if n > 5 {
		edgelog.LogEdge("example.go", "classify", 40, edgelog.ConditionalBranch)
		fmt.Println("large")
	}

	fmt.Println(edgelog.ConditionalBranch)

	// Output:
	// large
	// conditional branch
}
