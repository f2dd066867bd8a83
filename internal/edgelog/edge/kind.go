package edge

// Kind classifies an edge. Values are produced by the instrumentation pass;
// the runtime only stores and serializes them.
type Kind uint8

// Edge kinds. The numbering is part of the call contract with the
// instrumentation pass and must not be reordered.
const (
	DirectCall Kind = iota
	IndirectCall
	Return
	ConditionalBranch
	UnconditionalBranch
	Switch
	Unreachable
	Unknown

	numKinds
)

var kindLabels = [numKinds]string{
	DirectCall:          "direct call",
	IndirectCall:        "indirect call",
	Return:              "return",
	ConditionalBranch:   "conditional branch",
	UnconditionalBranch: "unconditional branch",
	Switch:              "switch",
	Unreachable:         "unreachable",
	Unknown:             "unknown edge",
}

// String returns the human readable label written into enriched traces.
// Values outside the enum render as the Unknown label.
func (k Kind) String() string {
	if k >= numKinds {
		return kindLabels[Unknown]
	}
	return kindLabels[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k < numKinds
}

// Normalize maps out-of-range values to Unknown.
func (k Kind) Normalize() Kind {
	if k >= numKinds {
		return Unknown
	}
	return k
}

// Kinds returns all declared kinds in wire order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind returns the kind whose label is s.
func ParseKind(s string) (Kind, bool) {
	for k, label := range kindLabels {
		if label == s {
			return Kind(k), true
		}
	}
	return Unknown, false
}
