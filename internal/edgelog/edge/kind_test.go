package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindLabels(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{DirectCall, "direct call"},
		{IndirectCall, "indirect call"},
		{Return, "return"},
		{ConditionalBranch, "conditional branch"},
		{UnconditionalBranch, "unconditional branch"},
		{Switch, "switch"},
		{Unreachable, "unreachable"},
		{Unknown, "unknown edge"},
		{Kind(200), "unknown edge"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestParseKindRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		assert.True(t, ok, "label %q", k.String())
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("sideways jump")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Switch, Switch.Normalize())
	assert.Equal(t, Unknown, Kind(42).Normalize())
	assert.False(t, Kind(42).Valid())
	assert.True(t, Unreachable.Valid())
}

func TestRecordHasLine(t *testing.T) {
	assert.True(t, Record{Line: 0}.HasLine())
	assert.True(t, Record{Line: 10}.HasLine())
	assert.False(t, Record{Line: UnknownLine}.HasLine())
}
