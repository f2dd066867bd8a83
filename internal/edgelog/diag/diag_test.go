package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(prev)
		SetDebug(false)
	})

	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	Warnf("no output path configured")
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "component=edgelog")
	assert.Contains(t, buf.String(), "no output path configured")

	buf.Reset()
	SetDebug(true)
	Debugf("visible %d", 2)
	assert.Contains(t, buf.String(), "visible 2")

	buf.Reset()
	Errorf("open %s: denied", "/x")
	assert.Contains(t, buf.String(), "level=error")
}
