package filter

import (
	"bytes"
	"context"
	"testing"

	"github.com/mikey/linkguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCliFilter_ProcessLinks(t *testing.T) {
	var out bytes.Buffer
	policy := core.TenantPolicy{Mode: core.ModeRelaxed, Categories: core.AllCategories()}
	f := NewCliFilter(newTestChecker(t), policy, core.CheckContext{}, zap.NewNop(), &out, true)

	flagged, err := f.ProcessLinks(context.Background(), []string{
		"https://grabify.link/abc",
		"https://github.com/mikey",
		"not a link",
		"http://cool.webcam/",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, flagged)

	report := out.String()
	assert.Contains(t, report, "Mode: relaxed")
	assert.Contains(t, report, "[flagged]     https://grabify.link/abc -> Ip Grabber (grabify.link)")
	assert.Contains(t, report, "[whitelisted] https://github.com/mikey (github.com)")
	assert.Contains(t, report, "[skipped]     not a link (no URL found)")
	assert.Contains(t, report, "-> Suspicious (.webcam)")
	assert.Contains(t, report, "Checked 4 links, 2 flagged")
}

func TestCliFilter_StartStop(t *testing.T) {
	f := NewCliFilter(nil, core.TenantPolicy{}, core.CheckContext{}, zap.NewNop(), &bytes.Buffer{}, false)
	assert.NoError(t, f.Start())
	assert.NoError(t, f.Stop())
}
