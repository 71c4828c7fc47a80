package metrics

import (
	"testing"
	"time"

	"github.com/mikey/linkguard/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ObserveCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.ObserveCheck(core.Report{
		Outcome:  core.OutcomeResolved,
		Result:   core.Result{Verdict: core.VerdictFlagged, Category: core.CategoryPhishing, Match: "dlscord.gift"},
		Hops:     2,
		Duration: 30 * time.Millisecond,
	})
	rec.ObserveCheck(core.Report{Outcome: core.OutcomeNoMatch})
	rec.ObserveCheck(core.Report{
		Outcome: core.OutcomeClassified,
		Result:  core.Result{Verdict: core.VerdictWhitelisted, Match: "github.com"},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Checks.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Checks.WithLabelValues("no_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Checks.WithLabelValues("classified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Flags.WithLabelValues("PHISHING")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.Flags))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.RedirectHops))
}

func TestRecorder_QueueDepth(t *testing.T) {
	rec := NewRecorder(prometheus.NewRegistry())

	rec.SetQueueDepth(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(rec.QueueDepth))

	rec.SetQueueDepth(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.QueueDepth))
}

func TestRecorder_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRecorder(reg)

	assert.Panics(t, func() { NewRecorder(reg) }, "duplicate registration must fail loudly")
}
