package filter

import (
	"net/http"
	"testing"
	"time"

	"github.com/mikey/linkguard/internal/adapters/policy"
	"github.com/mikey/linkguard/internal/core"
	"github.com/mikey/linkguard/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestChecker(t *testing.T) *core.URLChecker {
	t.Helper()
	logger := zap.NewNop()

	catalog, err := core.DefaultCatalog(nil, []string{"adult-example.com"})
	require.NoError(t, err)
	classifier := core.NewClassifier(catalog, logger)
	follower := core.NewRedirectFollower(core.NewNoRedirectClient(2*time.Second), classifier, core.NewChainTracker(), core.DefaultMaxHops, http.MethodHead, logger)
	pool := core.NewDispatchPool(2, logger, nil)
	pool.Start()

	checker := core.NewURLChecker(classifier, follower, pool, utils.NewTextProcessor(logger), 4000, nil, logger)
	t.Cleanup(checker.Stop)
	return checker
}

func newTestPolicyService() *core.PolicyService {
	return core.NewPolicyService(policy.NewMemoryStore(zap.NewNop()), core.ModeRelaxed, core.DefaultCategories(), zap.NewNop())
}
