package core

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrPolicyNotFound is returned by a PolicyRepository when a tenant has no stored policy
var ErrPolicyNotFound = errors.New("tenant policy not found")

// PolicyRepository stores tenant policies
type PolicyRepository interface {
	// Get retrieves the policy snapshot for a tenant
	Get(ctx context.Context, tenantID string) (*TenantPolicy, error)

	// Save stores a policy, replacing any previous one for the tenant
	Save(ctx context.Context, policy *TenantPolicy) error

	// Delete removes a tenant's policy
	Delete(ctx context.Context, tenantID string) error
}

// HTTPClient issues the outbound requests made while following redirects.
// Implementations must not follow redirects themselves.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives check statistics
type Recorder interface {
	// ObserveCheck is called once per delivered report
	ObserveCheck(report Report)

	// SetQueueDepth reports the number of jobs waiting for a worker
	SetQueueDepth(depth int)
}

// NopRecorder discards everything
type NopRecorder struct{}

func (NopRecorder) ObserveCheck(Report) {}

func (NopRecorder) SetQueueDepth(int) {}

// Matcher finds a match in a single URL string
type Matcher interface {
	// Find returns the matched substring and whether there was a match
	Find(url string) (string, bool)
}

// NewNoRedirectClient returns an http.Client that hands every redirect
// response back to the caller instead of following it
func NewNoRedirectClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
