package filter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHTTPFilter(t *testing.T, metrics http.Handler) *HTTPFilter {
	t.Helper()
	return NewHTTPFilter(newTestChecker(t), newTestPolicyService(), zap.NewNop(), ":0", 5*time.Second, metrics)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHTTPFilter_CheckFlagged(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodPost, "/v1/tenants/guild-1/check", `{"text":"free stuff https://grabify.link/abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[checkResponse](t, rec)
	assert.True(t, resp.Checked)
	assert.Equal(t, "https://grabify.link/abc", resp.URL)
	assert.Equal(t, "flagged", resp.Verdict)
	assert.Equal(t, "IP_GRABBER", resp.Category)
	assert.Equal(t, "grabify.link", resp.Match)
	assert.Equal(t, "classified", resp.Outcome)
}

func TestHTTPFilter_CheckNoURL(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodPost, "/v1/tenants/guild-1/check", `{"text":"just words"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[checkResponse](t, rec).Checked)
}

func TestHTTPFilter_CheckMatureSkipsNSFW(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodPost, "/v1/tenants/guild-1/policy/categories", `{"enable":["nsfw"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/tenants/guild-1/check", `{"text":"https://adult-example.com/x"}`)
	assert.Equal(t, "NSFW", decode[checkResponse](t, rec).Category)

	rec = do(t, h, http.MethodPost, "/v1/tenants/guild-1/check", `{"text":"https://adult-example.com/x","mature":true}`)
	resp := decode[checkResponse](t, rec)
	assert.Equal(t, "unmatched", resp.Verdict)
	assert.Empty(t, resp.Category)
}

func TestHTTPFilter_CheckBadBody(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodPost, "/v1/tenants/guild-1/check", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPFilter_PolicyLifecycle(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodGet, "/v1/tenants/guild-7/policy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[policyResponse](t, rec)
	assert.Equal(t, "guild-7", p.Tenant)
	assert.Equal(t, "relaxed", p.Mode)
	assert.Equal(t, []string{"IP_GRABBER", "DISCORD_INVITE", "PHISHING"}, p.Categories)

	rec = do(t, h, http.MethodPut, "/v1/tenants/guild-7/policy/mode", `{"mode":"aggressive"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aggressive", decode[policyResponse](t, rec).Mode)

	rec = do(t, h, http.MethodPost, "/v1/tenants/guild-7/policy/categories", `{"enable":["Suspicious"],"disable":["Discord Invite"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"IP_GRABBER", "PHISHING", "SUSPICIOUS"}, decode[policyResponse](t, rec).Categories)

	rec = do(t, h, http.MethodDelete, "/v1/tenants/guild-7/policy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[policyResponse](t, rec)
	assert.Equal(t, "relaxed", p.Mode)
	assert.Equal(t, []string{"IP_GRABBER", "DISCORD_INVITE", "PHISHING"}, p.Categories)
}

func TestHTTPFilter_UnknownNames(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodPut, "/v1/tenants/guild-1/policy/mode", `{"mode":"paranoid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "paranoid")

	rec = do(t, h, http.MethodPost, "/v1/tenants/guild-1/policy/categories", `{"enable":["url"],"disable":["blacklist"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Neither half of the rejected request was applied.
	rec = do(t, h, http.MethodGet, "/v1/tenants/guild-1/policy", "")
	assert.NotContains(t, decode[policyResponse](t, rec).Categories, "URL")
}

func TestHTTPFilter_Categories(t *testing.T) {
	h := newTestHTTPFilter(t, nil).Router()

	rec := do(t, h, http.MethodGet, "/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cats := decode[[]categoryResponse](t, rec)
	require.Len(t, cats, 7)
	assert.Equal(t, categoryResponse{Name: "IP_GRABBER", Display: "Ip Grabber", Default: true}, cats[1])
}

func TestHTTPFilter_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("linkguard_checks_total 0\n"))
	})

	rec := do(t, newTestHTTPFilter(t, metrics).Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "linkguard_checks_total"))

	rec = do(t, newTestHTTPFilter(t, nil).Router(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPFilter_StopWithoutStart(t *testing.T) {
	assert.NoError(t, newTestHTTPFilter(t, nil).Stop())
}
