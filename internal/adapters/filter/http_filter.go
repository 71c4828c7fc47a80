package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mikey/linkguard/internal/core"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// HTTPFilter exposes the URL checker and tenant administration over HTTP
type HTTPFilter struct {
	checker        *core.URLChecker
	policies       *core.PolicyService
	logger         *zap.Logger
	listenAddr     string
	resultTimeout  time.Duration
	metricsHandler http.Handler
	router         *mux.Router
	server         *http.Server
}

// NewHTTPFilter creates a new HTTP filter. A nil metricsHandler leaves
// /metrics unrouted.
func NewHTTPFilter(
	checker *core.URLChecker,
	policies *core.PolicyService,
	logger *zap.Logger,
	listenAddr string,
	resultTimeout time.Duration,
	metricsHandler http.Handler,
) *HTTPFilter {
	f := &HTTPFilter{
		checker:        checker,
		policies:       policies,
		logger:         logger,
		listenAddr:     listenAddr,
		resultTimeout:  resultTimeout,
		metricsHandler: metricsHandler,
		router:         mux.NewRouter(),
	}
	f.routes()
	return f
}

func (f *HTTPFilter) routes() {
	api := f.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/categories", f.handleCategories).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenant}/check", f.handleCheck).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{tenant}/policy", f.handleGetPolicy).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenant}/policy", f.handleResetPolicy).Methods(http.MethodDelete)
	api.HandleFunc("/tenants/{tenant}/policy/mode", f.handleSetMode).Methods(http.MethodPut)
	api.HandleFunc("/tenants/{tenant}/policy/categories", f.handleCategoriesUpdate).Methods(http.MethodPost)

	if f.metricsHandler != nil {
		f.router.Handle("/metrics", f.metricsHandler).Methods(http.MethodGet)
	}
}

// Router returns the HTTP handler
func (f *HTTPFilter) Router() http.Handler { return f.router }

// Start starts listening in the background
func (f *HTTPFilter) Start() error {
	f.server = &http.Server{
		Addr:              f.listenAddr,
		Handler:           f.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	f.logger.Info("Starting HTTP filter", zap.String("listen_address", f.listenAddr))
	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the HTTP server down gracefully
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := f.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	f.logger.Info("HTTP filter stopped")
	return nil
}

type checkRequest struct {
	Text   string `json:"text"`
	Mature bool   `json:"mature"`
}

type hopResponse struct {
	URL      string `json:"url"`
	Status   int    `json:"status,omitempty"`
	Location string `json:"location,omitempty"`
}

type checkResponse struct {
	Checked  bool          `json:"checked"`
	URL      string        `json:"url,omitempty"`
	Verdict  string        `json:"verdict,omitempty"`
	Category string        `json:"category,omitempty"`
	Match    string        `json:"match,omitempty"`
	Outcome  string        `json:"outcome,omitempty"`
	ChainID  string        `json:"chain_id,omitempty"`
	Hops     int           `json:"hops,omitempty"`
	Trace    []hopResponse `json:"trace,omitempty"`
}

type policyResponse struct {
	Tenant     string    `json:"tenant"`
	Mode       string    `json:"mode"`
	Categories []string  `json:"categories"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type categoriesRequest struct {
	Enable  []string `json:"enable"`
	Disable []string `json:"disable"`
}

type categoryResponse struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Default bool   `json:"default"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (f *HTTPFilter) handleCheck(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	policy, err := f.policies.Policy(r.Context(), tenant)
	if err != nil {
		f.writeError(w, statusFor(err), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), f.resultTimeout)
	defer cancel()

	reports, ok := f.checker.CheckMessage(ctx, policy, core.CheckContext{Mature: req.Mature}, req.Text)
	if !ok {
		f.writeJSON(w, http.StatusOK, checkResponse{Checked: false})
		return
	}

	select {
	case report := <-reports:
		f.writeJSON(w, http.StatusOK, toCheckResponse(report))
	case <-ctx.Done():
		f.logger.Warn("Timed out waiting for URL check", zap.String("tenant", tenant))
		f.writeError(w, http.StatusGatewayTimeout, errors.New("timed out waiting for check result"))
	}
}

func (f *HTTPFilter) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := f.policies.Policy(r.Context(), mux.Vars(r)["tenant"])
	if err != nil {
		f.writeError(w, statusFor(err), err)
		return
	}
	f.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (f *HTTPFilter) handleResetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := f.policies.ResetPolicy(r.Context(), mux.Vars(r)["tenant"])
	if err != nil {
		f.writeError(w, statusFor(err), err)
		return
	}
	f.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (f *HTTPFilter) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	policy, err := f.policies.SetMode(r.Context(), mux.Vars(r)["tenant"], req.Mode)
	if err != nil {
		f.writeError(w, statusFor(err), err)
		return
	}
	f.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (f *HTTPFilter) handleCategoriesUpdate(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var req categoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	policy, err := f.policies.UpdateCategories(r.Context(), tenant, req.Enable, req.Disable)
	if err != nil {
		f.writeError(w, statusFor(err), err)
		return
	}
	f.writeJSON(w, http.StatusOK, toPolicyResponse(policy))
}

func (f *HTTPFilter) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories := core.Categories()
	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{
			Name:    c.Name(),
			Display: c.String(),
			Default: c.IsDefault(),
		})
	}
	f.writeJSON(w, http.StatusOK, resp)
}

func toCheckResponse(report core.Report) checkResponse {
	resp := checkResponse{
		Checked: true,
		URL:     report.URL,
		Verdict: report.Result.Verdict.String(),
		Match:   report.Result.Match,
		Outcome: report.Outcome.String(),
		Hops:    report.Hops,
	}
	if report.Result.Flagged() {
		resp.Category = report.Result.Category.Name()
	}
	if len(report.Trace) > 0 {
		resp.ChainID = report.ChainID.String()
		for _, hop := range report.Trace {
			resp.Trace = append(resp.Trace, hopResponse{URL: hop.URL, Status: hop.Status, Location: hop.Location})
		}
	}
	return resp
}

func toPolicyResponse(policy core.TenantPolicy) policyResponse {
	categories := policy.Categories.Names()
	if categories == nil {
		categories = []string{}
	}
	return policyResponse{
		Tenant:     policy.TenantID,
		Mode:       policy.Mode.String(),
		Categories: categories,
		UpdatedAt:  policy.UpdatedAt,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownCategory), errors.Is(err, core.ErrUnknownMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (f *HTTPFilter) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		f.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (f *HTTPFilter) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		f.logger.Error("Request failed", zap.Error(err))
	}
	f.writeJSON(w, status, errorResponse{Error: err.Error()})
}
