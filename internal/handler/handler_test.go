package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/ledger"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/model"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/processor"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/requestid"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

type testServer struct {
	handler  http.Handler
	orch     *orchestrator.Orchestrator
	registry *health.Registry
	proc     *processor.MockProcessor
	clk      *clock.Mock
}

func setupTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	m := metrics.New()
	reg := health.NewRegistry(
		health.WithClock(clk),
		health.WithObserver(m),
		health.WithRand(rand.New(rand.NewSource(3))),
	)
	require.NoError(t, reg.ValidateAndSetConfig(config.DefaultGateways()))

	proc := processor.NewMockProcessor(processor.MockConfig{})
	orch := orchestrator.New(reg, ledger.NewMemoryStore(), proc, clk)
	t.Cleanup(orch.Close)

	opts = append([]Option{WithDegrader(proc), WithMetrics(m), WithClock(clk)}, opts...)
	h := New(orch, opts...)
	return &testServer{handler: h.Routes(), orch: orch, registry: reg, proc: proc, clk: clk}
}

func (s *testServer) do(t *testing.T, method, path, payload string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if payload != "" {
		reader = bytes.NewBufferString(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	var resp map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func cardBody(orderID string) string {
	return fmt.Sprintf(`{"order_id":%q,"amount":100.5,"payment_instrument":{"type":"card","card_number":"4111111111111111","expiry":"12/27","cvv":"123"}}`, orderID)
}

func (s *testServer) initiate(t *testing.T, orderID string) string {
	t.Helper()
	w, resp := s.do(t, "POST", "/api/transactions/initiate", cardBody(orderID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["selected_gateway"].(string)
}

func otherGateway(name string) string {
	for _, g := range config.DefaultGateways() {
		if g.Name != name {
			return g.Name
		}
	}
	return ""
}

func TestInitiateTransaction_Success(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/api/transactions", "/api/transactions/initiate"} {
		t.Run(path, func(t *testing.T) {
			orderID := "order" + strings.ReplaceAll(path, "/", "-")
			w, resp := s.do(t, "POST", path, cardBody(orderID))

			require.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, orderID, resp["order_id"])
			assert.Equal(t, 100.5, resp["amount"])
			assert.Equal(t, "pending", resp["status"])
			assert.True(t, s.registry.Has(resp["selected_gateway"].(string)))
			assert.Contains(t, resp, "created_at")
			assert.Contains(t, resp, "timestamp")
			assert.NotEmpty(t, resp["request_id"])
			assert.Equal(t, resp["request_id"], w.Header().Get(requestid.Header))
		})
	}
}

func TestInitiateTransaction_ReusesIncomingRequestID(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest("POST", "/api/transactions", bytes.NewBufferString(cardBody("order-rid")))
	req.Header.Set(requestid.Header, "client-req-7")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "client-req-7", resp["request_id"])
	assert.Equal(t, "client-req-7", w.Header().Get(requestid.Header))
}

func TestInitiateTransaction_ValidationErrors(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing order_id", `{"amount":10,"payment_instrument":{"type":"upi","upi_id":"a@bank"}}`, "order_id"},
		{"blank order_id", `{"order_id":"   ","amount":10,"payment_instrument":{"type":"upi","upi_id":"a@bank"}}`, "order_id"},
		{"zero amount", `{"order_id":"o","amount":0,"payment_instrument":{"type":"upi","upi_id":"a@bank"}}`, "amount"},
		{"negative amount", `{"order_id":"o","amount":-5,"payment_instrument":{"type":"upi","upi_id":"a@bank"}}`, "amount"},
		{"missing instrument", `{"order_id":"o","amount":10}`, "payment_instrument"},
		{"missing type", `{"order_id":"o","amount":10,"payment_instrument":{}}`, "payment_instrument.type"},
		{"unknown type", `{"order_id":"o","amount":10,"payment_instrument":{"type":"crypto"}}`, "payment_instrument.type"},
		{"short card number", `{"order_id":"o","amount":10,"payment_instrument":{"type":"card","card_number":"4111","expiry":"12/27"}}`, "payment_instrument.card_number"},
		{"bad expiry", `{"order_id":"o","amount":10,"payment_instrument":{"type":"card","card_number":"4111111111111111","expiry":"13/27"}}`, "payment_instrument.expiry"},
		{"missing expiry", `{"order_id":"o","amount":10,"payment_instrument":{"type":"card","card_number":"4111111111111111"}}`, "payment_instrument.expiry"},
		{"bad cvv", `{"order_id":"o","amount":10,"payment_instrument":{"type":"card","card_number":"4111111111111111","expiry":"12/27","cvv":"12"}}`, "payment_instrument.cvv"},
		{"bad upi", `{"order_id":"o","amount":10,"payment_instrument":{"type":"upi","upi_id":"nobank"}}`, "payment_instrument.upi_id"},
		{"missing bank code", `{"order_id":"o","amount":10,"payment_instrument":{"type":"netbanking"}}`, "payment_instrument.bank_code"},
		{"long bank code", `{"order_id":"o","amount":10,"payment_instrument":{"type":"netbanking","bank_code":"ABCDEFGHIJK"}}`, "payment_instrument.bank_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(t, "POST", "/api/transactions", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Validation failed", resp["error"])

			details, ok := resp["details"].([]any)
			require.True(t, ok)
			fields := make([]string, 0, len(details))
			for _, d := range details {
				fields = append(fields, d.(map[string]any)["field"].(string))
			}
			assert.Contains(t, fields, tt.field)
		})
	}

	w, resp := s.do(t, "POST", "/api/transactions", `{invalid}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp["message"], "invalid request body")
}

func TestInitiateTransaction_ValidInstruments(t *testing.T) {
	s := setupTestServer(t)

	bodies := map[string]string{
		"upi":        `{"order_id":"o-upi","amount":10,"payment_instrument":{"type":"upi","upi_id":"jane.doe@okaxis"}}`,
		"netbanking": `{"order_id":"o-nb","amount":10,"payment_instrument":{"type":"netbanking","bank_code":"HDFC"}}`,
		"card":       `{"order_id":"o-card","amount":0.01,"payment_instrument":{"type":"card","card_number":"4111111111111","expiry":"01/30"}}`,
	}
	for name, b := range bodies {
		t.Run(name, func(t *testing.T) {
			w, _ := s.do(t, "POST", "/api/transactions", b)
			assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		})
	}
}

func TestInitiateTransaction_Duplicate(t *testing.T) {
	s := setupTestServer(t)
	s.initiate(t, "order-dup")

	w, resp := s.do(t, "POST", "/api/transactions", cardBody("order-dup"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Transaction already exists for this order_id", resp["error"])
	assert.Equal(t, "order-dup", resp["order_id"])
	assert.Equal(t, "pending", resp["status"])
}

func TestInitiateTransaction_AllGatewaysUnhealthy(t *testing.T) {
	s := setupTestServer(t)
	for _, name := range s.registry.Names() {
		require.True(t, s.registry.Disable(name, 0))
	}

	w, resp := s.do(t, "POST", "/api/transactions", cardBody("order-503"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "All gateways are unhealthy", resp["error"])
}

func TestCallback(t *testing.T) {
	s := setupTestServer(t)
	gw := s.initiate(t, "order-cb")

	callback := func(gateway, status string) (*httptest.ResponseRecorder, map[string]any) {
		return s.do(t, "POST", "/api/transactions/callback",
			fmt.Sprintf(`{"order_id":"order-cb","gateway":%q,"status":%q}`, gateway, status))
	}

	w, resp := callback(otherGateway(gw), "success")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gw, resp["selected_gateway"])

	w, resp = callback(gw, "success")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Callback processed successfully", resp["message"])
	assert.Equal(t, true, resp["success"])

	w, resp = callback(gw, "failure")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "completed", resp["current_status"])

	view, _ := s.registry.Snapshot(gw)
	assert.Equal(t, 1, view.SuccessfulRequests)
	assert.Zero(t, view.FailedRequests)
}

func TestCallback_Rejections(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown order", `{"order_id":"nope","gateway":"payu","status":"success"}`, http.StatusNotFound},
		{"bad status", `{"order_id":"o","gateway":"payu","status":"maybe"}`, http.StatusBadRequest},
		{"missing status", `{"order_id":"o","gateway":"payu"}`, http.StatusBadRequest},
		{"unknown gateway", `{"order_id":"o","gateway":"stripe","status":"success"}`, http.StatusBadRequest},
		{"missing order", `{"gateway":"payu","status":"success"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, "POST", "/api/transactions/callback", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestSimulateCallbacks(t *testing.T) {
	s := setupTestServer(t)
	gw := s.initiate(t, "order-sim")

	w, resp := s.do(t, "POST", "/api/transactions/simulate-failure", fmt.Sprintf(`{"order_id":"order-sim","gateway":%q}`, gw))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "failed", resp["status"])

	w, resp = s.do(t, "POST", "/api/transactions/simulate-success", fmt.Sprintf(`{"order_id":"order-sim","gateway":%q}`, gw))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", resp["status"])

	w, _ = s.do(t, "POST", "/api/transactions/simulate-success", `{"order_id":"missing","gateway":"payu"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = s.do(t, "POST", "/api/transactions/simulate-success", `{"order_id":"order-sim"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields: gateway", resp["message"])
}

func TestBulkFailure_DegradesGatewayHealth(t *testing.T) {
	s := setupTestServer(t)
	for i := 0; i < 40; i++ {
		s.initiate(t, fmt.Sprintf("order-%02d", i))
	}

	w, resp := s.do(t, "POST", "/api/transactions/bulk-failure", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(40), resp["total_transactions"])
	assert.Equal(t, float64(40), resp["success_count"])
	assert.Equal(t, float64(0), resp["failure_count"])

	w, resp = s.do(t, "GET", "/api/transactions/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp["transaction_stats"].(map[string]any)
	assert.Equal(t, float64(40), stats["total_transactions"])
	assert.Equal(t, float64(40), stats["by_status"].(map[string]any)["failed"])
	assert.Len(t, stats["recent_transactions"], config.RecentTransactionsLimit)

	// Every gateway that reached min_requests is now disabled.
	disabled := 0
	for _, v := range s.registry.SnapshotAll() {
		if v.WindowCount >= v.MinRequests {
			assert.False(t, v.IsHealthy, v.Name)
		}
		if !v.IsHealthy {
			disabled++
		}
	}
	assert.Positive(t, disabled)

	w, resp = s.do(t, "POST", "/api/transactions/bulk-success", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["total_transactions"])
}

func TestListTransactions(t *testing.T) {
	s := setupTestServer(t)
	s.initiate(t, "order-a")
	s.clk.Add(time.Second)
	s.initiate(t, "order-b")

	w, resp := s.do(t, "GET", "/api/transactions", "")
	require.Equal(t, http.StatusOK, w.Code)
	txs := resp["transactions"].([]any)
	require.Len(t, txs, 2)
	assert.Equal(t, "order-a", txs[0].(map[string]any)["order_id"])
	assert.Contains(t, resp, "transaction_stats")
}

func TestGatewayHealth(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "GET", "/api/gateways/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", resp["status"])
	assert.Equal(t, config.ServiceName, resp["service"])
	assert.Equal(t, config.Version, resp["version"])
	assert.Equal(t, false, resp["all_gateways_unhealthy"])
	assert.Len(t, resp["gateways"], 3)
	assert.Contains(t, resp, "memory")
	assert.Contains(t, resp, "transactions")

	for _, name := range s.registry.Names() {
		s.registry.Disable(name, 0)
	}
	_, resp = s.do(t, "GET", "/api/gateways/health", "")
	assert.Equal(t, "DEGRADED", resp["status"])
	assert.Equal(t, true, resp["all_gateways_unhealthy"])
}

func TestGatewayStatsAndDetail(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "GET", "/api/gateways/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := resp["gateway_stats"].(map[string]any)
	razorpay := stats["razorpay"].(map[string]any)
	assert.Equal(t, true, razorpay["is_healthy"])
	assert.Equal(t, float64(40), razorpay["weight"])
	assert.Equal(t, float64(1), razorpay["success_rate"])

	w, resp = s.do(t, "GET", "/api/gateways/payu", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payu", resp["gateway"].(map[string]any)["name"])

	w, _ = s.do(t, "GET", "/api/gateways/stripe", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateGatewayConfig(t *testing.T) {
	s := setupTestServer(t)

	valid := `{"gateways":[
		{"name":"razorpay","weight":60,"success_threshold":0.8,"min_requests":5,"disable_duration_minutes":10},
		{"name":"stripe","weight":40,"success_threshold":0.9,"min_requests":10,"disable_duration_minutes":30}
	]}`
	w, resp := s.do(t, "PUT", "/api/gateways/config", valid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, resp["gateways"], 2)
	assert.Equal(t, []string{"razorpay", "stripe"}, s.registry.Names())

	invalid := `{"gateways":[
		{"name":"razorpay","weight":80,"success_threshold":0.8,"min_requests":5,"disable_duration_minutes":10},
		{"name":"payu","weight":40,"success_threshold":1.5,"min_requests":10,"disable_duration_minutes":30}
	]}`
	w, resp = s.do(t, "PUT", "/api/gateways/config", invalid)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid configuration", resp["error"])
	assert.Len(t, resp["details"], 2)
	assert.Equal(t, []string{"razorpay", "stripe"}, s.registry.Names(), "rejected config must not be installed")
}

func TestSetGatewayState(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "POST", "/api/gateways/payu/state", `{"healthy":false,"duration_minutes":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := resp["gateway"].(map[string]any)
	assert.Equal(t, false, view["is_healthy"])
	assert.NotNil(t, view["disabled_until"])

	s.clk.Add(6 * time.Minute)
	for i := 0; i < 50; i++ {
		_, err := s.registry.SelectGateway()
		require.NoError(t, err)
	}
	v, _ := s.registry.Snapshot("payu")
	assert.True(t, v.IsHealthy, "expired manual disable is lifted on selection")

	w, _ = s.do(t, "POST", "/api/gateways/payu/state", `{"healthy":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, resp = s.do(t, "POST", "/api/gateways/payu/state", `{"healthy":true,"reset_stats":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	view = resp["gateway"].(map[string]any)
	assert.Equal(t, true, view["is_healthy"])
	assert.Equal(t, float64(0), view["total_requests"])

	w, _ = s.do(t, "POST", "/api/gateways/stripe/state", `{"healthy":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, "POST", "/api/gateways/payu/state", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetGatewayState_RejectsDurationOutOfRange(t *testing.T) {
	s := setupTestServer(t)

	for _, payload := range []string{
		`{"healthy":false,"duration_minutes":-1}`,
		`{"healthy":false,"duration_minutes":153722868}`,
	} {
		w, resp := s.do(t, "POST", "/api/gateways/payu/state", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.Equal(t, "Validation failed", resp["error"])
	}
	v, _ := s.registry.Snapshot("payu")
	assert.True(t, v.IsHealthy)

	longest := fmt.Sprintf(`{"healthy":false,"duration_minutes":%d}`, config.MaxDisableDurationMinutes)
	w, resp := s.do(t, "POST", "/api/gateways/payu/state", longest)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["gateway"].(map[string]any)["is_healthy"])

	s.clk.Add(time.Hour)
	for i := 0; i < 20; i++ {
		name, err := s.registry.SelectGateway()
		require.NoError(t, err)
		assert.NotEqual(t, "payu", name)
	}
}

func TestResetGateways(t *testing.T) {
	s := setupTestServer(t)
	require.True(t, s.registry.Disable("payu", 0))
	require.True(t, s.registry.Disable("cashfree", 0))

	w, _ := s.do(t, "POST", "/api/gateways/reset", `{"gateway":"payu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	v, _ := s.registry.Snapshot("payu")
	assert.True(t, v.IsHealthy)
	v, _ = s.registry.Snapshot("cashfree")
	assert.False(t, v.IsHealthy)

	w, _ = s.do(t, "POST", "/api/gateways/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.registry.AllUnhealthy())
	v, _ = s.registry.Snapshot("cashfree")
	assert.True(t, v.IsHealthy)

	w, _ = s.do(t, "POST", "/api/gateways/reset", `{"gateway":"stripe"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSimulateDegrade(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "POST", "/api/simulate/degrade", `{"gateway":"payu","degraded":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payu", resp["gateway"])
	assert.Equal(t, true, resp["degraded"])
	assert.True(t, s.proc.IsDegraded("payu"))

	w, _ = s.do(t, "POST", "/api/simulate/degrade", `{"gateway":"stripe","degraded":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, "POST", "/api/simulate/degrade", `{"degraded":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateBatch(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "POST", "/api/simulate/batch", `{"count":10,"instrument":"upi","callback":"success"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := resp["summary"].(map[string]any)
	assert.Equal(t, float64(10), summary["requested"])
	assert.Equal(t, float64(10), summary["initiated"])
	assert.Equal(t, float64(10), summary["completed"])
	assert.Equal(t, float64(1), summary["accept_rate"])

	txs, err := s.orch.Transactions(t.Context())
	require.NoError(t, err)
	require.Len(t, txs, 10)
	assert.Equal(t, model.InstrumentUPI, txs[0].PaymentInstrument.Type)
}

func TestSimulateBatch_InvalidRequests(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"zero count", `{"count":0}`},
		{"negative count", `{"count":-5}`},
		{"too large", `{"count":1001}`},
		{"bad instrument", `{"count":1,"instrument":"cash"}`},
		{"bad callback", `{"count":1,"callback":"maybe"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, "POST", "/api/simulate/batch", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestResetApplication(t *testing.T) {
	s := setupTestServer(t)
	s.initiate(t, "order-reset")
	require.True(t, s.registry.Disable("payu", 0))

	w, resp := s.do(t, "POST", "/api/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Application reset successfully", resp["message"])

	txs, err := s.orch.Transactions(t.Context())
	require.NoError(t, err)
	assert.Empty(t, txs)
	v, _ := s.registry.Snapshot("payu")
	assert.True(t, v.IsHealthy)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", resp["status"])

	s.initiate(t, "order-m")
	w, _ = s.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nimbus_gateway_selections_total")
	assert.Contains(t, w.Body.String(), `route="POST /api/transactions/initiate"`)
}

func TestDashboard(t *testing.T) {
	s := setupTestServer(t)
	s.initiate(t, "order-dash")

	w, _ := s.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	for _, name := range s.registry.Names() {
		assert.Contains(t, body, name)
	}
	assert.Contains(t, body, "order-dash")
}

func TestRouting_MethodAndPathMismatch(t *testing.T) {
	s := setupTestServer(t)

	w, _ := s.do(t, "GET", "/api/transactions/callback", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w, _ = s.do(t, "GET", "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, WithRateLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))

	w, _ := s.do(t, "GET", "/api/gateways/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := s.do(t, "GET", "/api/gateways/stats", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", resp["error"])

	w, _ = s.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code, "probes are not rate limited")
}
