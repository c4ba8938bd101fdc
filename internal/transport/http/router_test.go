package httptransport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/gateway"
	gatewayhandler "proofgate/internal/gateway/handler"
	gwmodels "proofgate/internal/gateway/models"
	issuancehandler "proofgate/internal/issuance/handler"
	issuancesvc "proofgate/internal/issuance/service"
	"proofgate/internal/issuance/store/config"
	"proofgate/internal/issuance/store/receipt"
	jwttoken "proofgate/internal/jwt_token"
	registryhandler "proofgate/internal/registry/handler"
	"proofgate/internal/registry/ledger"
	registrysvc "proofgate/internal/registry/service"
	"proofgate/internal/registry/store/credential"
	httptransport "proofgate/internal/transport/http"
	"proofgate/pkg/domain"
	outboxmemory "proofgate/pkg/platform/outbox/store/memory"
	"proofgate/pkg/platform/tx"
)

const (
	owner      = domain.Address("0xabc")
	controller = domain.Address("0xc0")
	claimant   = domain.Address("0xa1")
)

var proofBytes = []byte("attestation-bytes")

type env struct {
	router http.Handler
	jwt    *jwttoken.JWTService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	verifier := gateway.NewService(
		gateway.NewStaticEngine(proofBytes, 160),
		gwmodels.TrustTargets{Composition: "0xc011", Sampling: "0x5a11"},
		nil, nil, logger,
	)
	regService := registrysvc.New(ledger.New(credential.NewInMemory()), controller, nil, logger)
	receipts := receipt.NewInMemory()

	issService := issuancesvc.New(issuancesvc.Config{
		Verifier:     verifier,
		Registry:     regService,
		ConfigStore:  config.NewInMemory(),
		Outbox:       outboxmemory.New(),
		ReceiptCache: receipts,
		Owner:        owner,
		Identity:     controller,
		Runner:       tx.NewMemoryRunner(),
		Logger:       logger,
	})

	jwtService := jwttoken.NewJWTService("router-test-key", "proofgate", "proofgate")

	router := httptransport.NewRouter(httptransport.Config{
		Registry:  registryhandler.New(regService, logger),
		Gateway:   gatewayhandler.New(receipts, logger),
		Issuance:  issuancehandler.New(issService, logger),
		Extractor: jwtService,
		Health:    nil,
		Logger:    logger,
	})

	return &env{router: router, jwt: jwtService}
}

func (e *env) do(t *testing.T, method, path string, as domain.Address, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != "" {
		token, err := e.jwt.GenerateAccessToken(as, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) configure(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/admin/targets/verification", owner, map[string]string{"address": "0xfe1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/admin/targets/registry", owner, map[string]string{"address": "0xfe2"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func claimBody(t *testing.T, topic string) map[string]any {
	t.Helper()
	raw, err := json.Marshal(gwmodels.Proof{
		PublicInput: gwmodels.PublicInput{
			ProgramHash: "0x" + strings.Repeat("00", 32),
			Output:      []string{"0x2a"},
		},
		ProofData: proofBytes,
	})
	require.NoError(t, err)
	return map[string]any{"proof": json.RawMessage(raw), "topic": topic}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthz_DegradedComponent(t *testing.T) {
	e := newEnv(t)
	router := httptransport.NewRouter(httptransport.Config{
		Registry:  registryhandler.New(registrysvc.New(ledger.New(credential.NewInMemory()), controller, nil, slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler)),
		Gateway:   gatewayhandler.New(receipt.NewInMemory(), slog.New(slog.DiscardHandler)),
		Issuance:  issuancehandler.New(nil, slog.New(slog.DiscardHandler)),
		Extractor: e.jwt,
		Health: map[string]httptransport.HealthChecker{
			"database": func(ctx context.Context) error { return errors.New("connection refused") },
		},
		Logger: slog.New(slog.DiscardHandler),
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"down"`)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClaimRequiresToken(t *testing.T) {
	e := newEnv(t)
	e.configure(t)

	rec := e.do(t, http.MethodPost, "/claim", "", claimBody(t, "event_1"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegistryReadsArePublic(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/registry/credentials?owner=0xa1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestClaimFlow drives the full protocol over HTTP: configure, claim, read
// the credential back, fetch the receipt, and fail a transfer.
func TestClaimFlow(t *testing.T) {
	e := newEnv(t)
	e.configure(t)

	rec := e.do(t, http.MethodPost, "/claim", claimant, claimBody(t, "event_1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var claim struct {
		CredentialID uint64 `json:"credential_id"`
		Fact         string `json:"fact"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claim))
	assert.Equal(t, uint64(1), claim.CredentialID)

	rec = e.do(t, http.MethodGet, "/registry/credentials/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), claimant.String())

	rec = e.do(t, http.MethodGet, "/verify/receipts/"+claim.Fact, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), claim.Fact)

	rec = e.do(t, http.MethodPost, "/registry/credentials/1/transfer", claimant, map[string]string{"to": "0xb2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
