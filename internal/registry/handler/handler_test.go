package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/registry/handler"
	"proofgate/internal/registry/ledger"
	"proofgate/internal/registry/service"
	"proofgate/internal/registry/store/credential"
	"proofgate/pkg/domain"
)

const controller = domain.Address("0xc0")

func newRouter(t *testing.T) (chi.Router, *service.Service) {
	t.Helper()
	svc := service.New(ledger.New(credential.NewInMemory()), controller, nil, slog.New(slog.DiscardHandler))
	h := handler.New(svc, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.Register(r)
	return r, svc
}

func TestListByOwner(t *testing.T) {
	r, svc := newRouter(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, controller, "0xa1", "event_1")
	require.NoError(t, err)
	_, err = svc.Issue(ctx, controller, "0xa1", "event_2")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/registry/credentials?owner=0xa1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Owner       string `json:"owner"`
		Credentials []struct {
			ID    uint64 `json:"id"`
			Topic string `json:"topic"`
		} `json:"credentials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xa1", resp.Owner)
	require.Len(t, resp.Credentials, 2)
	assert.Equal(t, uint64(1), resp.Credentials[0].ID)
	assert.Equal(t, "event_1", resp.Credentials[0].Topic)
	assert.Equal(t, uint64(2), resp.Credentials[1].ID)
}

func TestListByOwner_EmptyForUnknownClaimant(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/registry/credentials?owner=0xdead", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credentials":[]`)
}

func TestListByOwner_BadOwnerParam(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/registry/credentials?owner=nothex", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCredential(t *testing.T) {
	r, svc := newRouter(t)
	_, err := svc.Issue(context.Background(), controller, "0xa1", "event_1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/registry/credentials/1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"owner":"0xa1"`)
}

func TestGetCredential_NotFound(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/registry/credentials/99", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransfer_Forbidden(t *testing.T) {
	r, svc := newRouter(t)
	_, err := svc.Issue(context.Background(), controller, "0xa1", "event_1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/registry/credentials/1/transfer",
		strings.NewReader(`{"to":"0xb2"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "transfer_not_allowed")
}

func TestTransfer_BadID(t *testing.T) {
	r, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/registry/credentials/zero/transfer",
		strings.NewReader(`{"to":"0xb2"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
