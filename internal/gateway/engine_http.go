package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"proofgate/internal/gateway/models"
)

// HTTPEngine delegates proof checking to a remote verifier over HTTP.
// The remote side owns the checking algorithm; this adapter only carries the
// boundary contract: targets, settings, and the opaque proof in, the achieved
// security bits or a distinguishable rejection out.
type HTTPEngine struct {
	endpoint string
	client   *http.Client
}

// NewHTTPEngine builds an engine client for the given verifier endpoint.
func NewHTTPEngine(endpoint string) *HTTPEngine {
	return &HTTPEngine{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type checkProofRequest struct {
	CompositionTarget string          `json:"composition_target"`
	SamplingTarget    string          `json:"sampling_target"`
	Settings          models.Settings `json:"settings"`
	Proof             []byte          `json:"proof"`
}

type checkProofResponse struct {
	SecurityBits uint32 `json:"security_bits"`
	Error        string `json:"error,omitempty"`
}

// CheckProof posts the proof to the remote verifier and returns the achieved
// security bits. Any non-200 answer is a rejection.
func (e *HTTPEngine) CheckProof(ctx context.Context, targets models.TrustTargets, settings models.Settings, proof []byte) (uint32, error) {
	body, err := json.Marshal(checkProofRequest{
		CompositionTarget: targets.Composition.String(),
		SamplingTarget:    targets.Sampling.String(),
		Settings:          settings,
		Proof:             proof,
	})
	if err != nil {
		return 0, fmt.Errorf("encode check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("call verification engine: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read engine response: %w", err)
	}

	var out checkProofResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("decode engine response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("engine returned status %d", resp.StatusCode)
		}
		return 0, fmt.Errorf("engine rejected proof: %s", reason)
	}

	return out.SecurityBits, nil
}
