package gateway_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"proofgate/internal/gateway"
	"proofgate/internal/gateway/mocks"
	"proofgate/internal/gateway/models"
	"proofgate/pkg/domain"
	dErrors "proofgate/pkg/domain-errors"
)

func testTargets(t *testing.T) models.TrustTargets {
	t.Helper()
	composition, err := domain.ParseAddress("0xc0de")
	require.NoError(t, err)
	sampling, err := domain.ParseAddress("0x00d5")
	require.NoError(t, err)
	return models.TrustTargets{Composition: composition, Sampling: sampling}
}

func validProofEnvelope(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"public_input": map[string]any{
			"program_hash": "0x" + strings.Repeat("00", 31) + "01",
			"output":       []string{"0x1", "0x2"},
		},
		"proof_data": base64.StdEncoding.EncodeToString([]byte("proof-bytes")),
	})
	require.NoError(t, err)
	return raw
}

func newService(t *testing.T, engine gateway.Engine) *gateway.Service {
	t.Helper()
	return gateway.NewService(engine, testTargets(t), nil, nil, slog.New(slog.DiscardHandler))
}

func TestVerify_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	svc := newService(t, engine)

	proof := validProofEnvelope(t)
	engine.EXPECT().
		CheckProof(gomock.Any(), testTargets(t), gomock.Any(), proof).
		Return(uint32(96), nil)

	receipt, err := svc.Verify(context.Background(), proof, models.Settings{})
	require.NoError(t, err)

	assert.False(t, receipt.Fact.IsNil())
	assert.Equal(t, uint32(96), receipt.SecurityBits)
	assert.Equal(t, models.ModeStrict, receipt.Settings.MemoryVerification)
	assert.Equal(t, uint(160), receipt.Settings.HasherBitLength)
	assert.Zero(t, receipt.JobID)
}

func TestVerify_SameStatementSameFact(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	svc := newService(t, engine)

	// Two envelopes with identical public input but different proof bytes.
	first := validProofEnvelope(t)
	second, err := json.Marshal(map[string]any{
		"public_input": map[string]any{
			"program_hash": "0x" + strings.Repeat("00", 31) + "01",
			"output":       []string{"0x1", "0x2"},
		},
		"proof_data": base64.StdEncoding.EncodeToString([]byte("different-proof-bytes")),
	})
	require.NoError(t, err)

	engine.EXPECT().
		CheckProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uint32(96), nil).
		Times(2)

	r1, err := svc.Verify(context.Background(), first, models.Settings{})
	require.NoError(t, err)
	r2, err := svc.Verify(context.Background(), second, models.Settings{})
	require.NoError(t, err)

	assert.Equal(t, r1.Fact, r2.Fact)
}

func TestVerify_UnknownModeRejectedBeforeEngine(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	// No EXPECT: the engine must not be consulted.
	svc := newService(t, engine)

	_, err := svc.Verify(context.Background(), validProofEnvelope(t),
		models.Settings{MemoryVerification: "paranoid"})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSettings))
}

func TestVerify_BadHasherBitLength(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := newService(t, mocks.NewMockEngine(ctrl))

	_, err := svc.Verify(context.Background(), validProofEnvelope(t),
		models.Settings{MemoryVerification: models.ModeStrict, HasherBitLength: 256})

	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidSettings))
}

func TestVerify_MalformedEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := newService(t, mocks.NewMockEngine(ctrl))

	_, err := svc.Verify(context.Background(), []byte("not json"), models.Settings{})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVerificationFailed))
	assert.Contains(t, err.Error(), "malformed_proof")
}

func TestVerify_EngineRejection(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	svc := newService(t, engine)

	engine.EXPECT().
		CheckProof(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(uint32(0), errors.New("constraint check failed"))

	_, err := svc.Verify(context.Background(), validProofEnvelope(t), models.Settings{})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeVerificationFailed))
}

func TestStaticEngine(t *testing.T) {
	engine := gateway.NewStaticEngine([]byte("proof-bytes"), 80)

	bits, err := engine.CheckProof(context.Background(), models.TrustTargets{}, models.Settings{}, validProofEnvelope(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(80), bits)

	other, err := json.Marshal(map[string]any{
		"public_input": map[string]any{"program_hash": "0x" + strings.Repeat("00", 32)},
		"proof_data":   base64.StdEncoding.EncodeToString([]byte("wrong")),
	})
	require.NoError(t, err)

	_, err = engine.CheckProof(context.Background(), models.TrustTargets{}, models.Settings{}, other)
	assert.Error(t, err)
}
