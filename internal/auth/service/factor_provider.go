package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
)

// httpFactorProvider implements RemoteFactorProvider against an external
// verification gateway (SMS delivery service, device attestation service).
// The gateway receives the enrolled material and the presented proof and
// answers with a validity verdict.
type httpFactorProvider struct {
	endpoint   string
	httpClient *http.Client
}

type factorProviderRequest struct {
	EnrolledMaterial string `json:"enrolled_material"`
	Proof            string `json:"proof"`
}

type factorProviderResponse struct {
	Valid bool `json:"valid"`
}

// VerifyProof posts the proof to the gateway and returns its verdict. Context
// cancellation and deadlines propagate into the HTTP request, so a stalled
// gateway surfaces as context.DeadlineExceeded.
func (p *httpFactorProvider) VerifyProof(
	ctx context.Context,
	enrolledMaterial string,
	proof string,
) (bool, error) {
	payload, err := json.Marshal(factorProviderRequest{
		EnrolledMaterial: enrolledMaterial,
		Proof:            proof,
	})
	if err != nil {
		return false, apperrors.Wrap(err, "failed to encode factor verification request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, apperrors.Wrap(err, "failed to build factor verification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, apperrors.Wrap(err, "factor verification request failed")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false, apperrors.New(fmt.Sprintf(
			"factor verification gateway returned status %d", resp.StatusCode,
		))
	}

	var verdict factorProviderResponse
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, apperrors.Wrap(err, "failed to decode factor verification response")
	}

	return verdict.Valid, nil
}

// NewHTTPFactorProvider creates a RemoteFactorProvider backed by an HTTP
// verification gateway. The client timeout is a transport-level backstop; the
// per-attempt deadline comes from the caller's context.
func NewHTTPFactorProvider(endpoint string) RemoteFactorProvider {
	return &httpFactorProvider{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}
