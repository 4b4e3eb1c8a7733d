package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFactorProvider_VerifyProof(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_ValidProof", func(t *testing.T) {
		// Setup gateway
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var request factorProviderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
			assert.Equal(t, "+15550100", request.EnrolledMaterial)
			assert.Equal(t, "123456", request.Proof)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(factorProviderResponse{Valid: true})
		}))
		defer server.Close()

		// Execute
		provider := NewHTTPFactorProvider(server.URL)
		ok, err := provider.VerifyProof(ctx, "+15550100", "123456")

		// Assert
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Success_InvalidProof", func(t *testing.T) {
		// Setup gateway
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(factorProviderResponse{Valid: false})
		}))
		defer server.Close()

		// Execute
		provider := NewHTTPFactorProvider(server.URL)
		ok, err := provider.VerifyProof(ctx, "+15550100", "000000")

		// Assert
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Error_GatewayFailure", func(t *testing.T) {
		// Setup gateway
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		// Execute
		provider := NewHTTPFactorProvider(server.URL)
		ok, err := provider.VerifyProof(ctx, "+15550100", "123456")

		// Assert
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("Error_ContextDeadlinePropagates", func(t *testing.T) {
		// Setup gateway that never answers in time
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		deadlineCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		// Execute
		provider := NewHTTPFactorProvider(server.URL)
		ok, err := provider.VerifyProof(deadlineCtx, "+15550100", "123456")

		// Assert
		assert.False(t, ok)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Error_UnreachableGateway", func(t *testing.T) {
		provider := NewHTTPFactorProvider("http://127.0.0.1:1/verify")
		ok, err := provider.VerifyProof(ctx, "+15550100", "123456")

		assert.Error(t, err)
		assert.False(t, ok)
	})
}
