package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

func setupCredentialRouter(credentials *mockCredentialUseCase) *gin.Engine {
	handler := NewCredentialHandler(credentials, createTestLogger())

	router := gin.New()
	router.POST("/v1/principals/:id/credentials", handler.EnrollHandler)

	return router
}

func TestCredentialHandler_EnrollHandler(t *testing.T) {
	t.Run("Success_PasswordEnrolled", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}
		principalID := uuid.Must(uuid.NewV7())
		credentialID := uuid.Must(uuid.NewV7())
		secret := "Str0ng&Secret!Pass" //nolint:gosec // test fixture, not a real credential

		// Setup expectations
		mockCredentials.On("Enroll", mock.Anything, mock.MatchedBy(func(input *identityDomain.EnrollCredentialInput) bool {
			return input.PrincipalID == principalID &&
				input.Method == identityDomain.PasswordMethod &&
				input.SecretMaterial == secret
		})).
			Return(&identityDomain.EnrollCredentialOutput{ID: credentialID}, nil).
			Once()

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/"+principalID.String()+"/credentials",
			jsonBody(t, gin.H{
				"method":          "password",
				"secret_material": secret,
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert: the secret material never appears in the response
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), secret)

		var response EnrollCredentialResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, credentialID.String(), response.ID)
		assert.Equal(t, principalID.String(), response.PrincipalID)
		assert.Equal(t, "password", response.Method)
		mockCredentials.AssertExpectations(t)
	})

	t.Run("Success_TOTPSeedEnrolled", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}
		principalID := uuid.Must(uuid.NewV7())
		credentialID := uuid.Must(uuid.NewV7())
		seed := "JBSWY3DPEHPK3PXP" //nolint:gosec // test fixture, not a real credential

		// Setup expectations
		mockCredentials.On("Enroll", mock.Anything, mock.MatchedBy(func(input *identityDomain.EnrollCredentialInput) bool {
			return input.Method == identityDomain.TOTPMethod && input.SecretMaterial == seed
		})).
			Return(&identityDomain.EnrollCredentialOutput{ID: credentialID}, nil).
			Once()

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/"+principalID.String()+"/credentials",
			jsonBody(t, gin.H{
				"method":          "totp",
				"secret_material": seed,
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), seed)
		mockCredentials.AssertExpectations(t)
	})

	t.Run("Error_WeakPassword", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}
		principalID := uuid.Must(uuid.NewV7())

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/"+principalID.String()+"/credentials",
			jsonBody(t, gin.H{
				"method":          "password",
				"secret_material": "weakpassword",
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockCredentials.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	})

	t.Run("Error_UnknownMethod", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}
		principalID := uuid.Must(uuid.NewV7())

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/"+principalID.String()+"/credentials",
			jsonBody(t, gin.H{
				"method":          "carrier_pigeon",
				"secret_material": "coo",
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockCredentials.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	})

	t.Run("Error_MethodNotEnabledForRole", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}
		principalID := uuid.Must(uuid.NewV7())

		// Setup expectations
		mockCredentials.On("Enroll", mock.Anything, mock.Anything).
			Return(nil, identityDomain.ErrUnsupportedMethod).
			Once()

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/"+principalID.String()+"/credentials",
			jsonBody(t, gin.H{
				"method":          "hardware_token",
				"secret_material": "serial-ht-4411",
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockCredentials.AssertExpectations(t)
	})

	t.Run("Error_InvalidPrincipalID", func(t *testing.T) {
		// Setup mocks
		mockCredentials := &mockCredentialUseCase{}

		// Execute
		router := setupCredentialRouter(mockCredentials)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(
			http.MethodPost,
			"/v1/principals/not-a-uuid/credentials",
			jsonBody(t, gin.H{
				"method":          "password",
				"secret_material": "Str0ng&Secret!Pass",
			}),
		)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockCredentials.AssertNotCalled(t, "Enroll", mock.Anything, mock.Anything)
	})
}
