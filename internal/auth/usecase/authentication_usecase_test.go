package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditRepository "github.com/allisson/gatekeeper/internal/audit/repository"
	authDomain "github.com/allisson/gatekeeper/internal/auth/domain"
	authService "github.com/allisson/gatekeeper/internal/auth/service"
	databaseMocks "github.com/allisson/gatekeeper/internal/database/mocks"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
	sessionDomain "github.com/allisson/gatekeeper/internal/session/domain"
)

// mockPrincipalRepository is a mock implementation of PrincipalRepository for testing.
type mockPrincipalRepository struct {
	mock.Mock
}

func (m *mockPrincipalRepository) Create(ctx context.Context, principal *identityDomain.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *mockPrincipalRepository) Update(ctx context.Context, principal *identityDomain.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

func (m *mockPrincipalRepository) Get(ctx context.Context, principalID uuid.UUID) (*identityDomain.Principal, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Principal), args.Error(1)
}

func (m *mockPrincipalRepository) GetByName(ctx context.Context, name string) (*identityDomain.Principal, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Principal), args.Error(1)
}

func (m *mockPrincipalRepository) RegisterFailedAttempt(
	ctx context.Context,
	principalID uuid.UUID,
	threshold int,
	lockedUntil time.Time,
) (int, bool, error) {
	args := m.Called(ctx, principalID, threshold, lockedUntil)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *mockPrincipalRepository) ResetLockout(ctx context.Context, principalID uuid.UUID) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

// mockCredentialRepository is a mock implementation of CredentialRepository for testing.
type mockCredentialRepository struct {
	mock.Mock
}

func (m *mockCredentialRepository) Upsert(ctx context.Context, credential *identityDomain.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *mockCredentialRepository) GetByPrincipalAndMethod(
	ctx context.Context,
	principalID uuid.UUID,
	method identityDomain.Method,
) (*identityDomain.Credential, error) {
	args := m.Called(ctx, principalID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Credential), args.Error(1)
}

func (m *mockCredentialRepository) ListMethods(
	ctx context.Context,
	principalID uuid.UUID,
) ([]identityDomain.Method, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identityDomain.Method), args.Error(1)
}

// mockVerifier is a mock implementation of service.Verifier for testing.
type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, secretMaterial string, proof string) (bool, error) {
	args := m.Called(ctx, secretMaterial, proof)
	return args.Bool(0), args.Error(1)
}

// mockVerifierRegistry is a mock implementation of service.VerifierRegistry for testing.
type mockVerifierRegistry struct {
	mock.Mock
}

func (m *mockVerifierRegistry) Get(method identityDomain.Method) (authService.Verifier, bool) {
	args := m.Called(method)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(authService.Verifier), args.Bool(1)
}

// mockSessionUseCase is a mock implementation of the session use case for testing.
type mockSessionUseCase struct {
	mock.Mock
}

func (m *mockSessionUseCase) Create(
	ctx context.Context,
	principal *identityDomain.Principal,
	verifiedMethods []identityDomain.Method,
	originIP string,
	originUserAgent string,
) (*sessionDomain.Session, string, error) {
	args := m.Called(ctx, principal, verifiedMethods, originIP, originUserAgent)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*sessionDomain.Session), args.String(1), args.Error(2)
}

func (m *mockSessionUseCase) Validate(ctx context.Context, plainToken string) (*sessionDomain.Session, error) {
	args := m.Called(ctx, plainToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessionDomain.Session), args.Error(1)
}

func (m *mockSessionUseCase) Invalidate(ctx context.Context, plainToken string) error {
	args := m.Called(ctx, plainToken)
	return args.Error(0)
}

func (m *mockSessionUseCase) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// mockAuditLogUseCase is a mock implementation of the audit log use case for testing.
type mockAuditLogUseCase struct {
	mock.Mock
}

func (m *mockAuditLogUseCase) Record(ctx context.Context, input *auditDomain.Entry) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockAuditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter auditRepository.ListFilter,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, offset, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

type authMocks struct {
	txManager      *databaseMocks.MockTxManager
	principalRepo  *mockPrincipalRepository
	credentialRepo *mockCredentialRepository
	registry       *mockVerifierRegistry
	sessions       *mockSessionUseCase
	auditLog       *mockAuditLogUseCase
}

func newAuthMocks(t *testing.T) *authMocks {
	t.Helper()

	return &authMocks{
		txManager:      databaseMocks.NewMockTxManager(t),
		principalRepo:  &mockPrincipalRepository{},
		credentialRepo: &mockCredentialRepository{},
		registry:       &mockVerifierRegistry{},
		sessions:       &mockSessionUseCase{},
		auditLog:       &mockAuditLogUseCase{},
	}
}

func (m *authMocks) useCase() UseCase {
	return NewAuthenticationUseCase(
		m.txManager,
		m.principalRepo,
		m.credentialRepo,
		m.registry,
		m.sessions,
		m.auditLog,
		5,
		15*time.Minute,
	)
}

func (m *authMocks) assertExpectations(t *testing.T) {
	t.Helper()

	m.principalRepo.AssertExpectations(t)
	m.credentialRepo.AssertExpectations(t)
	m.registry.AssertExpectations(t)
	m.sessions.AssertExpectations(t)
	m.auditLog.AssertExpectations(t)
}

func activePrincipal() *identityDomain.Principal {
	return &identityDomain.Principal{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      "ellen-ripley",
		Role:      identityDomain.MemberRole,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
}

func passwordCredential(principalID uuid.UUID) *identityDomain.Credential {
	return &identityDomain.Credential{
		ID:          uuid.Must(uuid.NewV7()),
		PrincipalID: principalID,
		Method:      identityDomain.PasswordMethod,
		SecretHash:  "$argon2id$v=19$m=65536,t=3,p=4$test-hash", //nolint:gosec // test fixture, not a real credential
		CreatedAt:   time.Now().UTC(),
	}
}

func TestAuthenticationUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PasswordOnly", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		issued := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			ExpiresAt:   time.Now().UTC().Add(8 * time.Hour),
		}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod}, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthSuccessOutcome &&
				entry.PrincipalID == principal.ID
		})).
			Return(nil).
			Once()
		m.sessions.On("Create", ctx, principal, []identityDomain.Method{identityDomain.PasswordMethod}, "10.0.0.1", "test-agent").
			Return(issued, "plain-session-token", nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
			Origin:        authDomain.Origin{IP: "10.0.0.1", UserAgent: "test-agent"},
		})

		// Assert
		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, authDomain.SuccessStatus, result.Status)
		assert.Equal(t, issued.ID, result.SessionID)
		assert.Equal(t, "plain-session-token", result.PlainSessionToken)
		assert.Equal(t, issued.ExpiresAt, result.ExpiresAt)
		m.assertExpectations(t)
		passwordVerifier.AssertExpectations(t)
	})

	t.Run("Success_ResetsLockoutCounter", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		principal.FailedAttempts = 3
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		issued := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			ExpiresAt:   time.Now().UTC().Add(8 * time.Hour),
		}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod}, nil).
			Once()
		m.principalRepo.On("ResetLockout", ctx, principal.ID).
			Return(nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthSuccessOutcome
		})).
			Return(nil).
			Once()
		m.sessions.On("Create", ctx, principal, mock.Anything, "", "").
			Return(issued, "plain-session-token", nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, authDomain.SuccessStatus, result.Status)
		m.assertExpectations(t)
	})

	t.Run("Success_WithAdditionalFactor", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		totpCredential := &identityDomain.Credential{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			Method:      identityDomain.TOTPMethod,
			SecretHash:  "JBSWY3DPEHPK3PXP",
		}
		passwordVerifier := &mockVerifier{}
		totpVerifier := &mockVerifier{}

		issued := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			ExpiresAt:   time.Now().UTC().Add(8 * time.Hour),
		}
		verifiedMethods := []identityDomain.Method{
			identityDomain.PasswordMethod,
			identityDomain.TOTPMethod,
		}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod, identityDomain.TOTPMethod}, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.TOTPMethod).
			Return(totpCredential, nil).
			Once()
		m.registry.On("Get", identityDomain.TOTPMethod).
			Return(totpVerifier, true).
			Once()
		totpVerifier.On("Verify", ctx, totpCredential.SecretHash, "123456").
			Return(true, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthSuccessOutcome
		})).
			Return(nil).
			Once()
		m.sessions.On("Create", ctx, principal, verifiedMethods, "", "").
			Return(issued, "plain-session-token", nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
			Factors: map[identityDomain.Method]string{
				identityDomain.TOTPMethod: "123456",
			},
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, authDomain.SuccessStatus, result.Status)
		m.assertExpectations(t)
		totpVerifier.AssertExpectations(t)
	})

	t.Run("Success_MFARequiredWhenFactorMissing", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod, identityDomain.TOTPMethod}, nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert: no session, no failed attempt, just the methods still owed.
		assert.NoError(t, err)
		assert.Equal(t, authDomain.MFARequiredStatus, result.Status)
		assert.Equal(t, []identityDomain.Method{identityDomain.TOTPMethod}, result.MissingMethods)
		assert.Empty(t, result.PlainSessionToken)
		m.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.principalRepo.AssertNotCalled(t, "RegisterFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Error_UnknownIdentifier", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)

		// Setup expectations: the audit trail records the real reason while the
		// caller sees the same error as a wrong password.
		m.principalRepo.On("GetByName", ctx, "nobody").
			Return(nil, identityDomain.ErrPrincipalNotFound).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "identity_not_found" &&
				entry.PrincipalID == uuid.Nil
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    "nobody",
			PrimarySecret: "whatever",
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		m.assertExpectations(t)
	})

	t.Run("Error_InactivePrincipal", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		principal.IsActive = false

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "principal_inactive"
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert: indistinguishable from a wrong password for the caller.
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		m.assertExpectations(t)
	})

	t.Run("Error_AccountLockedBeforeCredentialCheck", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		principal.FailedAttempts = 5
		principal.LockedUntil = &lockedUntil

		// Setup expectations: no credential lookup and no verifier call happen
		// while the lock holds, even with the correct password.
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "account_locked"
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrAccountLocked)
		m.credentialRepo.AssertNotCalled(t, "GetByPrincipalAndMethod", mock.Anything, mock.Anything, mock.Anything)
		m.principalRepo.AssertNotCalled(t, "RegisterFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Success_ElapsedLockIsIgnored", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		lockedUntil := time.Now().UTC().Add(-time.Minute)
		principal.FailedAttempts = 5
		principal.LockedUntil = &lockedUntil
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		issued := &sessionDomain.Session{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			ExpiresAt:   time.Now().UTC().Add(8 * time.Hour),
		}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod}, nil).
			Once()
		m.principalRepo.On("ResetLockout", ctx, principal.ID).
			Return(nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthSuccessOutcome
		})).
			Return(nil).
			Once()
		m.sessions.On("Create", ctx, principal, mock.Anything, "", "").
			Return(issued, "plain-session-token", nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, authDomain.SuccessStatus, result.Status)
		m.assertExpectations(t)
	})

	t.Run("Error_WrongPasswordCountsTowardLockout", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "wrong-password").
			Return(false, nil).
			Once()
		m.principalRepo.On("RegisterFailedAttempt", ctx, principal.ID, 5, mock.AnythingOfType("time.Time")).
			Return(1, false, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "invalid_password" &&
				entry.Metadata["failed_attempts"] == 1
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "wrong-password",
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		m.assertExpectations(t)
	})

	t.Run("Error_WrongPasswordLocksAtThreshold", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		principal.FailedAttempts = 4
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "wrong-password").
			Return(false, nil).
			Once()
		m.principalRepo.On("RegisterFailedAttempt", ctx, principal.ID, 5, mock.AnythingOfType("time.Time")).
			Return(5, true, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AccountLockedOutcome &&
				entry.Metadata["failed_attempts"] == 5
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "wrong-password",
		})

		// Assert: the caller still only learns that the credential was wrong.
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		m.assertExpectations(t)
	})

	t.Run("Error_PasswordNotEnrolledDoesNotCount", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(nil, identityDomain.ErrCredentialNotFound).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "password_not_enrolled"
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "whatever",
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidCredential)
		m.principalRepo.AssertNotCalled(t, "RegisterFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Error_InvalidFactorDoesNotCountTowardLockout", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		totpCredential := &identityDomain.Credential{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			Method:      identityDomain.TOTPMethod,
			SecretHash:  "JBSWY3DPEHPK3PXP",
		}
		passwordVerifier := &mockVerifier{}
		totpVerifier := &mockVerifier{}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod, identityDomain.TOTPMethod}, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.TOTPMethod).
			Return(totpCredential, nil).
			Once()
		m.registry.On("Get", identityDomain.TOTPMethod).
			Return(totpVerifier, true).
			Once()
		totpVerifier.On("Verify", ctx, totpCredential.SecretHash, "000000").
			Return(false, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.MatchedBy(func(entry *auditDomain.Entry) bool {
			return entry.Outcome == auditDomain.AuthFailureOutcome &&
				entry.Reason == "invalid_factor" &&
				entry.Metadata["method"] == string(identityDomain.TOTPMethod)
		})).
			Return(nil).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
			Factors: map[identityDomain.Method]string{
				identityDomain.TOTPMethod: "000000",
			},
		})

		// Assert: factor mismatches never touch the failed-attempt counter.
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrInvalidFactor)
		m.principalRepo.AssertNotCalled(t, "RegisterFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Error_FactorVerifierTimeout", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		smsCredential := &identityDomain.Credential{
			ID:          uuid.Must(uuid.NewV7()),
			PrincipalID: principal.ID,
			Method:      identityDomain.SMSMethod,
			SecretHash:  "+15550100",
		}
		passwordVerifier := &mockVerifier{}
		smsVerifier := &mockVerifier{}

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod, identityDomain.SMSMethod}, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.SMSMethod).
			Return(smsCredential, nil).
			Once()
		m.registry.On("Get", identityDomain.SMSMethod).
			Return(smsVerifier, true).
			Once()
		smsVerifier.On("Verify", ctx, smsCredential.SecretHash, "123456").
			Return(false, context.DeadlineExceeded).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
			Factors: map[identityDomain.Method]string{
				identityDomain.SMSMethod: "123456",
			},
		})

		// Assert: a provider timeout is an infrastructure fault, not a failed
		// attempt, and it never reaches the lockout counter.
		assert.Nil(t, result)
		assert.ErrorIs(t, err, authDomain.ErrFactorVerifierTimeout)
		m.principalRepo.AssertNotCalled(t, "RegisterFailedAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("Error_AuditWriteFailureFailsClosed", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		expectedErr := errors.New("audit store unavailable")

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, "nobody").
			Return(nil, identityDomain.ErrPrincipalNotFound).
			Once()
		m.auditLog.On("Record", ctx, mock.Anything).
			Return(expectedErr).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    "nobody",
			PrimarySecret: "whatever",
		})

		// Assert: when the audit write cannot land, the attempt fails outright.
		assert.Nil(t, result)
		assert.ErrorIs(t, err, expectedErr)
		m.assertExpectations(t)
	})

	t.Run("Error_SessionCreationFails", func(t *testing.T) {
		// Setup mocks
		m := newAuthMocks(t)
		principal := activePrincipal()
		credential := passwordCredential(principal.ID)
		passwordVerifier := &mockVerifier{}
		expectedErr := errors.New("session store unavailable")

		// Setup expectations
		m.principalRepo.On("GetByName", ctx, principal.Name).
			Return(principal, nil).
			Once()
		m.credentialRepo.On("GetByPrincipalAndMethod", ctx, principal.ID, identityDomain.PasswordMethod).
			Return(credential, nil).
			Once()
		m.registry.On("Get", identityDomain.PasswordMethod).
			Return(passwordVerifier, true).
			Once()
		passwordVerifier.On("Verify", ctx, credential.SecretHash, "correct-horse").
			Return(true, nil).
			Once()
		m.credentialRepo.On("ListMethods", ctx, principal.ID).
			Return([]identityDomain.Method{identityDomain.PasswordMethod}, nil).
			Once()
		m.auditLog.On("Record", ctx, mock.Anything).
			Return(nil).
			Once()
		m.sessions.On("Create", ctx, principal, mock.Anything, "", "").
			Return(nil, "", expectedErr).
			Once()

		// Execute
		result, err := m.useCase().Authenticate(ctx, &authDomain.AuthenticateInput{
			Identifier:    principal.Name,
			PrimarySecret: "correct-horse",
		})

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, expectedErr)
		m.assertExpectations(t)
	})
}
