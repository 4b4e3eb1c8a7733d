package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/gatekeeper/internal/audit/domain"
	auditUseCase "github.com/allisson/gatekeeper/internal/audit/usecase"
	"github.com/allisson/gatekeeper/internal/database"
	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// credentialUseCase implements CredentialUseCase.
type credentialUseCase struct {
	txManager      database.TxManager
	principalRepo  PrincipalRepository
	credentialRepo CredentialRepository
	secretHasher   SecretHasher
	auditLog       auditUseCase.UseCase
	enabledMethods map[identityDomain.Role][]identityDomain.Method
}

// Enroll stores a credential for the principal. Password material is hashed
// with argon2id before storage; other methods carry provider-opaque material
// (TOTP seeds, phone numbers, token identifiers) stored as-is. Replacement of
// an existing same-method credential and the audit record commit atomically.
func (c *credentialUseCase) Enroll(
	ctx context.Context,
	input *identityDomain.EnrollCredentialInput,
) (*identityDomain.EnrollCredentialOutput, error) {
	if !input.Method.IsValid() {
		return nil, identityDomain.ErrUnsupportedMethod
	}

	principal, err := c.principalRepo.Get(ctx, input.PrincipalID)
	if err != nil {
		return nil, err
	}

	if !c.methodEnabled(principal.Role, input.Method) {
		return nil, identityDomain.ErrUnsupportedMethod
	}

	secretMaterial := input.SecretMaterial
	if input.Method == identityDomain.PasswordMethod {
		secretMaterial, err = c.secretHasher.HashSecret(input.SecretMaterial)
		if err != nil {
			return nil, err
		}
	}

	credential := &identityDomain.Credential{
		ID:          uuid.Must(uuid.NewV7()),
		PrincipalID: principal.ID,
		Method:      input.Method,
		SecretHash:  secretMaterial,
		Verified:    true,
		CreatedAt:   time.Now().UTC(),
	}

	err = c.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := c.credentialRepo.Upsert(ctx, credential); err != nil {
			return err
		}
		return c.auditLog.Record(ctx, &auditDomain.Entry{
			PrincipalID: principal.ID,
			Outcome:     auditDomain.CredentialEnrolledOutcome,
			Metadata: map[string]any{
				"method": string(input.Method),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return &identityDomain.EnrollCredentialOutput{ID: credential.ID}, nil
}

// EnabledMethods returns the methods the role may enroll, in configuration order.
func (c *credentialUseCase) EnabledMethods(role identityDomain.Role) []identityDomain.Method {
	return c.enabledMethods[role]
}

func (c *credentialUseCase) methodEnabled(
	role identityDomain.Role,
	method identityDomain.Method,
) bool {
	for _, enabled := range c.enabledMethods[role] {
		if enabled == method {
			return true
		}
	}
	return false
}

// NewCredentialUseCase creates a new CredentialUseCase with the provided
// dependencies. enabledMethods maps role names to method names, normally the
// parsed form of Config.EnabledMethodsPerRole; unknown roles or methods in the
// map are ignored.
func NewCredentialUseCase(
	txManager database.TxManager,
	principalRepo PrincipalRepository,
	credentialRepo CredentialRepository,
	secretHasher SecretHasher,
	auditLog auditUseCase.UseCase,
	enabledMethods map[string][]string,
) CredentialUseCase {
	parsed := make(map[identityDomain.Role][]identityDomain.Method)
	for roleName, methodNames := range enabledMethods {
		role, ok := identityDomain.ParseRole(roleName)
		if !ok {
			continue
		}
		for _, methodName := range methodNames {
			method, ok := identityDomain.ParseMethod(methodName)
			if !ok {
				continue
			}
			parsed[role] = append(parsed[role], method)
		}
	}

	return &credentialUseCase{
		txManager:      txManager,
		principalRepo:  principalRepo,
		credentialRepo: credentialRepo,
		secretHasher:   secretHasher,
		auditLog:       auditLog,
		enabledMethods: parsed,
	}
}
