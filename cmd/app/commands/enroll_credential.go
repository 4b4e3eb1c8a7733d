package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"

	"github.com/allisson/gatekeeper/internal/app"
	"github.com/allisson/gatekeeper/internal/config"
)

// RunEnrollCredential enrolls a credential for a principal from the command
// line. When the secret flag is empty the secret is read from stdin, keeping
// it out of shell history.
//
// Requirements: Database must be migrated and accessible.
func RunEnrollCredential(ctx context.Context, principalIDStr, methodName, secret string, io IOTuple) error {
	principalID, err := uuid.Parse(principalIDStr)
	if err != nil {
		return fmt.Errorf("invalid principal id: %w", err)
	}

	method, ok := identityDomain.ParseMethod(methodName)
	if !ok {
		return fmt.Errorf("invalid method: %s", methodName)
	}

	if secret == "" {
		fmt.Fprint(io.Writer, "Secret material: ")
		reader := bufio.NewReader(io.Reader)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read secret material: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}

	if secret == "" {
		return fmt.Errorf("secret material must not be empty")
	}

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	credentialUseCase, err := container.CredentialUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize credential use case: %w", err)
	}

	output, err := credentialUseCase.Enroll(ctx, &identityDomain.EnrollCredentialInput{
		PrincipalID:    principalID,
		Method:         method,
		SecretMaterial: secret,
	})
	if err != nil {
		return fmt.Errorf("failed to enroll credential: %w", err)
	}

	logger.Info("credential enrolled",
		slog.String("credential_id", output.ID.String()),
		slog.String("principal_id", principalID.String()),
		slog.String("method", string(method)),
	)

	fmt.Fprintf(io.Writer, "Credential enrolled: %s\n", output.ID.String())
	return nil
}
