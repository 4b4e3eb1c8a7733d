package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcome_IsValid(t *testing.T) {
	valid := []Outcome{
		AuthSuccessOutcome,
		AuthFailureOutcome,
		AccountLockedOutcome,
		AccessGrantedOutcome,
		AccessDeniedOutcome,
		SessionRevokedOutcome,
		PrincipalRegisteredOutcome,
		CredentialEnrolledOutcome,
		PrincipalUnlockedOutcome,
	}

	for _, outcome := range valid {
		t.Run(string(outcome), func(t *testing.T) {
			assert.True(t, outcome.IsValid())
		})
	}

	t.Run("UnknownOutcome", func(t *testing.T) {
		assert.False(t, Outcome("coffee_break").IsValid())
	})

	t.Run("EmptyOutcome", func(t *testing.T) {
		assert.False(t, Outcome("").IsValid())
	})
}
