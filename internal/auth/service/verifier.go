package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"time"

	identityDomain "github.com/allisson/gatekeeper/internal/identity/domain"
)

// passwordVerifier implements Verifier for the primary credential by
// delegating to the Argon2id SecretService.
type passwordVerifier struct {
	secretService SecretService
}

func (v *passwordVerifier) Verify(_ context.Context, secretMaterial string, proof string) (bool, error) {
	return v.secretService.CompareSecret(proof, secretMaterial), nil
}

// NewPasswordVerifier creates a Verifier that checks a plain password against
// the stored Argon2id hash.
func NewPasswordVerifier(secretService SecretService) Verifier {
	return &passwordVerifier{secretService: secretService}
}

// staticSecretVerifier implements Verifier for methods whose proof is a static
// shared secret presented verbatim: hardware token responses and community
// verification voucher codes. Both sides are digested before comparison so the
// comparison is constant-time regardless of input length.
type staticSecretVerifier struct{}

func (v *staticSecretVerifier) Verify(_ context.Context, secretMaterial string, proof string) (bool, error) {
	enrolled := sha256.Sum256([]byte(secretMaterial))
	presented := sha256.Sum256([]byte(proof))
	return subtle.ConstantTimeCompare(enrolled[:], presented[:]) == 1, nil
}

// NewStaticSecretVerifier creates a Verifier that performs a constant-time
// comparison of the proof against the enrolled secret material.
func NewStaticSecretVerifier() Verifier {
	return &staticSecretVerifier{}
}

// remoteVerifier implements Verifier for methods that require an external
// system: SMS one-time codes and biometric assertions. Every call carries a
// deadline so a stalled provider fails the attempt instead of hanging it.
type remoteVerifier struct {
	provider RemoteFactorProvider
	timeout  time.Duration
}

func (v *remoteVerifier) Verify(ctx context.Context, secretMaterial string, proof string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	return v.provider.VerifyProof(ctx, secretMaterial, proof)
}

// NewRemoteVerifier creates a Verifier that delegates to an external factor
// provider, bounding each call with the given timeout.
func NewRemoteVerifier(provider RemoteFactorProvider, timeout time.Duration) Verifier {
	return &remoteVerifier{provider: provider, timeout: timeout}
}

// verifierRegistry implements VerifierRegistry as a static method-to-verifier map.
type verifierRegistry struct {
	verifiers map[identityDomain.Method]Verifier
}

// Get returns the verifier registered for the method.
func (r *verifierRegistry) Get(method identityDomain.Method) (Verifier, bool) {
	verifier, ok := r.verifiers[method]
	return verifier, ok
}

// NewVerifierRegistry creates a VerifierRegistry covering every supported
// authentication method.
//
// smsProvider verifies delivered one-time codes against the enrolled phone
// number; biometricProvider verifies device assertions against the enrolled
// device identifier. Both are bounded by providerTimeout.
func NewVerifierRegistry(
	secretService SecretService,
	smsProvider RemoteFactorProvider,
	biometricProvider RemoteFactorProvider,
	providerTimeout time.Duration,
) VerifierRegistry {
	staticVerifier := NewStaticSecretVerifier()

	return &verifierRegistry{
		verifiers: map[identityDomain.Method]Verifier{
			identityDomain.PasswordMethod:              NewPasswordVerifier(secretService),
			identityDomain.TOTPMethod:                  NewTOTPVerifier(),
			identityDomain.SMSMethod:                   NewRemoteVerifier(smsProvider, providerTimeout),
			identityDomain.BiometricMethod:             NewRemoteVerifier(biometricProvider, providerTimeout),
			identityDomain.HardwareTokenMethod:         staticVerifier,
			identityDomain.CommunityVerificationMethod: staticVerifier,
		},
	}
}
