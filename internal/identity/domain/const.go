// Package domain defines identity domain models: principals, their roles,
// and the credentials they can authenticate with.
package domain

import "strings"

// Role is a principal's position in the totally ordered role hierarchy.
// Ordering: GuestRole < MemberRole < SeniorRole < CouncilRole < AdminRole.
type Role string

const (
	// GuestRole is the lowest role, for unenrolled or visiting principals.
	GuestRole Role = "guest"

	// MemberRole is the standard role for registered principals.
	MemberRole Role = "member"

	// SeniorRole marks long-standing principals with extended access.
	SeniorRole Role = "senior"

	// CouncilRole marks principals who take part in collective decisions.
	CouncilRole Role = "council"

	// AdminRole is the highest role, for system administration.
	AdminRole Role = "admin"
)

// roleRanks defines the total order of roles. Higher rank means more authority.
var roleRanks = map[Role]int{
	GuestRole:   0,
	MemberRole:  1,
	SeniorRole:  2,
	CouncilRole: 3,
	AdminRole:   4,
}

// Rank returns the role's position in the hierarchy. Unknown roles rank below guest.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

// AtLeast reports whether the role ranks at or above the other role.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// ParseRole converts a string to a Role, case-insensitively.
// Returns the role and whether the input named a known role.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	return role, role.IsValid()
}

// Method identifies an authentication method a credential can be enrolled for.
type Method string

const (
	// PasswordMethod is the primary knowledge factor.
	PasswordMethod Method = "password"

	// TOTPMethod is a time-based one-time code (RFC 6238).
	TOTPMethod Method = "totp"

	// SMSMethod is a one-time code delivered through an external provider.
	SMSMethod Method = "sms"

	// BiometricMethod is a biometric assertion verified by a device.
	BiometricMethod Method = "biometric"

	// HardwareTokenMethod is a hardware token challenge response.
	HardwareTokenMethod Method = "hardware_token"

	// CommunityVerificationMethod is an in-person verification recorded by a
	// council member. A session authenticated with it carries the
	// consensus-verified flag consumed at authorization time.
	CommunityVerificationMethod Method = "community_verification"
)

// knownMethods lists every enrollable method.
var knownMethods = map[Method]struct{}{
	PasswordMethod:              {},
	TOTPMethod:                  {},
	SMSMethod:                   {},
	BiometricMethod:             {},
	HardwareTokenMethod:         {},
	CommunityVerificationMethod: {},
}

// IsValid reports whether the method is one of the known methods.
func (m Method) IsValid() bool {
	_, ok := knownMethods[m]
	return ok
}

// ParseMethod converts a string to a Method, case-insensitively.
// Returns the method and whether the input named a known method.
func ParseMethod(s string) (Method, bool) {
	method := Method(strings.ToLower(strings.TrimSpace(s)))
	return method, method.IsValid()
}
