package blossom

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the current SDK version.
//
// This version follows semantic versioning (https://semver.org/).
const Version = "0.5.0"

// APIVersion is the Pollinations API generation this SDK targets.
const APIVersion = "1.0.0"

// APIVersionRange is the semver constraint of server versions this SDK
// is known to work with.
const APIVersionRange = ">= 1.0.0, < 2.0.0"

// CompatibilityStatus classifies a server version check.
type CompatibilityStatus int

const (
	// Compatible means the server version satisfies APIVersionRange.
	Compatible CompatibilityStatus = iota
	// Incompatible means the server version is outside APIVersionRange.
	Incompatible
	// Unknown means the server version could not be parsed.
	Unknown
)

func (s CompatibilityStatus) String() string {
	switch s {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// CompatibilityResult describes the outcome of a version check.
type CompatibilityResult struct {
	Status           CompatibilityStatus
	ServerVersion    string
	SDKVersion       string
	TargetAPIVersion string
	SupportedRange   string
	Message          string
}

// IsCompatible reports whether the check passed.
func (r CompatibilityResult) IsCompatible() bool {
	return r.Status == Compatible
}

// CheckCompatibility checks a server-reported version against the
// SDK's supported range.
func CheckCompatibility(serverVersion string) CompatibilityResult {
	result := CompatibilityResult{
		ServerVersion:    serverVersion,
		SDKVersion:       Version,
		TargetAPIVersion: APIVersion,
		SupportedRange:   APIVersionRange,
	}

	constraint, err := semver.NewConstraint(APIVersionRange)
	if err != nil {
		result.Status = Unknown
		result.Message = fmt.Sprintf("invalid supported range %q: %v", APIVersionRange, err)
		return result
	}

	v, err := semver.NewVersion(serverVersion)
	if err != nil {
		result.Status = Unknown
		result.Message = fmt.Sprintf("could not parse server version %q", serverVersion)
		return result
	}

	// IncludePrerelease-style check: compare against the release core so
	// prerelease tags of an in-range version still pass.
	core := *v
	coreVersion, _ := core.SetPrerelease("")
	if constraint.Check(&coreVersion) {
		result.Status = Compatible
		result.Message = fmt.Sprintf("server %s is compatible with SDK %s", serverVersion, Version)
	} else {
		result.Status = Incompatible
		result.Message = fmt.Sprintf("server %s is not compatible with SDK %s (supported: %s)", serverVersion, Version, APIVersionRange)
	}
	return result
}

// IsCompatible reports whether a server version is within the SDK's
// supported range.
func IsCompatible(serverVersion string) bool {
	return CheckCompatibility(serverVersion).IsCompatible()
}

// MustBeCompatible panics when the server version is incompatible or
// unparseable. Intended for startup checks.
func MustBeCompatible(serverVersion string) {
	result := CheckCompatibility(serverVersion)
	if !result.IsCompatible() {
		panic("blossom: " + result.Message)
	}
}
