package protocol

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version is the version of the task descriptor/result wire contract.
const Version = "v1.0.0"

// IsCompatibleVersion checks if a descriptor version can be executed by a worker.
// Compatibility rules:
// - Major version must match exactly.
// - Minor and patch versions can differ.
func IsCompatibleVersion(descriptorVersion, workerVersion string) (bool, error) {
	if !semver.IsValid(descriptorVersion) {
		return false, fmt.Errorf("invalid descriptor version: %q", descriptorVersion)
	}
	if !semver.IsValid(workerVersion) {
		return false, fmt.Errorf("invalid worker version: %q", workerVersion)
	}

	return semver.Major(descriptorVersion) == semver.Major(workerVersion), nil
}

// CompatibilityError returns a user-friendly message for incompatible versions.
func CompatibilityError(descriptorVersion, workerVersion string) string {
	return fmt.Sprintf(
		"task descriptor version %s is incompatible with worker version %s. Required version: %s.x.x",
		descriptorVersion, workerVersion, semver.Major(workerVersion),
	)
}
