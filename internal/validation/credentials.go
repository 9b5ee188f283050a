// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordBytes = 72
	maxFullNameRunes = 100
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < minUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", minUsernameLength)
	}

	if len(username) > maxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", maxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, and underscores")
	}

	return nil
}

// ValidatePassword checks if a password can be hashed safely
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}

	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	}

	return nil
}

// ValidateFullName checks the optional display name
func ValidateFullName(fullName *string) error {
	if fullName == nil {
		return nil
	}
	if utf8.RuneCountInString(*fullName) > maxFullNameRunes {
		return fmt.Errorf("full name must not exceed %d characters", maxFullNameRunes)
	}
	return nil
}
