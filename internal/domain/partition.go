package domain

import "fmt"

// KeyPrefix is the storage key prefix for all catalogdex keys.
// Overridden at startup from storage.key_prefix.
var KeyPrefix = "catalogdex:"

// ValidatePartition checks that a partition name is usable inside storage keys.
// Allowed: [a-zA-Z0-9_-], 1-64 chars.
func ValidatePartition(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPartition)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: %q too long (max 64)", ErrInvalidPartition, name)
	}
	for _, r := range name {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPartition, name)
		}
	}
	return nil
}
