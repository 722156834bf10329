package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidateTimezone checks an IANA zone name.
func ValidateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("timezone cannot be empty")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return nil
}

// ValidateDuration checks min <= d <= max.
func ValidateDuration(d, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if d < min {
		return fmt.Errorf("duration %v is below minimum %v", d, min)
	}
	if d > max {
		return fmt.Errorf("duration %v exceeds maximum %v", d, max)
	}
	return nil
}

// ValidatePositiveDuration checks d > 0.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %v", d)
	}
	return nil
}

// ValidateIntRange checks min <= v <= max.
func ValidateIntRange(v, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if v < min {
		return fmt.Errorf("value %d is below minimum %d", v, min)
	}
	if v > max {
		return fmt.Errorf("value %d exceeds maximum %d", v, max)
	}
	return nil
}

// ValidateFloatRange checks min <= v <= max. NaN is rejected.
func ValidateFloatRange(v, min, max float64) error {
	if v != v {
		return fmt.Errorf("value must be a number")
	}
	if v < min || v > max {
		return fmt.Errorf("value %g is outside [%g, %g]", v, min, max)
	}
	return nil
}

// ValidateThreshold checks a relevance threshold in [0, 1].
func ValidateThreshold(v float64) error {
	return ValidateFloatRange(v, 0, 1)
}

// ValidatePort checks an unprivileged TCP port.
func ValidatePort(p int) error {
	return ValidateIntRange(p, 1024, 65535)
}

// OneOf returns a validator accepting only the given values, case-insensitively.
func OneOf(allowed ...string) func(string) error {
	return func(s string) error {
		if slices.Contains(allowed, strings.ToLower(s)) {
			return nil
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}
