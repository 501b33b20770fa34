package util

import "fmt"

func ValidateMin(name string, v, minValue int) error {
	if v < minValue {
		return fmt.Errorf("%s must be >= %d, got %d", name, minValue, v)
	}
	return nil
}

func ValidateOneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", name, allowed, v)
}

func ValidateRatio(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
	}
	return nil
}
