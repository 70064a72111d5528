package shipment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"lastmile/internal/pkg/errs"
)

const (
	TrackingCodeMinLength = 3
	TrackingCodeMaxLength = 50
)

// NormalizeTrackingCode trims surrounding whitespace and enforces the length bounds.
func NormalizeTrackingCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errs.NewValueIsRequiredError("tracking code")
	}
	n := utf8.RuneCountInString(code)
	if n < TrackingCodeMinLength || n > TrackingCodeMaxLength {
		return "", errs.NewValueIsOutOfRangeErrorWithCause("tracking code length", n,
			TrackingCodeMinLength, TrackingCodeMaxLength, fmt.Errorf("tracking code %q", code))
	}
	return code, nil
}
