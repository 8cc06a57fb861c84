package srs

import "errors"

// ErrInvalidGrade is returned when a grade outside Again..Easy is
// submitted. Check with errors.Is.
var ErrInvalidGrade = errors.New("srs: invalid grade")
