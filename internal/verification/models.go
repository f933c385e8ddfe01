// Package verification issues and checks the single-use admin verification
// codes that upgrade an admin account from email-verified to fully trusted.
package verification

import (
	dErrors "campusgate/pkg/domain-errors"
)

// The four distinct rejection reasons, checked in this order. Transports
// collapse them to generic text; tests and logs keep them apart.
var (
	ErrCodeNotFound    = dErrors.New(dErrors.CodeNotFound, "no verification code on file")
	ErrCodeExpired     = dErrors.New(dErrors.CodeValidation, "verification code has expired")
	ErrCodeMismatch    = dErrors.New(dErrors.CodeValidation, "verification code does not match")
	ErrCodeAlreadyUsed = dErrors.New(dErrors.CodeConflict, "verification code already used")
)
