package company

import "errors"

var (
	ErrCompanyNotFound  = errors.New("company not found")
	ErrInvalidSettings  = errors.New("invalid attendance settings")
	ErrSettingsNotFound = errors.New("attendance settings not found")
)
