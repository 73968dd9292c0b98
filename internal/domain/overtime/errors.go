package overtime

import "errors"

var (
	ErrRequestNotFound  = errors.New("overtime request not found")
	ErrDuplicateRequest = errors.New("an open overtime request already exists for this attendance")
)
