package contract

import "errors"

var (
	ErrGenerationFailed = errors.New("completion generation failed")
	ErrEmptyReply       = errors.New("completion returned an unusable reply")
	ErrValidation       = errors.New("validation failed")
)
