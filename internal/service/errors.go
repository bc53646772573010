package service

import "errors"

// ErrValidation marks malformed or missing required input, rejected before
// any mutation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidSignature marks a webhook delivery whose HMAC does not match
// the workspace secret. Nothing is persisted for such deliveries.
var ErrInvalidSignature = errors.New("invalid webhook signature")
