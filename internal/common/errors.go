// Package common defines shared constants and sentinel errors used across
// the sentivault server, its transports and the operator CLI. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Ingestion rejections, reported per file.
	ErrValidation = errors.New("validation error")
	ErrParse      = errors.New("parse error")

	// Ciphertext is shorter than its IV, not block aligned, or badly padded.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// Storage faults (filesystem, object storage or metadata store).
	ErrStorageWrite = errors.New("storage write failed")
	ErrStorageRead  = errors.New("storage read failed")

	// Metadata exists but its ciphertext blob does not.
	ErrBlobMissing = errors.New("ciphertext blob missing")
)

// Rejection is a user-facing failure: Error returns the message verbatim,
// errors.Is matches its kind.
type Rejection struct {
	Kind error
	Msg  string
}

func (r *Rejection) Error() string { return r.Msg }

func (r *Rejection) Unwrap() error { return r.Kind }

// Reject builds a Rejection of the given kind.
func Reject(kind error, msg string) error {
	return &Rejection{Kind: kind, Msg: msg}
}
