package proton

import "errors"

// Codec errors. Every failure returned by Encode and Decode wraps exactly one
// of these kinds and is fatal to the call that produced it.
var (
	ErrInvalidRoot        = errors.New("proton: root must be a list or object")
	ErrUnsupportedType    = errors.New("proton: unsupported type")
	ErrIntegerOverflow    = errors.New("proton: integer overflows int64")
	ErrUnsupportedVersion = errors.New("proton: unsupported version")
	ErrMalformedMessage   = errors.New("proton: malformed message")

	ErrTooLong       = errors.New("proton: length exceeds 65535")
	ErrInvalidUTF8   = errors.New("proton: string is not valid utf-8")
	ErrDuplicateKey  = errors.New("proton: duplicate object key")
	ErrDepthExceeded = errors.New("proton: nesting depth exceeded")
)

// ErrExhausted is returned by BitStream reads that run past the end of the buffer.
var ErrExhausted = errors.New("proton: bit stream exhausted")
