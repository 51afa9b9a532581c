package core

import "errors"

var (
	// ErrDimensionMismatch is returned when a feature vector does not have
	// the length the model was fitted on.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrUnknownArtifactKind is returned for an artifact whose kind is not supported.
	ErrUnknownArtifactKind = errors.New("unknown artifact kind")

	// ErrDigestMismatch is returned when an artifact does not match its pinned SHA-256 digest.
	ErrDigestMismatch = errors.New("artifact digest mismatch")

	// ErrMessageRequired is returned when there is no message text to classify.
	ErrMessageRequired = errors.New("message is required")
)
