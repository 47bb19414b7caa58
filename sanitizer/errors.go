package sanitizer

import "errors"

// ErrConfirmationMissing is returned when a run was requested without explicit confirmation.
var ErrConfirmationMissing = errors.New("confirmation missing: refusing to modify the document store")

// ErrInvalidMode is returned for a mode outside the known set.
var ErrInvalidMode = errors.New("invalid deletion mode")

// ErrConflictingModes is returned when more than one mode was selected for a run.
var ErrConflictingModes = errors.New("conflicting deletion modes")

// ErrInvalidRecencyWindow is returned for a recency window that is not positive.
var ErrInvalidRecencyWindow = errors.New("recency window must be positive")

// ErrInvalidRegistry is returned for a collection registry that is inconsistent.
var ErrInvalidRegistry = errors.New("invalid collection registry")

// ErrInvalidPattern is returned for a pattern that does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// ErrNilStore is returned when the Controller is created without a store.
var ErrNilStore = errors.New("store must not be nil")

// ErrRunAborted is returned when a fatal error stopped the run. The partial report is returned alongside.
var ErrRunAborted = errors.New("sanitizer run aborted")

// ErrPartialDeletion is returned when at least one delete failed after its candidates were counted.
var ErrPartialDeletion = errors.New("deletion only partially completed")
