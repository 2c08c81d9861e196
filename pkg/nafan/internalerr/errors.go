package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Document compilation errors
var (
	// ErrParse marks a document that could not be parsed at all.
	ErrParse = errors.New("unparseable document")
	// ErrNoDescriptiveBlock marks a document without archdesc/did.
	ErrNoDescriptiveBlock = errors.New("missing archdesc descriptive block")
	// ErrUnexpectedMarkup marks an element whose structure a field rule does not accept.
	ErrUnexpectedMarkup = errors.New("unexpected markup")
	// ErrTooDeep marks a component nested beyond the configured depth.
	ErrTooDeep = errors.New("component nesting too deep")
	// ErrUnsupportedFormat marks record kinds without a compiler (MARC, PDF).
	ErrUnsupportedFormat = errors.New("unsupported record format")
	// ErrIndex marks a failure of the search index collaborator.
	ErrIndex = errors.New("index unavailable")
)
