package pipeline

// Default values for receipt extraction. All of them can be overridden via
// configuration.
const (
	// DefaultModelName is the Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash-lite"

	// DefaultMaxEncodedImageBytes caps the base64-encoded image size. The
	// ceiling is a free-tier cost guard, not a correctness constraint.
	DefaultMaxEncodedImageBytes = 1_500_000
)
