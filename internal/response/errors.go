package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Student ───────────────────────────────────────────────────────
	ErrNotLoggedIn ErrCode = "NOT_LOGGED_IN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Catalog & history ─────────────────────────────────────────────
	ErrExamNotFound    ErrCode = "EXAM_NOT_FOUND"
	ErrExamInactive    ErrCode = "EXAM_NOT_ACTIVE"
	ErrAttemptNotFound ErrCode = "ATTEMPT_NOT_FOUND"

	// ─── Session ───────────────────────────────────────────────────────
	ErrNoActiveSession ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionFinished ErrCode = "SESSION_FINISHED"
	ErrInvalidOption   ErrCode = "INVALID_OPTION"
	ErrInvalidIndex    ErrCode = "INVALID_INDEX"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"
	ErrUnknownWSAction ErrCode = "UNKNOWN_ACTION"
	ErrAttemptNotSaved ErrCode = "ATTEMPT_NOT_SAVED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrNotLoggedIn:
		return "Please log in first."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrExamNotFound:
		return "Exam not found."
	case ErrExamInactive:
		return "This exam is not currently available."
	case ErrAttemptNotFound:
		return "Result not found."

	case ErrNoActiveSession:
		return "No exam is in progress."
	case ErrSessionFinished:
		return "This exam has already ended."
	case ErrInvalidOption:
		return "That option does not exist for this question."
	case ErrInvalidIndex:
		return "That question number does not exist."
	case ErrUnknownQuestion:
		return "That question is not part of this exam."
	case ErrUnknownWSAction:
		return "Unknown action."
	case ErrAttemptNotSaved:
		return "The exam ended but the result could not be saved."

	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "An internal error occurred."
	default:
		return "An unexpected error occurred."
	}
}
