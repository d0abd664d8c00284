package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrRoleUnrecognized   ErrCode = "ROLE_UNRECOGNIZED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrConflict          ErrCode = "CONFLICT"
	ErrEmailTaken        ErrCode = "EMAIL_TAKEN"
	ErrRegistrationTaken ErrCode = "REGISTRATION_NUMBER_TAKEN"
	ErrSubjectNotFound   ErrCode = "SUBJECT_NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrExamNotYetOpen     ErrCode = "EXAM_NOT_YET_OPEN"
	ErrExamClosed         ErrCode = "EXAM_CLOSED"
	ErrNoActiveAttempt    ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrInvalidTransition  ErrCode = "INVALID_TRANSITION"
	ErrSubmitInProgress   ErrCode = "SUBMIT_IN_PROGRESS"
	ErrUnknownQuestion    ErrCode = "UNKNOWN_QUESTION"
	ErrInvalidOption      ErrCode = "INVALID_OPTION"
	ErrInvalidPosition    ErrCode = "INVALID_POSITION"
	ErrPersistenceFailure ErrCode = "PERSISTENCE_FAILURE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email, registration number or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or has expired."
	case ErrRoleUnrecognized:
		return "Your account has no role assigned. Contact an administrator."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrRegistrationTaken:
		return "A student with this registration number already exists."
	case ErrSubjectNotFound:
		return "The selected subject does not exist."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Exam not found."
	case ErrExamNotYetOpen:
		return "This exam has not started yet."
	case ErrExamClosed:
		return "This exam has ended."
	case ErrNoActiveAttempt:
		return "Enter the exam before performing this action."
	case ErrInvalidTransition:
		return "This action is not allowed in the current exam state."
	case ErrSubmitInProgress:
		return "The exam is already being submitted."
	case ErrUnknownQuestion:
		return "The question does not belong to this exam."
	case ErrInvalidOption:
		return "The answer must be one of A, B, C or D."
	case ErrInvalidPosition:
		return "Question position out of range."
	case ErrPersistenceFailure:
		return "Your result could not be saved. Your answers are kept; please retry."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
