package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTutorAccessOnly   ErrCode = "TUTOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session / exam flow ───────────────────────────────────────────
	ErrNoActiveExam      ErrCode = "NO_ACTIVE_EXAM"
	ErrNoQuestionShown   ErrCode = "NO_QUESTION_SHOWN"
	ErrQuestionNotInExam ErrCode = "QUESTION_NOT_IN_EXAM"
	ErrModuleFinished    ErrCode = "MODULE_ALREADY_FINISHED"
	ErrPersistenceFailed ErrCode = "PERSISTENCE_FAILED"
	ErrProfileRequired   ErrCode = "PROFILE_REQUIRED"

	// ─── Study plan ────────────────────────────────────────────────────
	ErrDiagnosticIncomplete ErrCode = "DIAGNOSTIC_INCOMPLETE"
	ErrPlanGeneration       ErrCode = "PLAN_GENERATION_FAILED"

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
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTutorAccessOnly:
		return "This resource is restricted to tutors."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Session / exam flow ───────────────────────────────────────────
	case ErrNoActiveExam:
		return "No exam is currently in progress."
	case ErrNoQuestionShown:
		return "No question is currently displayed."
	case ErrQuestionNotInExam:
		return "The displayed question does not belong to the active exam."
	case ErrModuleFinished:
		return "This module has already been completed."
	case ErrPersistenceFailed:
		return "Your results could not be saved. Please submit again."
	case ErrProfileRequired:
		return "Please complete your profile before starting the test."

	// ─── Study plan ────────────────────────────────────────────────────
	case ErrDiagnosticIncomplete:
		return "Both diagnostic modules must be finished before generating results."
	case ErrPlanGeneration:
		return "The study plan could not be generated. Please try again later."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
