package errors

import "net/http"

// Code is the closed taxonomy of job/admission errors from the error
// handling design. Stage-local failures are classified into one of these
// before ever leaving the job runner; nothing crosses a component boundary
// as a raw exception.
type Code string

const (
	EValidation          Code = "E_Validation"
	ENoEncoder           Code = "E_NoEncoder"
	EConfigConflict      Code = "E_ConfigConflict"
	EProviderUnavailable Code = "E_ProviderUnavailable"
	EProviderCall        Code = "E_ProviderCall"
	ETimeout             Code = "E_Timeout"
	ESubprocessExit      Code = "E_SubprocessExit"
	EDiskSpace           Code = "E_DiskSpace"
	ECancelled           Code = "E_Cancelled"
	EInternal            Code = "E_Internal"
)

// Retryable reports whether the runner may retry a stage that failed with
// this code (3x exponential backoff 2s/4s/8s, per the retry rules).
func Retryable(c Code) bool {
	switch c {
	case ETimeout, EProviderCall, ESubprocessExit:
		return true
	default:
		return false
	}
}

// Remediation returns a short, user-facing suggestion for a failure code.
func Remediation(c Code) string {
	switch c {
	case ENoEncoder:
		return "Install the encoder binary or configure its path"
	case EConfigConflict:
		return "Switch the requested tier or disable offline-only mode"
	case EProviderUnavailable:
		return "Register at least one provider for this capability"
	case EProviderCall:
		return "Retry with a different tier or check provider credentials"
	case ETimeout:
		return "Try a smaller model, ensure enough RAM is free, check provider liveness"
	case ESubprocessExit:
		return "Inspect the encoder's stderr output and retry"
	case EDiskSpace:
		return "Free disk space on the output drive"
	case EValidation:
		return "Fix the request payload and resubmit"
	case ECancelled:
		return "N/A"
	default:
		return "Check the server logs for details"
	}
}

// SuggestedActions expands Remediation into the 2-5 short strings the
// failure details contract calls for.
func SuggestedActions(c Code) []string {
	switch c {
	case ENoEncoder:
		return []string{"Install the encoder binary", "Configure an explicit encoder path", "Verify the binary is executable"}
	case EConfigConflict:
		return []string{"Switch tier to Free or ProIfAvailable", "Disable offline-only mode"}
	case EProviderUnavailable:
		return []string{"Register a provider for this capability", "Check provider configuration"}
	case EProviderCall:
		return []string{"Retry the job", "Try a different tier", "Check provider credentials and quota"}
	case ETimeout:
		return []string{"Try a smaller model", "Ensure sufficient RAM is free", "Check provider liveness (e.g. ollama ps)"}
	case ESubprocessExit:
		return []string{"Inspect the encoder's stderr output", "Retry the job", "Verify input media is well-formed"}
	case EDiskSpace:
		return []string{"Free disk space on the output drive", "Configure a different output directory"}
	default:
		return []string{"Check the server logs for details", "Retry the job once the cause is resolved"}
	}
}

// HTTPStatus maps a taxonomy code to the HTTP status used when it surfaces
// from the admission path.
func HTTPStatus(c Code) int {
	switch c {
	case EValidation, ENoEncoder, EConfigConflict, EDiskSpace:
		return http.StatusBadRequest
	case ECancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
