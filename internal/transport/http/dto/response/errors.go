package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrAccessDenied = ErrorResponse{
		Status:  "error",
		Error:   "access_denied",
		Details: "A valid gallery access token is required",
	}

	ErrNotFound = ErrorResponse{
		Status: "error",
		Error:  "not_found",
	}

	ErrValidationFailed = ErrorResponse{
		Status: "error",
		Error:  "validation_failed",
	}

	ErrConflict = ErrorResponse{
		Status: "error",
		Error:  "conflict",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)

// WithDetails returns a copy of e with Details replaced.
func (e ErrorResponse) WithDetails(details string) ErrorResponse {
	e.Details = details
	return e
}
