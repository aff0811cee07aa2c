package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	InternalErrorCode       = 1000
	InternalErrorMessage    = "internal server error"
	MethodNotAllowedCode    = 1001
	MethodNotAllowedMessage = "method not allowed"
	NotFoundCode            = 1002
	NotFoundMessage         = "not found"

	ValidationErrorCode    = 6000
	ValidationErrorMessage = "validation error"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
} // @name ValidationErrorStruct

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	errorStruct := &ErrorStruct{
		ErrorCode:    UnknownErrorCode,
		ErrorMessage: UnknownErrorMessage,
	}

	switch code {
	case InternalErrorCode:
		errorStruct.ErrorCode = InternalErrorCode
		errorStruct.ErrorMessage = InternalErrorMessage
	case MethodNotAllowedCode:
		errorStruct.ErrorCode = MethodNotAllowedCode
		errorStruct.ErrorMessage = MethodNotAllowedMessage
	case NotFoundCode:
		errorStruct.ErrorCode = NotFoundCode
		errorStruct.ErrorMessage = NotFoundMessage
	}

	return errorStruct
}
