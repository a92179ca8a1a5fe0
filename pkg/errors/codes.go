package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by the convenience factories.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Market Module Error Codes
const (
	ErrCodeMarketNotFound      ErrorCode = "MKT_001"
	ErrCodeMarketHierarchy     ErrorCode = "MKT_002"
	ErrCodeMarketLevelInvalid  ErrorCode = "MKT_003"
	ErrCodeMarketAlreadyExists ErrorCode = "MKT_004"
)

// Product Module Error Codes
const (
	ErrCodeProductNotFound      ErrorCode = "PRD_001"
	ErrCodeProductInvalid       ErrorCode = "PRD_002"
	ErrCodeProductAlreadyExists ErrorCode = "PRD_003"
)

// Coverage Module Error Codes
const (
	ErrCodeCoverageOutOfRange    ErrorCode = "CVG_001"
	ErrCodeCoverageMetricInvalid ErrorCode = "CVG_002"
	ErrCodeCoverageCellNotFound  ErrorCode = "CVG_003"
)

// Blocker Module Error Codes
const (
	ErrCodeBlockerNotFound ErrorCode = "BLK_001"
	ErrCodeBlockerInvalid  ErrorCode = "BLK_002"
	ErrCodeBlockerPatch    ErrorCode = "BLK_003"
)

// Escalation Module Error Codes
const (
	ErrCodeEscalationNotFound   ErrorCode = "ESC_001"
	ErrCodeEscalationInvalid    ErrorCode = "ESC_002"
	ErrCodeTransitionNotAllowed ErrorCode = "ESC_003"
)

// Comment Module Error Codes
const (
	ErrCodeCommentNotFound        ErrorCode = "CMT_001"
	ErrCodeCommentInvalid         ErrorCode = "CMT_002"
	ErrCodeCommentAlreadyAnswered ErrorCode = "CMT_003"
)

// Snapshot export codes
const (
	ErrCodeStorageError ErrorCode = "SNP_001"
)

var notFoundCodes = map[ErrorCode]struct{}{
	ErrCodeNotFound:             {},
	ErrCodeMarketNotFound:       {},
	ErrCodeProductNotFound:      {},
	ErrCodeCoverageCellNotFound: {},
	ErrCodeBlockerNotFound:      {},
	ErrCodeEscalationNotFound:   {},
	ErrCodeCommentNotFound:      {},
}

var validationCodes = map[ErrorCode]struct{}{
	ErrCodeBadRequest:            {},
	ErrCodeValidation:            {},
	ErrCodeMarketHierarchy:       {},
	ErrCodeMarketLevelInvalid:    {},
	ErrCodeProductInvalid:        {},
	ErrCodeCoverageOutOfRange:    {},
	ErrCodeCoverageMetricInvalid: {},
	ErrCodeBlockerInvalid:        {},
	ErrCodeBlockerPatch:          {},
	ErrCodeEscalationInvalid:     {},
	ErrCodeCommentInvalid:        {},
}

var conflictCodes = map[ErrorCode]struct{}{
	ErrCodeConflict:               {},
	ErrCodeMarketAlreadyExists:    {},
	ErrCodeProductAlreadyExists:   {},
	ErrCodeTransitionNotAllowed:   {},
	ErrCodeCommentAlreadyAnswered: {},
}

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMarketNotFound:      http.StatusNotFound,
	ErrCodeMarketHierarchy:     http.StatusUnprocessableEntity,
	ErrCodeMarketLevelInvalid:  http.StatusBadRequest,
	ErrCodeMarketAlreadyExists: http.StatusConflict,

	ErrCodeProductNotFound:      http.StatusNotFound,
	ErrCodeProductInvalid:       http.StatusUnprocessableEntity,
	ErrCodeProductAlreadyExists: http.StatusConflict,

	ErrCodeCoverageOutOfRange:    http.StatusUnprocessableEntity,
	ErrCodeCoverageMetricInvalid: http.StatusBadRequest,
	ErrCodeCoverageCellNotFound:  http.StatusNotFound,

	ErrCodeBlockerNotFound: http.StatusNotFound,
	ErrCodeBlockerInvalid:  http.StatusUnprocessableEntity,
	ErrCodeBlockerPatch:    http.StatusUnprocessableEntity,

	ErrCodeEscalationNotFound:   http.StatusNotFound,
	ErrCodeEscalationInvalid:    http.StatusUnprocessableEntity,
	ErrCodeTransitionNotAllowed: http.StatusConflict,

	ErrCodeCommentNotFound:        http.StatusNotFound,
	ErrCodeCommentInvalid:         http.StatusUnprocessableEntity,
	ErrCodeCommentAlreadyAnswered: http.StatusConflict,

	ErrCodeStorageError: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeMarketNotFound:      "market not found",
	ErrCodeMarketHierarchy:     "market hierarchy is inconsistent",
	ErrCodeMarketLevelInvalid:  "invalid market level",
	ErrCodeMarketAlreadyExists: "market already exists",

	ErrCodeProductNotFound:      "product not found",
	ErrCodeProductInvalid:       "invalid product",
	ErrCodeProductAlreadyExists: "product already exists",

	ErrCodeCoverageOutOfRange:    "coverage must be between 0 and 100",
	ErrCodeCoverageMetricInvalid: "unknown coverage metric",
	ErrCodeCoverageCellNotFound:  "coverage cell not found",

	ErrCodeBlockerNotFound: "blocker not found",
	ErrCodeBlockerInvalid:  "invalid blocker",
	ErrCodeBlockerPatch:    "invalid blocker patch",

	ErrCodeEscalationNotFound:   "escalation not found",
	ErrCodeEscalationInvalid:    "invalid escalation",
	ErrCodeTransitionNotAllowed: "status transition not allowed",

	ErrCodeCommentNotFound:        "comment not found",
	ErrCodeCommentInvalid:         "invalid comment",
	ErrCodeCommentAlreadyAnswered: "comment already answered",

	ErrCodeStorageError: "object storage error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
