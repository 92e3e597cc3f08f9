package errors

import (
	"errors"
	"net/http"
)

// Taxonomy shared by every mutation. Services wrap causes with
// fmt.Errorf("%w: ...", ErrX, ...) and controllers map them with Classify.
var (
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrUnauthorized    = errors.New("caller is not authorized")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("resource not found")
	ErrDuplicateReview = errors.New("product already reviewed by caller")
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTransform       = errors.New("image transform failed")
	ErrStore           = errors.New("store operation failed")
	ErrPartialFailure  = errors.New("some entries were not saved")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenExpired       = errors.New("token expired")
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int    // HTTP 상태 코드
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// Classify maps an error from the service layer to what the caller may see.
// Unknown errors are treated as store failures: detail stays in the logs.
func Classify(err error) ErrorInfo {
	switch {
	case err == nil:
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "서버 오류가 발생했습니다"}
	case errors.Is(err, ErrUnauthenticated):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthUnauthorized, Message: "로그인이 필요합니다"}
	case errors.Is(err, ErrInvalidCredentials):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthInvalidCredentials, Message: "이메일 또는 비밀번호가 올바르지 않습니다"}
	case errors.Is(err, ErrTokenExpired):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthTokenExpired, Message: "토큰이 만료되었습니다"}
	case errors.Is(err, ErrEmailAlreadyExists):
		return ErrorInfo{Status: http.StatusConflict, Code: AuthEmailAlreadyExists, Message: "이미 사용 중인 이메일입니다"}
	case errors.Is(err, ErrUnauthorized):
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthzForbidden, Message: "접근 권한이 없습니다"}
	case errors.Is(err, ErrDuplicateReview):
		return ErrorInfo{Status: http.StatusConflict, Code: ReviewAlreadyExists, Message: "이미 이 상품에 리뷰를 작성하셨습니다"}
	case errors.Is(err, ErrNoFile):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadNoFile, Message: "업로드할 파일이 없습니다"}
	case errors.Is(err, ErrUnsupportedType):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadInvalidFileType, Message: "이미지 파일만 업로드할 수 있습니다 (JPEG, PNG, WEBP, GIF)"}
	case errors.Is(err, ErrFileTooLarge):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadFileTooLarge, Message: "파일 크기가 너무 큽니다"}
	case errors.Is(err, ErrTransform):
		return ErrorInfo{Status: http.StatusBadRequest, Code: UploadTransformFailed, Message: "이미지를 처리할 수 없습니다"}
	case errors.Is(err, ErrValidation):
		return ErrorInfo{Status: http.StatusBadRequest, Code: ValidationInvalidInput, Message: validationMessage(err)}
	case errors.Is(err, ErrPartialFailure):
		return ErrorInfo{Status: http.StatusInternalServerError, Code: SettingsPartialFailure, Message: "일부 설정을 저장하지 못했습니다"}
	case errors.Is(err, ErrNotFound):
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "요청한 데이터를 찾을 수 없습니다"}
	default:
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalDatabaseError, Message: "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"}
	}
}

// validationMessage exposes the validation detail; it never carries store internals.
func validationMessage(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "입력값이 올바르지 않습니다"
}

// FieldError is a validation failure for a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a FieldError.
func Invalid(field, message string) error {
	return &FieldError{Field: field, Message: message}
}
