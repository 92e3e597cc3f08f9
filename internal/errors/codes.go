package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // 토큰 만료
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // 잘못된 토큰
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // 이메일 중복

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // 접근 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // 관리자만 가능
	AuthzBadSecret    = "AUTHZ_BAD_SECRET"     // 부트스트랩 키 불일치

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재

	// ==================== 리뷰 (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"      // 리뷰 없음
	ReviewInvalidRating = "REVIEW_INVALID_RATING" // 잘못된 평점
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS" // 이미 리뷰 작성함

	// ==================== 찜 (WISHLIST_) ====================
	WishlistItemNotFound = "WISHLIST_ITEM_NOT_FOUND" // 찜 항목 없음

	// ==================== 설정 (SETTINGS_) ====================
	SettingsPartialFailure = "SETTINGS_PARTIAL_FAILURE" // 일부 설정 저장 실패

	// ==================== 업로드 (UPLOAD_) ====================
	UploadNoFile          = "UPLOAD_NO_FILE"           // 파일 없음
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // 잘못된 파일 형식
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // 파일 너무 큼
	UploadTransformFailed = "UPLOAD_TRANSFORM_FAILED"  // 이미지 변환 실패
	UploadFailed          = "UPLOAD_FAILED"            // 업로드 실패

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
)
