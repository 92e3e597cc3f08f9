package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 표준 에러 응답 구조
type ErrorResponse struct {
	Success bool   `json:"success"` // 항상 false
	Error   string `json:"error"`   // 에러 코드 (프론트엔드에서 매핑용)
	Message string `json:"message"` // 사용자 친화적 메시지 (한글)
}

// RespondWithError 에러 응답 헬퍼
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   errorCode,
		Message: message,
	})
}

// Respond classifies err and writes the failure envelope.
func Respond(c *gin.Context, err error) {
	info := Classify(err)
	RespondWithError(c, info.Status, info.Code, info.Message)
}

// Success writes {"success": true, ...payload}.
func Success(c *gin.Context, statusCode int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(statusCode, body)
}

// 자주 사용하는 에러 응답 단축 함수들

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "로그인이 필요합니다"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}
