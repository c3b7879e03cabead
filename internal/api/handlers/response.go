package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"collab_web/internal/auth"
	"collab_web/internal/middleware"
	"collab_web/internal/service"
)

// respondError 把服務層的錯誤轉換成 HTTP 回應
func respondError(c *gin.Context, err error) {
	if code := auth.Code(err); code != "" {
		middleware.AbortWithAuthError(c, err)
		return
	}

	var upstream *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "denied"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, service.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "email_taken"})
	case errors.Is(err, service.ErrWrongCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_login"})
	case errors.As(err, &upstream):
		// 不把底層錯誤細節回給客戶端
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream failure", "code": "upstream_failure"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}

// respondOutcome 處理協調器的回傳值
func respondOutcome(c *gin.Context, out service.Outcome, err error, status int) {
	if err == nil {
		err = out.Err()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if out.Result == nil {
		c.JSON(status, gin.H{"affected": out.Affected})
		return
	}
	c.JSON(status, out.Result)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_request"})
}

// paramID 解析路徑中的 ID，失敗時直接回應 400
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "invalid_request"})
		return 0, false
	}
	return uint(id), true
}

// identity 只會在 AuthMiddleware 之後呼叫
func identity(c *gin.Context) auth.Identity {
	id, _ := middleware.CurrentIdentity(c)
	return id
}
