package auth

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthorized: token missing")
	ErrInvalidCredential = errors.New("unauthorized: invalid token")
	ErrCredentialExpired = errors.New("unauthorized: token expired")
	ErrForbidden         = errors.New("forbidden: insufficient permissions")
)

// Code 把錯誤轉換成回應中的錯誤代碼，未知錯誤回傳空字串
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrCredentialExpired):
		return "credential_expired"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	}
	return ""
}
