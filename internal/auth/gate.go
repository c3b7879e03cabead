package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims 是寫入 token 的欄位
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Gate 簽發並驗證 bearer token
type Gate struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewGate 建立一個新的 Gate，secret 不可為空
func NewGate(secret string, ttl time.Duration) (*Gate, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Gate{
		secret: []byte(secret),
		ttl:    ttl,
		// 過期時間由 Authenticate 用 g.now 自行檢查，才能和無效簽章分開回報
		parser: &jwt.Parser{
			ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
			SkipClaimsValidation: true,
		},
		now: time.Now,
	}, nil
}

// Issue 為 identity 生成一個新的 JWT token
func (g *Gate) Issue(id Identity) (string, error) {
	if !id.Role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", id.Role)
	}
	nowTime := g.now()
	claims := Claims{
		UserID: id.UserID,
		Role:   string(id.Role),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: nowTime.Add(g.ttl).Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(g.secret)
}

// Authenticate 解析並驗證 token。
//
// roles 非空時，角色不在清單內會回傳 ErrForbidden，同時仍回傳解析出的 Identity。
func (g *Gate) Authenticate(credential string, roles ...Role) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrUnauthenticated
	}

	var claims Claims
	_, err := g.parser.ParseWithClaims(credential, &claims, func(token *jwt.Token) (interface{}, error) {
		return g.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.ExpiresAt == 0 || claims.UserID == 0 {
		return Identity{}, fmt.Errorf("%w: missing claims", ErrInvalidCredential)
	}
	if g.now().Unix() > claims.ExpiresAt {
		return Identity{}, ErrCredentialExpired
	}

	id := Identity{UserID: claims.UserID, Role: Role(claims.Role)}
	if !id.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, claims.Role)
	}

	if len(roles) > 0 && !slices.Contains(roles, id.Role) {
		return id, ErrForbidden
	}
	return id, nil
}
