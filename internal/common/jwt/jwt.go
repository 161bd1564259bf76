// Package jwt 提供后台管理员 JWT 令牌管理功能
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// 令牌类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims 自定义 JWT 声明
type Claims struct {
	UserID    string `json:"uid"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity 令牌中携带的管理员身份
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// Config JWT 配置
type Config struct {
	Secret            string
	AccessExpireTime  time.Duration
	RefreshExpireTime time.Duration
	Issuer            string
}

// Manager JWT 管理器，HS256 签名
type Manager struct {
	config *Config
	parser *jwt.Parser
}

// TokenPair 令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// 预定义错误
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenNotActive = errors.New("token not active yet")
	ErrWrongTokenType = errors.New("wrong token type")
)

// NewManager 创建 JWT 管理器，配置了 Issuer 时解析会校验 iss
func NewManager(config *Config) *Manager {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &Manager{config: config, parser: jwt.NewParser(opts...)}
}

// GenerateTokenPair 签发访问令牌与刷新令牌，ExpiresAt 为访问令牌过期时间
func (m *Manager) GenerateTokenPair(id Identity) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(m.config.AccessExpireTime)

	access, err := m.sign(id, TokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(id, TokenTypeRefresh, now, now.Add(m.config.RefreshExpireTime))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp.Unix()}, nil
}

func (m *Manager) sign(id Identity, tokenType string, now, exp time.Time) (string, error) {
	claims := &Claims{
		UserID:    id.UserID,
		Name:      id.Name,
		Email:     id.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
}

// ParseToken 校验签名与有效期，错误统一映射为本包的错误值
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(m.config.Secret), nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotActive
	default:
		return nil, ErrTokenInvalid
	}
}

func (m *Manager) parseTyped(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ParseAccessToken 解析访问令牌，刷新令牌不可用于访问接口
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parseTyped(tokenString, TokenTypeAccess)
}

// RefreshToken 用刷新令牌换取新的令牌对
func (m *Manager) RefreshToken(refreshTokenString string) (*TokenPair, error) {
	claims, err := m.parseTyped(refreshTokenString, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return m.GenerateTokenPair(Identity{UserID: claims.UserID, Name: claims.Name, Email: claims.Email})
}
