package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cppla/blogicum/config"
)

const sessionIssuer = "blogicum"

// ErrInvalidSession is returned for tokens that parse but do not name a user.
var ErrInvalidSession = errors.New("invalid session token")

// Claims is the session carried by the token cookie or Bearer header.
// Subject holds the user id and ID is unique per login, so revoking one
// session never revokes another issued in the same second.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken starts a session for the user. A non-positive ttl falls back
// to TOKEN_TTL_HOURS.
func GenerateToken(userID uint, username string, ttl time.Duration) (string, error) {
	cfg := config.Get()
	if ttl <= 0 {
		ttl = time.Duration(cfg.TokenTTLHours) * time.Hour
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseToken verifies the signature, issuer and expiry of a session token.
func ParseToken(tokenStr string) (*Claims, error) {
	secret := []byte(config.Get().JWTSecret)
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 || claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
