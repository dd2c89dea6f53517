package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

const (
	// ContextIdentityKey stores the *policy.Identity of an authenticated caller.
	ContextIdentityKey = "identity"
	// ContextUserKey stores the *models.User of an authenticated caller.
	ContextUserKey = "user"
	// ContextTokenKey stores the raw token and ContextTokenExpiryKey its expiry, for logout.
	ContextTokenKey       = "token"
	ContextTokenExpiryKey = "token_expires_at"

	// TokenCookie carries the session token for browser clients.
	TokenCookie = "token"
)

// Identify resolves the caller from a Bearer header or the token cookie.
// Requests without valid credentials continue anonymously.
func Identify(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(tokenString) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			ctx.Next()
			return
		}

		var user models.User
		if err := db.WithContext(ctx.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			// Deleted accounts lose their sessions.
			ctx.Next()
			return
		}

		ctx.Set(ContextUserKey, &user)
		ctx.Set(ContextIdentityKey, &policy.Identity{
			UserID:   user.ID,
			Username: user.Username,
			IsAdmin:  config.Get().IsAdmin(user.Username),
		})
		ctx.Set(ContextTokenKey, tokenString)
		if claims.ExpiresAt != nil {
			ctx.Set(ContextTokenExpiryKey, claims.ExpiresAt.Time)
		}
		ctx.Next()
	}
}

// LoginRequired sends anonymous callers to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentIdentity(ctx).Authenticated() {
			ctx.Next()
			return
		}
		utils.Redirect(ctx, LoginURL(ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// AdminRequired lets only configured administrators through.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		who := CurrentIdentity(ctx)
		if !who.Authenticated() {
			utils.Redirect(ctx, LoginURL(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		if d := policy.Authorize(policy.ManageTaxonomy, who, nil); !d.Allowed {
			utils.Error(ctx, http.StatusForbidden, 40301, "administrator access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// LoginURL builds the login redirect target for next.
func LoginURL(next string) string {
	login := config.Get().LoginURL
	if next == "" {
		return login
	}
	return login + "?next=" + url.QueryEscape(next)
}

// CurrentIdentity returns the caller, nil for anonymous visitors.
func CurrentIdentity(ctx *gin.Context) *policy.Identity {
	if v, ok := ctx.Get(ContextIdentityKey); ok {
		if id, ok := v.(*policy.Identity); ok {
			return id
		}
	}
	return nil
}

// CurrentUser returns the account of the caller, if any.
func CurrentUser(ctx *gin.Context) (*models.User, bool) {
	if v, ok := ctx.Get(ContextUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u, true
		}
	}
	return nil, false
}

// CurrentToken returns the token that authenticated this request and its expiry.
func CurrentToken(ctx *gin.Context) (string, time.Time, bool) {
	token := ctx.GetString(ContextTokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, ctx.GetTime(ContextTokenExpiryKey), true
}

func bearerToken(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := ctx.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(c)
	}
	return ""
}
