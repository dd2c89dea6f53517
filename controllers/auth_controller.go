package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// AuthController handles registration, login, logout and password changes.
type AuthController struct {
	Env
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(env Env) *AuthController {
	return &AuthController{Env: env}
}

// alreadyRegistered sends logged-in callers away from the registration page.
func alreadyRegistered(ctx *gin.Context) bool {
	if !middleware.CurrentIdentity(ctx).Authenticated() {
		return false
	}
	utils.Flash(ctx, "info", "You are already registered.")
	utils.Redirect(ctx, "/")
	return true
}

// RegisterForm renders the empty registration form.
func (a *AuthController) RegisterForm(ctx *gin.Context) {
	if alreadyRegistered(ctx) {
		return
	}
	page(ctx, gin.H{"form": forms.RegistrationForm{}})
}

// Register creates an account and sends the new user to the login page.
func (a *AuthController) Register(ctx *gin.Context) {
	if alreadyRegistered(ctx) {
		return
	}

	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "registration from this address is temporarily blocked")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many attempts, try again later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	var form forms.RegistrationForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		a.registrationFailed(ip)
		invalid(ctx, errs, form.Redacted())
		return
	}
	if errs := form.Validate(a.db(ctx)); errs.Any() {
		a.registrationFailed(ip)
		invalid(ctx, errs, form.Redacted())
		return
	}

	hash, err := utils.HashPassword(form.Password1)
	if err != nil {
		internalError(ctx, 50001, err)
		return
	}
	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    utils.StripTags(strings.TrimSpace(form.FirstName)),
		LastName:     utils.StripTags(strings.TrimSpace(form.LastName)),
		PasswordHash: hash,
		RegisterIP:   ip,
	}
	if err := a.db(ctx).Create(&user).Error; err != nil {
		a.registrationFailed(ip)
		internalError(ctx, 50002, err)
		return
	}
	utils.RegistrationDailyIncrement(ip)

	utils.Flash(ctx, "success", "Registration successful! You can now log in.")
	utils.Redirect(ctx, config.Get().LoginURL)
}

func (a *AuthController) registrationFailed(ip string) {
	fails := utils.RegistrationFailRecord(ip)
	if fails >= max(config.Get().RegisterFailedMaxPerIPPerHour, 1) {
		utils.RegistrationBan(ip)
	}
}

// LoginForm renders the login form, keeping the page the visitor was sent from.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	page(ctx, gin.H{"form": forms.LoginForm{Next: ctx.Query("next")}})
}

// Login verifies credentials and issues a JWT, returned in the body and as a cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var form forms.LoginForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		form.Password = ""
		invalid(ctx, errs, form)
		return
	}
	user, errs := form.Authenticate(a.db(ctx))
	if errs.Any() {
		form.Password = ""
		invalid(ctx, errs, form)
		return
	}

	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		internalError(ctx, 50004, err)
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, token, int(ttl.Seconds()), "/", "", false, true)

	page(ctx, gin.H{
		"token":    token,
		"user":     accountView(user),
		"redirect": safeNext(form.Next, profileURL(user.Username)),
	})
}

// safeNext accepts only local paths as post-login targets.
func safeNext(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return fallback
}

// Logout revokes the current token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token, expiresAt, ok := middleware.CurrentToken(ctx); ok {
		if expiresAt.IsZero() {
			expiresAt = time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
		}
		utils.BlacklistToken(token, expiresAt)
	}
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// PasswordChangeForm renders the password change form.
func (a *AuthController) PasswordChangeForm(ctx *gin.Context) {
	page(ctx, gin.H{"form": forms.PasswordChangeForm{}})
}

// PasswordChange replaces the caller's password. The current session stays valid.
func (a *AuthController) PasswordChange(ctx *gin.Context) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Redirect(ctx, middleware.LoginURL(ctx.Request.URL.RequestURI()))
		return
	}
	var form forms.PasswordChangeForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, nil)
		return
	}
	if errs := form.Validate(user); errs.Any() {
		invalid(ctx, errs, nil)
		return
	}
	hash, err := utils.HashPassword(form.NewPassword1)
	if err != nil {
		internalError(ctx, 50005, err)
		return
	}
	if err := a.db(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		internalError(ctx, 50006, err)
		return
	}
	utils.Flash(ctx, "success", "Password changed successfully!")
	utils.Redirect(ctx, profileURL(user.Username))
}
