package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/models/modeltest"
	"github.com/cppla/blogicum/utils"
)

func setup(t *testing.T, c config.AppConfig) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c.GinMode = "test"
	c.JWTSecret = "test-secret"
	config.Set(c)
	utils.SetRedis(nil)
	return modeltest.NewDB(t)
}

func serve(r *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func whoami(ctx *gin.Context) {
	who := CurrentIdentity(ctx)
	if !who.Authenticated() {
		ctx.String(http.StatusOK, "anonymous")
		return
	}
	ctx.String(http.StatusOK, who.Username)
}

func TestIdentify(t *testing.T) {
	db := setup(t, config.AppConfig{RateLimitPerMinute: -1})
	u := modeltest.User(t, db, "reader")
	r := gin.New()
	r.Use(Identify(db))
	r.GET("/me", whoami)

	tok, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "reader", serve(r, http.MethodGet, "/me", tok).Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", "garbage").Body.String())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tok})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "reader", w.Body.String())

	utils.BlacklistToken(tok, time.Now().Add(time.Hour))
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", tok).Body.String())

	ghost, err := utils.GenerateToken(9999, "ghost", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/me", ghost).Body.String())
}

func TestLoginAndAdminRequired(t *testing.T) {
	db := setup(t, config.AppConfig{RateLimitPerMinute: -1, AdminUsernames: []string{"boss"}})
	reader := modeltest.User(t, db, "reader")
	boss := modeltest.User(t, db, "boss")
	r := gin.New()
	r.Use(Identify(db))
	r.GET("/private/", LoginRequired(), whoami)
	r.GET("/admin/", AdminRequired(), whoami)

	w := serve(r, http.MethodGet, "/private/?x=1", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fprivate%2F%3Fx%3D1", w.Header().Get("Location"))

	readerTok, err := utils.GenerateToken(reader.ID, reader.Username, time.Hour)
	require.NoError(t, err)
	bossTok, err := utils.GenerateToken(boss.ID, boss.Username, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/private/", readerTok).Code)
	assert.Equal(t, http.StatusFound, serve(r, http.MethodGet, "/admin/", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin/", readerTok).Code)
	assert.Equal(t, "boss", serve(r, http.MethodGet, "/admin/", bossTok).Body.String())
}

func TestRateLimit(t *testing.T) {
	setup(t, config.AppConfig{RateLimitPerMinute: 2})
	r := gin.New()
	r.POST("/auth/login/", RateLimitMiddleware(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	r.POST("/auth/registration/", RateLimitMiddleware(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/auth/login/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/auth/login/", "").Code)
	// Each guarded route has its own buckets.
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/auth/registration/", "").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	setup(t, config.AppConfig{RateLimitPerMinute: -1})
	r := gin.New()
	r.POST("/auth/login/", RateLimitMiddleware(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/auth/login/", "").Code)
	}
}

func TestPageViewRecorder(t *testing.T) {
	db := setup(t, config.AppConfig{RateLimitPerMinute: -1})
	r := gin.New()
	r.Use(PageViewRecorder(db))
	ok := func(ctx *gin.Context) { ctx.Status(http.StatusOK) }
	r.GET("/posts/:id/", ok)
	r.POST("/posts/:id/", ok)
	r.GET("/admin/categories/", ok)

	serve(r, http.MethodGet, "/posts/1/", "")
	serve(r, http.MethodGet, "/posts/1/", "")
	serve(r, http.MethodGet, "/posts/2/", "")
	serve(r, http.MethodPost, "/posts/1/", "")
	serve(r, http.MethodGet, "/admin/categories/", "")
	serve(r, http.MethodGet, "/missing/", "")

	var views []models.PageView
	require.NoError(t, db.Order("path").Find(&views).Error)
	require.Len(t, views, 2)
	assert.Equal(t, "/posts/1/", views[0].Path)
	assert.EqualValues(t, 2, views[0].Count)
	assert.Equal(t, "/posts/2/", views[1].Path)
	assert.EqualValues(t, 1, views[1].Count)
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	setup(t, config.AppConfig{RateLimitPerMinute: -1})
	r := gin.New()
	r.Use(Metrics())
	r.GET("/posts/:id/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	before := requestCount(t, "/posts/:id/")
	serve(r, http.MethodGet, "/posts/17/", "")
	serve(r, http.MethodGet, "/posts/18/", "")
	assert.Equal(t, before+2, requestCount(t, "/posts/:id/"))
}

func requestCount(t *testing.T, route string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, HTTPRequestsTotal.WithLabelValues(http.MethodGet, route, "200").Write(&m))
	return m.GetCounter().GetValue()
}
