package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/controllers"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/utils"
)

// Options tune the router for the process or for tests.
type Options struct {
	// AccessLogger receives the request log. Nil means the rolling gin log file from config.
	AccessLogger *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(env controllers.Env, opts Options) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	gl := opts.AccessLogger
	if gl == nil {
		var err error
		gl, err = utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin log file unavailable, using app logger: %v", err)
			gl = utils.Logger
		}
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// Credentials cannot be combined with a wildcard origin.
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Identify(env.DB))
	r.Use(middleware.PageViewRecorder(env.DB))

	r.Static(strings.TrimRight(cfg.MediaURL, "/"), cfg.MediaRoot)
	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	postController := controllers.NewPostController(env)
	commentController := controllers.NewCommentController(env)
	profileController := controllers.NewProfileController(env)
	authController := controllers.NewAuthController(env)
	adminController := controllers.NewAdminController(env)
	statsController := controllers.NewStatsController(env)

	login := middleware.LoginRequired()

	r.GET("/", postController.Index)
	r.GET("/category/:slug/", postController.Category)

	posts := r.Group("/posts")
	posts.GET("/create/", login, postController.CreateForm)
	posts.POST("/create/", login, postController.Create)
	posts.GET("/:id/", postController.Detail)
	posts.GET("/:id/edit/", login, postController.EditForm)
	posts.POST("/:id/edit/", login, postController.Edit)
	posts.GET("/:id/delete/", login, postController.DeleteConfirm)
	posts.POST("/:id/delete/", login, postController.Delete)
	posts.POST("/:id/comment/", login, commentController.Add)
	posts.GET("/:id/edit_comment/:comment_id/", login, commentController.EditForm)
	posts.POST("/:id/edit_comment/:comment_id/", login, commentController.Edit)
	posts.GET("/:id/delete_comment/:comment_id/", login, commentController.Delete)
	posts.POST("/:id/delete_comment/:comment_id/", login, commentController.Delete)

	profile := r.Group("/profile")
	profile.GET("/:username/", profileController.Show)
	profile.GET("/:username/edit/", login, profileController.EditForm)
	profile.POST("/:username/edit/", login, profileController.Edit)

	auth := r.Group("/auth")
	limited := middleware.RateLimitMiddleware()
	auth.GET("/registration/", authController.RegisterForm)
	auth.POST("/registration/", limited, authController.Register)
	auth.GET("/login/", authController.LoginForm)
	auth.POST("/login/", limited, authController.Login)
	auth.POST("/logout/", authController.Logout)
	auth.GET("/password_change/", login, authController.PasswordChangeForm)
	auth.POST("/password_change/", login, authController.PasswordChange)

	r.GET("/about/", controllers.About)
	r.GET("/rules/", controllers.Rules)

	r.GET("/stats/", statsController.GetStats)
	r.GET("/stats/posts/:id/", statsController.GetPostStats)

	admin := r.Group("/admin", middleware.AdminRequired())
	admin.GET("/categories/", adminController.ListCategories)
	admin.POST("/categories/", adminController.SaveCategory)
	admin.GET("/categories/:id/", adminController.GetCategory)
	admin.POST("/categories/:id/", adminController.SaveCategory)
	admin.DELETE("/categories/:id/", adminController.DeleteCategory)
	admin.GET("/locations/", adminController.ListLocations)
	admin.POST("/locations/", adminController.SaveLocation)
	admin.GET("/locations/:id/", adminController.GetLocation)
	admin.POST("/locations/:id/", adminController.SaveLocation)
	admin.DELETE("/locations/:id/", adminController.DeleteLocation)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "page not found")
	})

	return r
}
