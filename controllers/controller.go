package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// Env is what every controller needs from the application.
type Env struct {
	DB       *gorm.DB
	Images   *utils.ImageStore
	Notifier utils.Notifier
	// Now is the clock used for visibility decisions. Defaults to UTC wall time.
	Now func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// db binds the shared handle to the request so cancelled requests stop their queries.
func (e Env) db(ctx *gin.Context) *gorm.DB {
	return e.DB.WithContext(ctx.Request.Context())
}

func (e Env) notify(kind, to, subject, body string) {
	if e.Notifier == nil || to == "" {
		return
	}
	middleware.NotificationsTotal.WithLabelValues(kind).Inc()
	utils.NotifyAsync(e.Notifier, to, subject, body)
}

func (e Env) withImageURL(posts ...*models.Post) {
	if e.Images == nil {
		return
	}
	for _, p := range posts {
		p.ImageURL = e.Images.URL(p.Image)
	}
}

func postURL(id uint) string { return fmt.Sprintf("/posts/%d/", id) }

func profileURL(username string) string { return "/profile/" + username + "/" }

func uintParam(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func notFound(ctx *gin.Context) {
	utils.Error(ctx, http.StatusNotFound, 40400, "not found")
}

func internalError(ctx *gin.Context, code int, err error) {
	utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "code", code, "error", err)
	utils.Error(ctx, http.StatusInternalServerError, code, "internal server error")
}

// lookupFailed answers a failed single-row lookup: missing rows are 404, anything else is 500.
func lookupFailed(ctx *gin.Context, code int, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, utils.ErrNotFound) {
		notFound(ctx)
		return
	}
	internalError(ctx, code, err)
}

// page answers a reader-facing page and hands over pending flash messages.
func page(ctx *gin.Context, data gin.H) {
	if msgs := utils.PopFlash(ctx); len(msgs) > 0 {
		data["messages"] = msgs
	}
	utils.Success(ctx, data)
}

func invalid(ctx *gin.Context, errs forms.Errors, input interface{}) {
	utils.ValidationFailed(ctx, 40000, errs, input)
}
