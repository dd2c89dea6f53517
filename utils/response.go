package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/pages"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error returns a standard error response. Browsers asking for HTML get the matching error page.
func Error(ctx *gin.Context, status int, code int, message string) {
	if wantsHTML(ctx) {
		if body, ok := pages.ErrorPage(status); ok {
			ctx.Data(status, "text/html; charset=utf-8", body)
			return
		}
	}
	Respond(ctx, status, code, message, nil)
}

// ValidationFailed answers with field errors and echoes the submitted input for correction.
func ValidationFailed(ctx *gin.Context, code int, errs interface{}, input interface{}) {
	Respond(ctx, http.StatusBadRequest, code, "validation failed", gin.H{
		"errors": errs,
		"form":   input,
	})
}

// Redirect sends the client to location with 302 Found.
func Redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusFound, location)
}

func wantsHTML(ctx *gin.Context) bool {
	if ctx.Request == nil || ctx.GetHeader("Accept") == "" {
		return false
	}
	return ctx.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}
