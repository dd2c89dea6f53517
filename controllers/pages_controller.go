package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/pages"
)

const htmlContentType = "text/html; charset=utf-8"

// About serves the static "about" page.
func About(ctx *gin.Context) {
	ctx.Data(http.StatusOK, htmlContentType, pages.About())
}

// Rules serves the static site rules page.
func Rules(ctx *gin.Context) {
	ctx.Data(http.StatusOK, htmlContentType, pages.Rules())
}
