package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// StatsController provides site statistics such as counts and today's page views.
type StatsController struct {
	Env
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(env Env) *StatsController {
	return &StatsController{Env: env}
}

// GetStats returns aggregate statistics for the blog.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount, postCount, commentCount, categoryCount, pageViews int64
	db := s.db(ctx)

	// A failing counter reports 0 instead of failing the whole endpoint.
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := db.Model(&models.Post{}).Scopes(policy.LivePosts(s.now())).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	if err := db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}
	if err := db.Model(&models.Category{}).Where("is_published = ?", true).Count(&categoryCount).Error; err != nil {
		categoryCount = 0
	}

	// The DATE column is compared by range so every driver matches the same rows.
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.PageView{}).
		Where("date >= ? AND date < ?", today, today.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(count),0)").
		Scan(&pageViews).Error; err != nil {
		pageViews = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":       userCount,
		"post_count":       postCount,
		"comment_count":    commentCount,
		"category_count":   categoryCount,
		"today_page_views": pageViews,
	})
}

// GetPostStats returns total page views and comments for a post the caller can see.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	db := s.db(ctx)
	var post models.Post
	if err := db.Preload("Category").First(&post, id).Error; err != nil {
		lookupFailed(ctx, 50060, err)
		return
	}
	if err := policy.CanView(&post, middleware.CurrentIdentity(ctx), s.now()); err != nil {
		notFound(ctx)
		return
	}

	var pv int64
	if err := db.Model(&models.PageView{}).
		Where("path = ?", postURL(post.ID)).
		Select("COALESCE(SUM(count),0)").
		Scan(&pv).Error; err != nil {
		pv = 0
	}
	var comments int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error; err != nil {
		comments = 0
	}
	utils.Success(ctx, gin.H{"pv": pv, "comment_count": comments})
}
