package controllers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// Replaced and deleted images stay on disk this long before the sweeper removes them.
const imageRemovalDelay = time.Hour

// PostController serves post listings and the authoring workflow.
type PostController struct {
	Env
}

// NewPostController creates a new PostController instance.
func NewPostController(env Env) *PostController {
	return &PostController{Env: env}
}

type postListing struct {
	Posts []models.Post `json:"posts"`
	Page  policy.Page   `json:"page"`
}

// listPosts counts and loads one page of posts matching scope, newest first.
func (e Env) listPosts(ctx *gin.Context, scope func(*gorm.DB) *gorm.DB, size int) (postListing, error) {
	var total int64
	if err := e.db(ctx).Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return postListing{}, fmt.Errorf("count posts: %w", err)
	}
	pg := policy.Paginate(total, ctx.Query("page"), size)
	posts := make([]models.Post, 0, pg.Size)
	if err := e.db(ctx).Model(&models.Post{}).
		Scopes(scope, policy.WithCommentCount, policy.NewestFirst, policy.WithRelations, pg.Scope).
		Find(&posts).Error; err != nil {
		return postListing{}, fmt.Errorf("list posts: %w", err)
	}
	for i := range posts {
		e.withImageURL(&posts[i])
	}
	return postListing{Posts: posts, Page: pg}, nil
}

// Index lists live posts. Anonymous-safe pages are cached in Redis when enabled.
func (p *PostController) Index(ctx *gin.Context) {
	cfg := config.Get()
	cacheKey := utils.CacheIndexPrefix + "page=" + ctx.Query("page")
	var listing postListing
	if cfg.IndexCacheSeconds > 0 && utils.CacheGetJSON(ctx.Request.Context(), cacheKey, &listing) {
		page(ctx, gin.H{"posts": listing.Posts, "page": listing.Page})
		return
	}

	listing, err := p.listPosts(ctx, policy.LivePosts(p.now()), cfg.PostsPerPage)
	if err != nil {
		internalError(ctx, 50010, err)
		return
	}
	if cfg.IndexCacheSeconds > 0 {
		utils.CacheSetJSON(ctx.Request.Context(), cacheKey, listing, time.Duration(cfg.IndexCacheSeconds)*time.Second)
	}
	page(ctx, gin.H{"posts": listing.Posts, "page": listing.Page})
}

// Detail shows one post with its comments, oldest comment first.
func (p *PostController) Detail(ctx *gin.Context) {
	id, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	var post models.Post
	if err := p.db(ctx).Scopes(policy.WithRelations).First(&post, id).Error; err != nil {
		lookupFailed(ctx, 50011, err)
		return
	}
	who := middleware.CurrentIdentity(ctx)
	if err := policy.CanView(&post, who, p.now()); err != nil {
		notFound(ctx)
		return
	}

	comments := make([]models.Comment, 0)
	if err := p.db(ctx).Preload("Author").
		Where("post_id = ?", post.ID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		internalError(ctx, 50012, err)
		return
	}
	post.CommentCount = int64(len(comments))
	p.withImageURL(&post)

	data := gin.H{"post": post, "comments": comments}
	if who.Authenticated() {
		data["comment_form"] = forms.CommentForm{}
	}
	page(ctx, data)
}

// Category lists live posts of a published category.
func (p *PostController) Category(ctx *gin.Context) {
	var category models.Category
	if err := p.db(ctx).
		Where("slug = ? AND is_published = ?", ctx.Param("slug"), true).
		First(&category).Error; err != nil {
		lookupFailed(ctx, 50013, err)
		return
	}
	live := policy.LivePosts(p.now())
	listing, err := p.listPosts(ctx, func(db *gorm.DB) *gorm.DB {
		return live(db).Where("posts.category_id = ?", category.ID)
	}, config.Get().PostsPerPage)
	if err != nil {
		internalError(ctx, 50014, err)
		return
	}
	page(ctx, gin.H{"category": category, "posts": listing.Posts, "page": listing.Page})
}

// choices returns the published categories and locations offered by the post form.
func (p *PostController) choices(ctx *gin.Context) (gin.H, error) {
	var categories []models.Category
	if err := p.db(ctx).Where("is_published = ?", true).Order("title").Find(&categories).Error; err != nil {
		return nil, err
	}
	var locations []models.Location
	if err := p.db(ctx).Where("is_published = ?", true).Order("name").Find(&locations).Error; err != nil {
		return nil, err
	}
	return gin.H{"categories": categories, "locations": locations}, nil
}

func (p *PostController) renderForm(ctx *gin.Context, data gin.H) {
	choices, err := p.choices(ctx)
	if err != nil {
		internalError(ctx, 50015, err)
		return
	}
	for k, v := range choices {
		data[k] = v
	}
	page(ctx, data)
}

func (p *PostController) postContext(ctx *gin.Context, current *models.Post) forms.PostContext {
	pc := forms.PostContext{
		DB:        p.db(ctx),
		Submitter: middleware.CurrentIdentity(ctx),
		Current:   current,
		Now:       p.now(),
	}
	if p.Images != nil {
		pc.Images = p.Images
	}
	return pc
}

// CreateForm renders an empty post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	p.renderForm(ctx, gin.H{"form": forms.PostForm{PubDate: p.now().Format("2006-01-02T15:04")}})
}

// Create stores a new post by the caller. A future pub date schedules it.
func (p *PostController) Create(ctx *gin.Context) {
	who := middleware.CurrentIdentity(ctx)
	if d := policy.Authorize(policy.CreatePost, who, nil); !d.Allowed {
		utils.Redirect(ctx, middleware.LoginURL(ctx.Request.URL.RequestURI()))
		return
	}

	var form forms.PostForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	now := p.now()
	if errs := form.Validate(p.postContext(ctx, nil)); errs.Any() {
		invalid(ctx, errs, form)
		return
	}

	post := models.Post{AuthorID: who.UserID}
	form.Apply(&post)
	// Scheduled posts are published too; the pub date keeps them hidden until due.
	post.IsPublished = true
	if form.Image != nil && p.Images != nil {
		rel, err := p.Images.Save(form.Image, now)
		if err != nil {
			internalError(ctx, 50016, err)
			return
		}
		post.Image = rel
	}
	if err := p.db(ctx).Omit(clause.Associations).Create(&post).Error; err != nil {
		p.discardImage(post.Image)
		internalError(ctx, 50017, err)
		return
	}

	if post.PubDate.After(now) {
		if u, ok := middleware.CurrentUser(ctx); ok {
			p.notify("post_scheduled", u.Email, "Post scheduled",
				fmt.Sprintf("Your post %q will be published on %s.", post.Title, post.PubDate.Format("02.01.2006 15:04")))
		}
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Flash(ctx, "success", "Post created successfully!")
	utils.Redirect(ctx, profileURL(who.Username))
}

// ownPost loads the post named in the URL and checks that the caller may change it.
// It answers the request itself and returns nil when the handler should stop.
func (p *PostController) ownPost(ctx *gin.Context, op policy.Op) *models.Post {
	id, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return nil
	}
	var post models.Post
	if err := p.db(ctx).First(&post, id).Error; err != nil {
		lookupFailed(ctx, 50018, err)
		return nil
	}
	if d := policy.Authorize(op, middleware.CurrentIdentity(ctx), &post); !d.Allowed {
		utils.Redirect(ctx, postURL(post.ID))
		return nil
	}
	return &post
}

// EditForm renders the edit form of the caller's post.
func (p *PostController) EditForm(ctx *gin.Context) {
	post := p.ownPost(ctx, policy.EditPost)
	if post == nil {
		return
	}
	p.withImageURL(post)
	p.renderForm(ctx, gin.H{"form": forms.NewPostForm(post), "post": post})
}

// Edit applies the submitted changes to the caller's post.
func (p *PostController) Edit(ctx *gin.Context) {
	post := p.ownPost(ctx, policy.EditPost)
	if post == nil {
		return
	}

	var form forms.PostForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if errs := form.Validate(p.postContext(ctx, post)); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	form.Apply(post)

	oldImage := post.Image
	switch {
	case form.Image != nil && p.Images != nil:
		rel, err := p.Images.Save(form.Image, p.now())
		if err != nil {
			internalError(ctx, 50019, err)
			return
		}
		post.Image = rel
	case form.ClearImage:
		post.Image = ""
	}

	err := p.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		if oldImage != "" && oldImage != post.Image && p.Images != nil {
			return p.Images.QueueRemoval(tx, oldImage, imageRemovalDelay)
		}
		return nil
	})
	if err != nil {
		if post.Image != oldImage {
			p.discardImage(post.Image)
		}
		internalError(ctx, 50020, err)
		return
	}

	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Flash(ctx, "success", "Post updated successfully!")
	utils.Redirect(ctx, postURL(post.ID))
}

// discardImage removes an upload whose database write failed.
func (p *PostController) discardImage(rel string) {
	if p.Images == nil || rel == "" {
		return
	}
	if err := p.Images.Discard(rel); err != nil {
		utils.Sugar.Warnw("discard image failed", "path", rel, "error", err)
	}
}

// DeleteConfirm shows the post the caller is about to delete.
func (p *PostController) DeleteConfirm(ctx *gin.Context) {
	post := p.ownPost(ctx, policy.DeletePost)
	if post == nil {
		return
	}
	p.withImageURL(post)
	page(ctx, gin.H{"post": post, "confirm_delete": true})
}

// Delete removes the caller's post together with its comments.
func (p *PostController) Delete(ctx *gin.Context) {
	post := p.ownPost(ctx, policy.DeletePost)
	if post == nil {
		return
	}
	err := p.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
			return err
		}
		if post.Image != "" && p.Images != nil {
			return p.Images.QueueRemoval(tx, post.Image, imageRemovalDelay)
		}
		return nil
	})
	if err != nil {
		internalError(ctx, 50021, err)
		return
	}

	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Flash(ctx, "success", "Post deleted successfully!")
	who := middleware.CurrentIdentity(ctx)
	utils.Redirect(ctx, profileURL(who.Username))
}
