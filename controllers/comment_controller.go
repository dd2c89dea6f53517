package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// CommentController manages comments under posts.
type CommentController struct {
	Env
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(env Env) *CommentController {
	return &CommentController{Env: env}
}

// Add attaches a comment by the caller to a post the caller can see.
func (c *CommentController) Add(ctx *gin.Context) {
	who := middleware.CurrentIdentity(ctx)
	if d := policy.Authorize(policy.CreateComment, who, nil); !d.Allowed {
		utils.Redirect(ctx, middleware.LoginURL(ctx.Request.URL.RequestURI()))
		return
	}
	postID, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	var post models.Post
	if err := c.db(ctx).Preload("Author").Preload("Category").First(&post, postID).Error; err != nil {
		lookupFailed(ctx, 50030, err)
		return
	}
	if err := policy.CanView(&post, who, c.now()); err != nil {
		notFound(ctx)
		return
	}

	var form forms.CommentForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if errs := form.Validate(); errs.Any() {
		invalid(ctx, errs, form)
		return
	}

	comment := models.Comment{PostID: post.ID, AuthorID: who.UserID, Text: form.Cleaned()}
	if err := c.db(ctx).Omit("Author").Create(&comment).Error; err != nil {
		internalError(ctx, 50031, err)
		return
	}

	if post.AuthorID != who.UserID {
		c.notify("new_comment", post.Author.Email, "New comment",
			fmt.Sprintf("A new comment was added to your post %q.", post.Title))
	}
	utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
	utils.Flash(ctx, "success", "Comment added successfully!")
	utils.Redirect(ctx, postURL(post.ID))
}

// ownComment finds the caller's comment under the post in the URL. Anything else is 404.
func (c *CommentController) ownComment(ctx *gin.Context, op policy.Op) *models.Comment {
	postID, ok := uintParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return nil
	}
	commentID, ok := uintParam(ctx, "comment_id")
	if !ok {
		notFound(ctx)
		return nil
	}
	who := middleware.CurrentIdentity(ctx)
	if !who.Authenticated() {
		utils.Redirect(ctx, middleware.LoginURL(ctx.Request.URL.RequestURI()))
		return nil
	}
	var comment models.Comment
	if err := c.db(ctx).
		Where("id = ? AND post_id = ? AND author_id = ?", commentID, postID, who.UserID).
		First(&comment).Error; err != nil {
		lookupFailed(ctx, 50032, err)
		return nil
	}
	if d := policy.Authorize(op, who, &comment); !d.Allowed {
		notFound(ctx)
		return nil
	}
	return &comment
}

// EditForm renders the caller's comment for editing.
func (c *CommentController) EditForm(ctx *gin.Context) {
	comment := c.ownComment(ctx, policy.EditComment)
	if comment == nil {
		return
	}
	page(ctx, gin.H{"form": forms.CommentForm{Text: comment.Text}, "comment": comment, "editing": true})
}

// Edit replaces the text of the caller's comment.
func (c *CommentController) Edit(ctx *gin.Context) {
	comment := c.ownComment(ctx, policy.EditComment)
	if comment == nil {
		return
	}
	var form forms.CommentForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if errs := form.Validate(); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if err := c.db(ctx).Model(comment).Update("text", form.Cleaned()).Error; err != nil {
		internalError(ctx, 50033, err)
		return
	}
	utils.Flash(ctx, "success", "Comment updated successfully!")
	utils.Redirect(ctx, postURL(comment.PostID))
}

// Delete removes the caller's comment. A GET only leads back to the post.
func (c *CommentController) Delete(ctx *gin.Context) {
	comment := c.ownComment(ctx, policy.DeleteComment)
	if comment == nil {
		return
	}
	if ctx.Request.Method == http.MethodPost {
		if err := c.db(ctx).Delete(&models.Comment{}, comment.ID).Error; err != nil {
			internalError(ctx, 50034, err)
			return
		}
		utils.InvalidateByPrefix(ctx.Request.Context(), utils.CacheIndexPrefix)
		utils.Flash(ctx, "success", "Comment deleted successfully!")
	}
	utils.Redirect(ctx, postURL(comment.PostID))
}
