package controllers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/policy"
	"github.com/cppla/blogicum/utils"
)

// ProfileController serves user profiles.
type ProfileController struct {
	Env
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(env Env) *ProfileController {
	return &ProfileController{Env: env}
}

// accountView is the private view of an account, shown to its owner only.
func accountView(u *models.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"first_name":  u.FirstName,
		"last_name":   u.LastName,
		"date_joined": u.CreatedAt,
	}
}

// Show lists the posts of a user. Owners see drafts and scheduled posts too.
func (p *ProfileController) Show(ctx *gin.Context) {
	var owner models.User
	if err := p.db(ctx).Scopes(models.ByUsername(ctx.Param("username"))).First(&owner).Error; err != nil {
		lookupFailed(ctx, 50040, err)
		return
	}
	who := middleware.CurrentIdentity(ctx)
	listing, err := p.listPosts(ctx, policy.ProfilePosts(&owner, who, p.now()), config.Get().ProfilePostsPerPage)
	if err != nil {
		internalError(ctx, 50041, err)
		return
	}

	isOwner := who.Is(owner.ID)
	var profile interface{} = owner
	if isOwner {
		profile = accountView(&owner)
	}
	page(ctx, gin.H{
		"profile":  profile,
		"posts":    listing.Posts,
		"page":     listing.Page,
		"is_owner": isOwner,
	})
}

// target loads the profile in the URL and makes sure the caller owns it.
func (p *ProfileController) target(ctx *gin.Context) *models.User {
	var user models.User
	if err := p.db(ctx).Scopes(models.ByUsername(ctx.Param("username"))).First(&user).Error; err != nil {
		lookupFailed(ctx, 50042, err)
		return nil
	}
	who := middleware.CurrentIdentity(ctx)
	switch d := policy.Authorize(policy.EditProfile, who, &user); {
	case d.Allowed:
		return &user
	case d.Reason == policy.ReasonUnauthenticated:
		utils.Redirect(ctx, middleware.LoginURL(ctx.Request.URL.RequestURI()))
	default:
		utils.Flash(ctx, "error", "You can only edit your own profile.")
		utils.Redirect(ctx, profileURL(who.Username))
	}
	return nil
}

// EditForm renders the caller's profile form.
func (p *ProfileController) EditForm(ctx *gin.Context) {
	user := p.target(ctx)
	if user == nil {
		return
	}
	page(ctx, gin.H{"form": forms.NewProfileForm(user)})
}

// Edit saves the caller's profile.
func (p *ProfileController) Edit(ctx *gin.Context) {
	user := p.target(ctx)
	if user == nil {
		return
	}
	var form forms.ProfileForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	if errs := form.Validate(p.db(ctx), user.ID); errs.Any() {
		invalid(ctx, errs, form)
		return
	}
	form.Apply(user)
	if err := p.db(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		internalError(ctx, 50043, err)
		return
	}
	utils.Flash(ctx, "success", "Profile updated successfully!")
	utils.Redirect(ctx, profileURL(user.Username))
}
