package routes

import (
	"errors"
	"strings"

	"feedback-board-server/models"
	"feedback-board-server/storage"
	"feedback-board-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

type CreatePostInput struct {
	Caption string `json:"caption" validate:"required"`
	// Image is a base64 upload and takes precedence over ImageURL.
	Image    string `json:"image"`
	ImageURL string `json:"imageUrl"`
}

type UpdatePostInput struct {
	Caption  *string `json:"caption"`
	Image    string  `json:"image"`
	ImageURL string  `json:"imageUrl"`
}

// resolveImage uploads a base64 image when one is supplied, otherwise falls
// back to a caller-provided URL. The upload wins over the URL; uploaded
// reports whether an upload was attempted so its failure can be told apart
// from a missing image source.
func resolveImage(image, imageURL string) (resolved string, uploaded bool) {
	if image != "" {
		return storage.UploadBase64Image(image, utils.GenerateShortToken(8)), true
	}
	return strings.TrimSpace(imageURL), false
}

func CreatePost(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input CreatePostInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	image, uploaded := resolveImage(input.Image, input.ImageURL)
	if image == "" {
		if uploaded {
			utils.CreateInternalServerError(ctx)
			return
		}
		utils.CreateError(iris.StatusBadRequest, "validation_error",
			"Please upload an image or provide an image URL.", ctx)
		return
	}

	post := models.Post{
		Caption: input.Caption,
		Image:   image,
		UserID:  claims.ID,
	}
	if err := storage.DB.Create(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "Post created", "post": post})
}

func GetAllPosts(ctx iris.Context) {
	var posts []models.Post
	err := storage.DB.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(posts)
}

func GetMyPosts(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var posts []models.Post
	err := storage.DB.
		Where("user_id = ?", claims.ID).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(posts)
}

func UpdatePost(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().GetUintDefault("id", 0)

	var input UpdatePostInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var post models.Post
	if err := storage.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx, "Post not found")
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	if post.UserID != claims.ID {
		utils.CreateForbidden(ctx, "Unauthorized to update this post")
		return
	}

	image, uploaded := resolveImage(input.Image, input.ImageURL)
	if uploaded && image == "" {
		utils.CreateInternalServerError(ctx)
		return
	}
	if image != "" {
		storage.DeleteImage(post.Image)
		post.Image = image
	}
	if input.Caption != nil {
		post.Caption = *input.Caption
	}

	if err := storage.DB.Save(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Post updated", "post": post})
}

func DeletePost(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	id := ctx.Params().GetUintDefault("id", 0)

	var post models.Post
	if err := storage.DB.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx, "Post not found")
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	if post.UserID != claims.ID {
		utils.CreateForbidden(ctx, "Unauthorized to delete this post")
		return
	}

	// Deletion is permanent. Feedback referencing the post is left in place;
	// readers render the missing reference as a deleted post.
	if err := storage.DB.Unscoped().Delete(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	storage.DeleteImage(post.Image)

	ctx.JSON(iris.Map{"message": "Post deleted"})
}
