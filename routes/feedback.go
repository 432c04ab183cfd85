package routes

import (
	"encoding/json"
	"errors"
	"strings"

	"feedback-board-server/models"
	"feedback-board-server/storage"
	"feedback-board-server/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

type FeedbackInput struct {
	Text string `json:"text"`
	// Anonymous is accepted as a JSON boolean or the strings "true"/"false";
	// anything else is rejected at the boundary.
	Anonymous json.RawMessage `json:"anonymous"`
}

// parseAnonymous normalizes the duck-typed anonymous flag into a strict bool.
// present is false when the field was absent or null, ok is false for any
// value that is neither a boolean nor "true"/"false".
func parseAnonymous(raw json.RawMessage) (value bool, present bool, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, false, true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "true":
			return true, true, true
		case "false":
			return false, true, true
		}
	}
	return false, false, false
}

func AddFeedback(ctx iris.Context) {
	identity := utils.OptionalIdentity(ctx)
	postID := ctx.Params().GetUintDefault("postId", 0)

	var input FeedbackInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if strings.TrimSpace(input.Text) == "" {
		utils.CreateError(iris.StatusBadRequest, "validation_error", "Feedback text is required", ctx)
		return
	}

	var post models.Post
	if err := storage.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx, "Post not found")
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	isAnonymous, present, ok := parseAnonymous(input.Anonymous)
	if !ok {
		utils.CreateError(iris.StatusBadRequest, "validation_error",
			`anonymous must be a boolean or "true"/"false"`, ctx)
		return
	}
	if !present {
		isAnonymous = true
	}

	// The display name is a snapshot: the caller's name only when they are
	// authenticated and not anonymous. The user reference is kept either way.
	displayName := "Anonymous"
	var userID *uint
	if identity != nil {
		id := identity.ID
		userID = &id
		if !isAnonymous {
			displayName = identity.Name
		}
	}

	feedback := models.Feedback{
		PostID:    post.ID,
		Text:      input.Text,
		Name:      displayName,
		Anonymous: isAnonymous,
		UserID:    userID,
	}
	if err := storage.DB.Create(&feedback).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": "Feedback added", "feedback": feedback})
}

// GetPostFeedback is public and tolerates a deleted post: the result is simply
// empty when nothing references the id.
func GetPostFeedback(ctx iris.Context) {
	postID := ctx.Params().GetUintDefault("postId", 0)

	var feedbacks []models.Feedback
	err := storage.DB.
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(feedbacks)
}

func GetMyFeedback(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var feedbacks []models.Feedback
	err := storage.DB.
		Where("user_id = ?", claims.ID).
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "caption", "image")
		}).
		Order("created_at DESC").
		Find(&feedbacks).Error
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(feedbacks)
}

// loadOwnFeedback loads a feedback record and enforces the owner path: guest
// feedback has no owner, so it is never mutable through here.
func loadOwnFeedback(ctx iris.Context, claims *utils.AccessToken, forbiddenMsg string) (*models.Feedback, bool) {
	id := ctx.Params().GetUintDefault("id", 0)

	var feedback models.Feedback
	if err := storage.DB.First(&feedback, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx, "Feedback not found")
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return nil, false
	}

	if feedback.UserID == nil || *feedback.UserID != claims.ID {
		utils.CreateForbidden(ctx, forbiddenMsg)
		return nil, false
	}
	return &feedback, true
}

func UpdateFeedback(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	var input FeedbackInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	feedback, ok := loadOwnFeedback(ctx, claims, "Unauthorized to edit this feedback")
	if !ok {
		return
	}

	isAnonymous, present, ok := parseAnonymous(input.Anonymous)
	if !ok {
		utils.CreateError(iris.StatusBadRequest, "validation_error",
			`anonymous must be a boolean or "true"/"false"`, ctx)
		return
	}

	if strings.TrimSpace(input.Text) != "" {
		feedback.Text = input.Text
	}
	if present {
		feedback.Anonymous = isAnonymous
	}

	if err := storage.DB.Save(feedback).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Feedback updated successfully", "feedback": feedback})
}

func DeleteFeedback(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	feedback, ok := loadOwnFeedback(ctx, claims, "Unauthorized to delete this feedback")
	if !ok {
		return
	}

	if err := storage.DB.Unscoped().Delete(feedback).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"message": "Feedback deleted successfully"})
}
