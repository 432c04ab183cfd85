package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"feedback-board-server/models"
	"feedback-board-server/storage"
	"feedback-board-server/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	goredis "github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

// setupTestDB points storage.DB at a fresh in-memory database for one test.
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Feedback{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	storage.DB = db
}

// setupTestRedis backs storage.Redis with an in-process server.
func setupTestRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	storage.Redis = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

// buildTestApp wires the same parties as main.go against the test stores.
func buildTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")

	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})
	optionalAccessTokenMiddleware := utils.OptionalAccessToken(accessTokenVerifier)

	user := app.Party("/User")
	{
		user.Post("/register", Register)
		user.Post("/login", Login)
	}

	post := app.Party("/Post")
	{
		post.Get("/allposts", GetAllPosts)
		post.Get("/mine", accessTokenVerifierMiddleware, GetMyPosts)
		post.Post("/create", accessTokenVerifierMiddleware, CreatePost)
		post.Put("/update/{id:uint}", accessTokenVerifierMiddleware, UpdatePost)
		post.Delete("/delete/{id:uint}", accessTokenVerifierMiddleware, DeletePost)
	}

	feedback := app.Party("/Feedback")
	{
		feedback.Post("/create/{postId:uint}", optionalAccessTokenMiddleware, AddFeedback)
		feedback.Get("/getpostfeedback/{postId:uint}", GetPostFeedback)
		feedback.Get("/mine", accessTokenVerifierMiddleware, GetMyFeedback)
		feedback.Put("/update/{id:uint}", accessTokenVerifierMiddleware, UpdateFeedback)
		feedback.Delete("/delete/{id:uint}", accessTokenVerifierMiddleware, DeleteFeedback)
	}

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})
	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		if err := ctx.ReadJSON(&tokenInput); err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})
	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

// signTestToken returns a signed access token for the given identity.
func signTestToken(id uint, name string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), time.Hour)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Name: name})
	return string(token)
}

// doJSON fires a request with an optional JSON body and bearer token.
func doJSON(app *iris.Application, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func pathID(prefix string, id uint) string {
	return prefix + strconv.FormatUint(uint64(id), 10)
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
}

// createTestUser inserts an account directly and returns it with a token.
func createTestUser(t *testing.T, name, email string) (models.User, string) {
	t.Helper()
	user := models.User{Name: name, Email: email, Password: "x"}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user, signTestToken(user.ID, user.Name)
}

// createTestPost inserts a post with a controlled creation time so ordering
// assertions are deterministic.
func createTestPost(t *testing.T, owner models.User, caption string, age time.Duration) models.Post {
	t.Helper()
	post := models.Post{Caption: caption, Image: "https://example.com/" + caption + ".jpg", UserID: owner.ID}
	post.CreatedAt = time.Now().Add(-age)
	if err := storage.DB.Create(&post).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}
