package main

import (
	"fmt"
	"log"
	"os"

	"feedback-board-server/routes"
	"feedback-board-server/storage"
	"feedback-board-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeRedis()
	storage.InitializeCloudinary()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT verifiers
	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})
	optionalAccessTokenMiddleware := utils.OptionalAccessToken(accessTokenVerifier)

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/User")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
	}

	post := app.Party("/Post")
	{
		post.Get("/allposts", routes.GetAllPosts)
		post.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyPosts)
		post.Post("/create", accessTokenVerifierMiddleware, routes.CreatePost)
		post.Put("/update/{id:uint}", accessTokenVerifierMiddleware, routes.UpdatePost)
		post.Delete("/delete/{id:uint}", accessTokenVerifierMiddleware, routes.DeletePost)
	}

	feedback := app.Party("/Feedback")
	{
		// Anyone (user or guest) can add feedback
		feedback.Post("/create/{postId:uint}", optionalAccessTokenMiddleware, routes.AddFeedback)
		feedback.Get("/getpostfeedback/{postId:uint}", routes.GetPostFeedback)
		feedback.Get("/mine", accessTokenVerifierMiddleware, routes.GetMyFeedback)
		feedback.Put("/update/{id:uint}", accessTokenVerifierMiddleware, routes.UpdateFeedback)
		feedback.Delete("/delete/{id:uint}", accessTokenVerifierMiddleware, routes.DeleteFeedback)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
