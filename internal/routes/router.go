// Package routesはroutingを行います。
package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"go-todo-timer/backend/internal/clock"
	"go-todo-timer/backend/internal/config"
	"go-todo-timer/backend/internal/handlers"
	"go-todo-timer/backend/internal/repositories"
	"go-todo-timer/backend/internal/services"
	"go-todo-timer/backend/internal/timer"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sqlx.DB, cfg *config.Config, clk clock.Clock) *gin.Engine {
	r := gin.Default()
	r.Use(RequestID())

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// リポジトリ
	store := repositories.NewStore(db)
	todoRepo := repositories.NewTodoRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// サービス
	engine := timer.NewEngine(store, clk)
	todoService := services.NewTodoService(engine, todoRepo, eventRepo, tagRepo, clk)
	tagService := services.NewTagService(tagRepo, todoRepo, clk)
	userService := services.NewUserService(userRepo)
	jwtService := services.NewJWTService(cfg.JWTSecret)

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService)
	todoHandler := handlers.NewTodoHandler(todoService)
	tagHandler := handlers.NewTagHandler(tagService)

	// ルーティング
	r.GET("/api/hello", HelloHandler)
	r.GET("/api/dbcheck", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})
	r.POST("/api/register", userHandler.RegisterHandler)
	r.POST("/api/login", userHandler.LoginHandler)

	authorized := r.Group("/api")
	authorized.Use(AuthMiddleware(jwtService))
	{
		authorized.GET("/me", userHandler.MeHandler)

		authorized.GET("/todos", todoHandler.GetTodosHandler)
		authorized.POST("/todos", todoHandler.CreateTodoHandler)
		authorized.GET("/todos/:id", todoHandler.GetTodoByIDHandler)
		authorized.PUT("/todos/:id", todoHandler.UpdateTodoHandler)
		authorized.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)
		authorized.PUT("/todos/:id/completion", todoHandler.ToggleCompletionHandler)
		authorized.POST("/todos/:id/timer/start", todoHandler.StartTimerHandler)
		authorized.POST("/todos/:id/timer/pause", todoHandler.PauseTimerHandler)
		authorized.POST("/todos/:id/time", todoHandler.AdjustTimeHandler)
		authorized.GET("/todos/:id/events", todoHandler.GetEventsHandler)

		authorized.GET("/tags", tagHandler.GetTagsHandler)
		authorized.POST("/tags", tagHandler.CreateTagHandler)
		authorized.POST("/todos/:id/tags", tagHandler.AttachTagHandler)
		authorized.DELETE("/todos/:id/tags/:tagId", tagHandler.DetachTagHandler)
	}

	return r
}

func HelloHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from Go Backend!"})
}
