package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vishwajithmr/agenx-backend-sub000/internal/handlers"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/middleware"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/services"
	"github.com/vishwajithmr/agenx-backend-sub000/internal/utils"
)

// Deps carries everything the route table needs.
type Deps struct {
	DB       *gorm.DB
	Tokens   *services.TokenService
	Votes    *services.VoteService
	Comments *services.CommentService
	Notify   *services.NotificationService
	Cache    *utils.Cache
	Limiter  *middleware.RateLimiter
	Log      zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := handlers.NewAuthHandler(d.DB, d.Tokens, d.Log)
	agents := handlers.NewAgentHandler(d.DB, d.Log)
	discussions := handlers.NewDiscussionHandler(d.DB, d.Votes, d.Cache, d.Log)
	comments := handlers.NewCommentHandler(d.DB, d.Comments, d.Notify, d.Log)
	votes := handlers.NewVoteHandler(d.DB, d.Votes, d.Log)
	reviews := handlers.NewReviewHandler(d.DB, d.Notify, d.Cache, d.Log)
	notifications := handlers.NewNotificationHandler(d.DB, d.Log)

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Middleware())
	}
	api.Use(middleware.LoadUser(d.Tokens, d.DB))

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(d.Tokens, d.DB))

	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login)
	authed.GET("/auth/me", auth.Me)

	api.GET("/agents", agents.List)
	api.GET("/agents/:aid", agents.Get)
	authed.POST("/agents", agents.Create)
	authed.PUT("/agents/:aid", agents.Update)
	authed.DELETE("/agents/:aid", agents.Delete)

	api.GET("/agents/:aid/discussions", discussions.ListByAgent)
	api.GET("/discussions/:did", discussions.Get)
	authed.POST("/agents/:aid/discussions", discussions.Create)
	authed.PUT("/discussions/:did", discussions.Update)
	authed.DELETE("/discussions/:did", discussions.Delete)

	api.GET("/discussions/:did/comments", comments.ListLayer)
	api.GET("/discussions/:did/comments/tree", comments.Tree)
	authed.POST("/discussions/:did/comments", comments.Create)
	authed.PUT("/comments/:cid", comments.Update)
	authed.DELETE("/comments/:cid", comments.Delete)

	authed.POST("/discussions/:did/vote", votes.VoteDiscussion)
	authed.POST("/comments/:cid/vote", votes.VoteComment)
	authed.POST("/reviews/:id/vote", votes.VoteReview)

	api.GET("/agents/:aid/reviews", reviews.ListByAgent)
	api.GET("/agents/:aid/reviews/summary", reviews.Summary)
	authed.POST("/agents/:aid/reviews", reviews.Submit)
	authed.PUT("/reviews/:id", reviews.Update)
	authed.DELETE("/reviews/:id", reviews.Delete)
	authed.POST("/reviews/:id/replies", reviews.CreateReply)
	authed.PUT("/replies/:id", reviews.UpdateReply)
	authed.DELETE("/replies/:id", reviews.DeleteReply)

	authed.GET("/notifications", notifications.List)
	authed.POST("/notifications/:id/read", notifications.MarkRead)
	authed.POST("/notifications/read-all", notifications.MarkAllRead)
	authed.DELETE("/notifications/:id", notifications.Delete)
}
