package server

import (
	"os"
	"strings"
	"time"

	"noria.fr/campusnet/internal/middleware"
	"noria.fr/campusnet/pkg/storage"

	commentHttp "noria.fr/campusnet/internal/modules/comment/delivery/http"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	commentService "noria.fr/campusnet/internal/modules/comment/service"

	communityHttp "noria.fr/campusnet/internal/modules/community/delivery/http"
	communityRepo "noria.fr/campusnet/internal/modules/community/repository"
	communityService "noria.fr/campusnet/internal/modules/community/service"

	followRepo "noria.fr/campusnet/internal/modules/follow/repository"

	messageHttp "noria.fr/campusnet/internal/modules/message/delivery/http"
	messageRepo "noria.fr/campusnet/internal/modules/message/repository"
	messageService "noria.fr/campusnet/internal/modules/message/service"

	postHttp "noria.fr/campusnet/internal/modules/post/delivery/http"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	postService "noria.fr/campusnet/internal/modules/post/service"

	searchHttp "noria.fr/campusnet/internal/modules/search/delivery/http"
	searchService "noria.fr/campusnet/internal/modules/search/service"

	userHttp "noria.fr/campusnet/internal/modules/user/delivery/http"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	userService "noria.fr/campusnet/internal/modules/user/service"

	voteHttp "noria.fr/campusnet/internal/modules/vote/delivery/http"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	voteService "noria.fr/campusnet/internal/modules/vote/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	follows := followRepo.NewFollowRepository(db)
	communities := communityRepo.NewCommunityRepository(db)
	posts := postRepo.NewPostRepository(db)
	comments := commentRepo.NewCommentRepository(db)
	votes := voteRepo.NewVoteRepository(db)
	messages := messageRepo.NewMessageRepository(db)

	// Image storage is optional: without Cloudinary credentials uploads are
	// rejected but everything else keeps working.
	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		zap.L().Warn("cloudinary storage unavailable, uploads disabled", zap.Error(err))
		imageStorage = nil
	}

	var meiliClient meilisearch.ServiceManager
	if meiliHost := os.Getenv("MEILISEARCH_HOST"); meiliHost != "" {
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient = meilisearch.New(meiliHost, meilisearch.WithAPIKey(os.Getenv("MEILI_MASTER_KEY")))
	}
	searchSvc := searchService.NewSearchService(meiliClient)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	userSvc := userService.NewUserService(users)
	userHandler := userHttp.NewUserHandler(userSvc)

	communitySvc := communityService.NewCommunityService(communities, follows, users, searchSvc)
	communityHandler := communityHttp.NewCommunityHandler(communitySvc)

	postSvc := postService.NewPostService(posts, users, communities, comments, votes, imageStorage, redisClient, searchSvc)
	postHandler := postHttp.NewPostHandler(postSvc, imageStorage)

	commentSvc := commentService.NewCommentService(comments, posts, users, votes)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	voteSvc := voteService.NewVoteService(votes, users, posts, comments)
	voteHandler := voteHttp.NewVoteHandler(voteSvc)

	messageSvc := messageService.NewMessageService(messages, communities, follows, users, redisClient)
	messageHandler := messageHttp.NewMessageHandler(messageSvc, redisClient)

	router := gin.New()

	setupCORS(router)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware()

	api := router.Group("/api")

	// Reads work for everyone; a valid token just personalizes the payload.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", postHandler.GetFeed)
		public.GET("/posts/:post_id", postHandler.GetPost)
		public.GET("/posts/:post_id/comments", commentHandler.GetComments)

		public.GET("/communities", communityHandler.ListCommunities)
		public.GET("/communities/all", communityHandler.ListAllCommunities)
		public.GET("/communities/recommendations", communityHandler.ListRecommendations)
		public.GET("/communities/:community_id", communityHandler.GetCommunity)
		public.GET("/communities/:community_id/posts", postHandler.GetCommunityPosts)
		public.GET("/communities/:community_id/messages", messageHandler.ListMessages)
		public.GET("/communities/:community_id/typing", messageHandler.GetTypingUsers)

		public.GET("/search", searchHandler.Search)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/users/sync", userHandler.SyncUser)
		protected.GET("/users/me", userHandler.GetCurrentUser)

		protected.POST("/communities", communityHandler.CreateCommunity)
		protected.GET("/communities/joined", communityHandler.ListJoinedCommunities)
		protected.GET("/communities/created", communityHandler.ListCreatedCommunities)
		protected.POST("/communities/:community_id/join", communityHandler.JoinCommunity)
		protected.POST("/communities/:community_id/leave", communityHandler.LeaveCommunity)

		protected.POST("/posts", postHandler.CreatePost)
		protected.POST("/upload", postHandler.UploadImage)

		protected.POST("/posts/:post_id/comments", commentHandler.CreateComment)
		protected.POST("/comments/:comment_id/like", commentHandler.ToggleLike)

		protected.POST("/votes", voteHandler.CastVote)

		protected.POST("/communities/:community_id/messages", messageHandler.SendMessage)
		protected.GET("/communities/:community_id/messages/ws", messageHandler.StreamMessages)
		protected.POST("/communities/:community_id/typing", messageHandler.SetTyping)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine) {
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
