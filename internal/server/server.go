package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"top-ten/internal/auth"
	"top-ten/internal/catalog"
	"top-ten/internal/config"
	"top-ten/internal/game"
	"top-ten/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// uploader publishes scrape exports to object storage.
type uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	cfg      config.Config
	sessions *sessionStore
	auth     *auth.Service
	catalog  catalog.Repository
	mirror   roundMirror
	queue    *mirrorQueue
	exporter uploader
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return newServer(conn, cfg, newDBMirror(conn))
}

func newServer(conn *gorm.DB, cfg config.Config, mirror roundMirror) *Server {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	s := &Server{
		store:    NewStore(),
		db:       conn,
		ws:       newWSHub(),
		cfg:      cfg,
		sessions: newSessionStore(conn, ttl),
		auth:     auth.NewService(auth.NewStore(conn), cfg.JWTSecret, ttl, cfg.MinPasswordLength),
		catalog:  catalog.NewRepository(conn),
		mirror:   mirror,
	}
	s.queue = newMirrorQueue(cfg.MirrorQueueSize, s.applyJob)
	return s
}

// SetExporter enables publishing scrape exports to a bucket.
func (s *Server) SetExporter(exporter uploader) {
	s.exporter = exporter
}

// Close flushes the background mirror queue.
func (s *Server) Close() {
	s.queue.Close()
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery(), metrics.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", metrics.Handler())

	router.GET("/login", s.handleLoginView)
	router.GET("/board/:roundID", s.handleBoardView)
	router.GET("/ws/rounds/:roundID", s.handleWebsocket)
	router.GET("/api/rounds/:roundID/qr", s.handleRoundQR)

	authAPI := router.Group("/api/auth")
	authAPI.POST("/signup", s.handleSignUp)
	authAPI.POST("/login", s.handleLogin)
	authAPI.POST("/logout", s.handleLogout)

	api := router.Group("/api", s.requireAPIAuth())
	api.GET("/auth/session", s.handleCurrentUser)
	api.GET("/session", s.handleSession)

	api.POST("/groups", s.handleCreateGroup)
	api.GET("/groups/:groupID", s.handleGetGroup)
	api.GET("/rounds/:roundID", s.handleGetRound)
	api.POST("/rounds/:roundID/list", s.handleAssignList)
	api.POST("/rounds/:roundID/start", s.handleStartRound)
	api.POST("/rounds/:roundID/guesses", s.handleGuess)
	api.POST("/rounds/:roundID/next", s.handleNextRound)

	api.GET("/categories", s.handleCategories)
	api.GET("/categories/current", s.handleCurrentCategory)
	api.POST("/categories/next", s.handleCategoryNext)
	api.POST("/categories/prev", s.handleCategoryPrev)
	api.GET("/categories/:categoryID/lists", s.handleCategoryLists)
	api.GET("/lists/random", s.handleRandomList)
	api.GET("/lists/:listID", s.handleGetList)

	admin := api.Group("/admin")
	admin.POST("/categories", s.handleAdminCreateCategory)
	admin.PUT("/categories/:id", s.handleAdminUpdateCategory)
	admin.DELETE("/categories/:id", s.handleAdminDeleteCategory)
	admin.POST("/lists", s.handleAdminCreateList)
	admin.PUT("/lists/:id", s.handleAdminUpdateList)
	admin.DELETE("/lists/:id", s.handleAdminDeleteList)
	admin.POST("/lists/:id/items", s.handleAdminAddItem)
	admin.PUT("/lists/:id/items", s.handleAdminSaveItems)
	admin.PUT("/items/:id", s.handleAdminUpdateItem)
	admin.GET("/scrape/export", s.handleScrapeExport)
	admin.POST("/scrape/import", s.handleScrapeImport)
	admin.POST("/scrape/publish", s.handleScrapePublish)

	views := router.Group("/", s.requireViewAuth())
	views.GET("/", s.handleHome)
	views.GET("/private/categories", s.handleCategoriesView)
	views.GET("/private/categories/:categoryID", s.handleCategoryListsView)
	views.GET("/private/setup", s.handleSetupView)
	views.GET("/private/play/:roundID", s.handlePlayView)
	views.GET("/private/simple", s.handleSimpleView)
	views.GET("/private/admin", s.handleAdminView)
	views.GET("/private/admin/lists/:id", s.handleAdminListView)
	views.GET("/private/scrape", s.handleScrapeView)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"active_rounds": s.store.RoundCount(),
	})
}

// recordEffects mirrors the effects of a transition. Awaited effects are
// written before returning; the rest go to the background queue.
func (s *Server) recordEffects(ctx context.Context, round game.Round, effects []game.Effect) {
	if len(effects) == 0 {
		return
	}
	for _, effect := range effects {
		metrics.RoundTransitions.WithLabelValues(string(effect.Kind)).Inc()
	}
	groupDBID := s.groupDBID(round.GroupID)
	awaited, background := game.Split(effects)
	for _, effect := range awaited {
		if err := s.mirror.Apply(ctx, groupDBID, round, effect); err != nil {
			metrics.MirrorFailures.WithLabelValues(string(effect.Kind)).Inc()
			log.Printf("mirror failed round_id=%s effect=%s error=%v", round.ID, effect.Kind, err)
		}
	}
	for _, effect := range background {
		s.queue.Enqueue(mirrorJob{groupDBID: groupDBID, round: round, effect: effect})
	}
}

func (s *Server) applyJob(ctx context.Context, job mirrorJob) error {
	return s.mirror.Apply(ctx, job.groupDBID, job.round, job.effect)
}

func (s *Server) groupDBID(groupID string) uint {
	group, ok := s.store.GetGroup(groupID)
	if !ok {
		return 0
	}
	return group.DBID
}
