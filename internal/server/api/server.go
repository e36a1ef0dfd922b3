// Package api exposes the backend over HTTP/JSON using gin. It carries the
// auth endpoints, the per-kind record collections consumed by the sync
// engine, and the receipt presign endpoints.
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aleksv/spendsync/internal/logging"
	"github.com/aleksv/spendsync/internal/server/services"
)

type Server struct {
	addr     string
	db       *sql.DB
	log      logging.Logger
	users    *services.UserService
	records  *services.RecordService
	receipts *services.ReceiptService
}

func NewServer(addr string, db *sql.DB, log logging.Logger,
	users *services.UserService, records *services.RecordService, receipts *services.ReceiptService) *Server {
	return &Server{
		addr:     addr,
		db:       db,
		log:      log,
		users:    users,
		records:  records,
		receipts: receipts,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", s.healthCheck)

	auth := r.Group("/api/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/refresh", s.refresh)

	authed := r.Group("/api")
	authed.Use(s.authRequired())
	authed.GET("/expenses", s.getExpenses)
	authed.POST("/expenses/batch", s.batchUpsertExpenses)
	authed.POST("/expenses/delete", s.batchDeleteExpenses)
	authed.GET("/categories", s.getCategories)
	authed.POST("/categories/batch", s.batchUpsertCategories)
	authed.GET("/settings", s.getSettings)
	authed.PUT("/settings", s.putSettings)
	authed.POST("/receipts/presign-upload", s.presignReceiptUpload)
	authed.GET("/receipts/presign-download", s.presignReceiptDownload)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
