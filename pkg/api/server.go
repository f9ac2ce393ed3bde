// Package api serves the HTTP surface: BOM ingestion and progressive
// project reads, routed with gin-gonic/gin. Grounded on
// codeready-toolchain-tarsy/pkg/api/handlers.go's gin handler-method
// style (the teacher's newer pkg/api/server.go uses labstack/echo/v5,
// which is not in the teacher's go.mod and so is not used here).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LastZactionHero/part-finder/pkg/database"
	"github.com/LastZactionHero/part-finder/pkg/distributor"
	"github.com/LastZactionHero/part-finder/pkg/ingestion"
	"github.com/LastZactionHero/part-finder/pkg/store"
	"github.com/LastZactionHero/part-finder/pkg/version"
)

const healthCheckTimeout = 5 * time.Second

// backfillTimeout bounds the best-effort potential-match distributor
// lookup performed while rendering a finished project, so a slow or
// hanging distributor call never blocks the response.
const backfillTimeout = 5 * time.Second

// DistributorClient is the subset of *distributor.Client the API
// depends on, letting tests substitute a hand-written fake.
type DistributorClient interface {
	SearchByMpn(ctx context.Context, mpn string) (*distributor.PartRecord, error)
}

// Server holds the dependencies every handler needs: the durable store,
// the ingestion pipeline, and a distributor client for potential-match
// backfill. It intentionally does not hold a *queue.Runner — every
// queue-facing read this API needs (queue length, position) is already
// exposed directly on *store.Store, and threading a second handle to
// the same data through the runner would be a redundant indirection;
// see DESIGN.md.
type Server struct {
	Store       *store.Store
	Ingestion   *ingestion.Ingestion
	Distributor DistributorClient
	Engine      *gin.Engine
}

// New builds a Server and registers its routes.
func New(st *store.Store, ing *ingestion.Ingestion, dist DistributorClient) *Server {
	engine := gin.Default()
	s := &Server{Store: st, Ingestion: ing, Distributor: dist, Engine: engine}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Engine.GET("/health", s.healthCheck)

	group := s.Engine.Group("/project")
	group.POST("", s.createProject)
	group.GET("/queue/length", s.queueLength)
	group.GET("/:id", s.getProject)
	group.DELETE("/:id", s.deleteProject)
}

// healthCheck reports this service's own database connectivity, for an
// unauthenticated liveness/readiness probe. Grounded on
// codeready-toolchain-tarsy/pkg/api/handler_health.go, narrowed to the
// one dependency this service actually owns (the database) — there is
// no worker-pool health struct to report on pkg/worker's simpler,
// per-project fan-out pool.
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	sqlDB, err := s.Store.SQLDB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "version": version.Full(), "error": err.Error()})
		return
	}

	dbHealth, err := database.Health(ctx, sqlDB)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "version": version.Full(), "database": dbHealth})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": version.Full(), "database": dbHealth})
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// gracefully shuts down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Engine}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
