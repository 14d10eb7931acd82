// Package server exposes the ledger over a JSON REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/divvyhq/divvy/internal/auth"
	"github.com/divvyhq/divvy/internal/ledger"
	"github.com/divvyhq/divvy/internal/storage"
)

type Server struct {
	store   storage.Store
	manager *ledger.Manager
	auth    auth.Authenticator
	jwt     *auth.JWTManager
	metrics *Metrics
}

func New(store storage.Store, manager *ledger.Manager, authenticator auth.Authenticator, jwtManager *auth.JWTManager, metrics *Metrics) *Server {
	return &Server{
		store:   store,
		manager: manager,
		auth:    authenticator,
		jwt:     jwtManager,
		metrics: metrics,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	if s.metrics != nil {
		r.Use(s.metrics.httpMiddleware())
	}

	r.Any("/healthy", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)

	authed := api.Group("", s.authMiddleware())
	authed.POST("/groups", s.handleCreateGroup)
	authed.GET("/groups", s.handleListGroups)
	authed.GET("/groups/:id", s.handleGetGroup)
	authed.DELETE("/groups/:id", s.handleDeleteGroup)
	authed.POST("/groups/:id/members", s.handleAddMember)
	authed.GET("/groups/:id/balances", s.handleListBalances)

	authed.POST("/groups/:id/instances", s.handleCreateInstance)
	authed.GET("/groups/:id/instances", s.handleListInstances)
	authed.DELETE("/groups/:id/instances/:instanceID", s.handleDeleteInstance)

	authed.POST("/groups/:id/instances/:instanceID/items", s.handleCreateItem)
	authed.DELETE("/groups/:id/items/:itemID", s.handleDeleteItem)

	return r
}
