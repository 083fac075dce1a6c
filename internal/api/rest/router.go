// Package rest provides the Gin-based REST API server.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/iggydv12/gogrocery/docs" // registers the swagger spec served under /docs
	"github.com/iggydv12/gogrocery/internal/grocery"
	"github.com/iggydv12/gogrocery/internal/models"
)

// GroceryService is the set of operations the router exposes.
type GroceryService interface {
	AddItem(ctx context.Context, in grocery.ItemInput) (string, error)
	ListItems(ctx context.Context) ([]models.GroceryItem, error)
	DeleteItem(ctx context.Context, name string) error
	UpdateItem(ctx context.Context, in grocery.ItemInput) (grocery.UpdateOutcome, error)
}

// Options tune the server.
type Options struct {
	// RequestTimeout bounds the store work of a single request.
	RequestTimeout time.Duration
	// Metrics enables request instrumentation and the /metrics endpoint.
	Metrics bool
}

// Server is the REST API server.
type Server struct {
	engine  *gin.Engine
	service GroceryService
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a REST Server.
func New(svc GroceryService, logger *zap.Logger, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(logger))

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	s := &Server{
		engine:  engine,
		service: svc,
		logger:  logger,
		timeout: opts.RequestTimeout,
	}
	if opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		engine.Use(newMetrics(reg).middleware())
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.engine.GET("/isAlive", s.isAlive)
	s.engine.POST("/add_item", s.addItem)
	s.engine.GET("/get_items", s.getItems)
	// Catch-all so that an empty name and names containing slashes reach the handler.
	s.engine.DELETE("/delete_item/*item_name", s.deleteItem)
	s.engine.PUT("/update_item", s.updateItem)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
}

// @Summary Liveness probe
// @Produce json
// @Success 200 {object} map[string]string
// @Router /isAlive [get]
func (s *Server) isAlive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Grocery Microservice Running"})
}

// @Summary Add a grocery item
// @Accept json
// @Produce json
// @Param item body grocery.ItemInput true "Grocery item"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /add_item [post]
func (s *Server) addItem(c *gin.Context) {
	var in grocery.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	id, err := s.service.AddItem(ctx, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added successfully", "id": id})
}

// @Summary Get all grocery items
// @Produce json
// @Success 200 {array} models.GroceryItem
// @Router /get_items [get]
func (s *Server) getItems(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	items, err := s.service.ListItems(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Delete a grocery item
// @Produce json
// @Param item_name path string true "Exact item name"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /delete_item/{item_name} [delete]
func (s *Server) deleteItem(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("item_name"), "/")

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	if err := s.service.DeleteItem(ctx, name); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// @Summary Update a grocery item
// @Accept json
// @Produce json
// @Param item body grocery.ItemInput true "Grocery item"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /update_item [put]
func (s *Server) updateItem(c *gin.Context) {
	var in grocery.ItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	outcome, err := s.service.UpdateItem(ctx, in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if outcome == grocery.Inserted {
		c.JSON(http.StatusOK, gin.H{"message": "Item not found, inserted instead."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully"})
}

// respondError maps service errors to a status and a client-safe detail.
func (s *Server) respondError(c *gin.Context, err error) {
	var ve *grocery.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"detail": ve.Detail})
	case errors.Is(err, grocery.ErrDuplicateItem):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Item already exists in the grocery list"})
	case errors.Is(err, grocery.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
	case errors.Is(err, grocery.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Grocery store unavailable"})
	default:
		s.logger.Error("unhandled request error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}
