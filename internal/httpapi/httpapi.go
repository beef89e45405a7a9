// Package httpapi wraps the Service Facade with a gin-gonic REST surface,
// generalizing the teacher's bare net/http.ServeMux REST mode in
// cmd/option-replay/main.go into the POST /backtests, GET /backtests/:id
// routes SPEC_FULL.md §4.14 describes.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contactkeval/option-replay/internal/config"
	"github.com/contactkeval/option-replay/internal/service"
)

// NewRouter builds the gin engine exposing the backtest submit/fetch
// endpoints plus health and metrics.
func NewRouter(facade *service.Facade) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/backtests", func(c *gin.Context) {
		var req config.BacktestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := facade.Run(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.GET("/backtests/:id", func(c *gin.Context) {
		result, ok := facade.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "backtest not found"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	return r
}
