// Package gin mounts the storefront API on a Gin router.
// This package is a thin adapter that translates gin.Context to the shared
// fetcchhttp.Storefront operations and helpers, so both routers answer with
// the same bodies and status codes.
package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fetcchhttp "github.com/mark3labs/fetcch-go/http"
	"github.com/mark3labs/fetcch-go/http/internal/helpers"
)

// Register mounts the storefront routes on router. When gatherer is not nil
// GET /metrics is mounted as well.
//
// Example usage:
//
//	r := gin.Default()
//	Register(r, store, prometheus.DefaultGatherer)
//	r.Run(":8080")
func Register(router gin.IRouter, store *fetcchhttp.Storefront, gatherer prometheus.Gatherer) {
	h := &handlers{store: store}

	router.GET("/healthz", h.health)
	router.GET("/chains", h.chains)
	router.GET("/countries", h.countries)
	router.GET("/countries/:country", h.country)

	sessions := router.Group("/sessions")
	sessions.POST("", h.createSession)
	sessions.GET("/:id", h.session)
	sessions.PUT("/:id", h.updateSession)
	sessions.DELETE("/:id", h.closeSession)
	sessions.POST("/:id/buy", h.buy)

	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

type handlers struct {
	store *fetcchhttp.Storefront
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(helpers.StatusFor(err), helpers.NewErrorResponse(err))
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) chains(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Chains)
}

func (h *handlers) countries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"countries": h.store.Countries()})
}

func (h *handlers) country(c *gin.Context) {
	price, err := h.store.Country(c.Param("country"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

func (h *handlers) createSession(c *gin.Context) {
	var req fetcchhttp.CreateSessionRequest
	if err := helpers.DecodeJSON(c.Request, &req); err != nil {
		abort(c, err)
		return
	}

	view, err := h.store.CreateSession(req.Country)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *handlers) session(c *gin.Context) {
	view, err := h.store.Session(c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) updateSession(c *gin.Context) {
	var update fetcchhttp.SessionUpdate
	if err := helpers.DecodeJSON(c.Request, &update); err != nil {
		abort(c, err)
		return
	}

	view, err := h.store.UpdateSession(c.Param("id"), update)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) closeSession(c *gin.Context) {
	if err := h.store.CloseSession(c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) buy(c *gin.Context) {
	resp, err := h.store.Buy(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
