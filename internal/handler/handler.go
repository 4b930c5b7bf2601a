package handler

import (
	"errors"
	"net/http"
	"strings"

	"odil-be/internal/auth"
	"odil-be/internal/cart"
	"odil-be/internal/catalogue"
	"odil-be/internal/logger"
	"odil-be/internal/metrics"
	"odil-be/internal/order"
	"odil-be/internal/product"
	"odil-be/internal/realtime"
	"odil-be/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	catalogue catalogue.Service
	cart      cart.Service
	orders    order.Service
	owner     *auth.Owner
	hub       *realtime.Hub
	metrics   *metrics.Registry
	secure    bool
}

type Deps struct {
	Catalogue catalogue.Service
	Cart      cart.Service
	Orders    order.Service
	Owner     *auth.Owner
	Hub       *realtime.Hub
	Metrics   *metrics.Registry
	// Secure marks the owner cookie https-only.
	Secure bool
}

func New(d Deps) *Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.Default
	}
	return &Handler{
		catalogue: d.Catalogue,
		cart:      d.Cart,
		orders:    d.Orders,
		owner:     d.Owner,
		hub:       d.Hub,
		metrics:   d.Metrics,
		secure:    d.Secure,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
	r.GET("/ws", h.WebSocket)

	r.GET("/catalogue", h.ListCatalogue)
	r.GET("/catalogue/families", h.ListFamilies)
	r.GET("/catalogue/categories", h.ListCategories)
	r.GET("/products/:id", h.GetProduct)
	r.GET("/products/:id/combinations", h.ListCombinations)

	c := r.Group("/cart")
	{
		c.GET("", h.GetCart)
		c.POST("/items", h.AddToCart)
		c.PATCH("/items/:index", h.UpdateCartQuantity)
		c.DELETE("/items/:index", h.RemoveFromCart)
		c.DELETE("", h.ClearCart)
		c.PUT("/notes", h.SetNotes)
		c.POST("/submit", h.SubmitOrder)
	}

	r.POST("/owner/login", h.Login)
	o := r.Group("/owner", requireOwner)
	{
		o.POST("/logout", h.Logout)
		o.GET("/records", h.ListOwnerRecords)
		o.POST("/products", h.CreateProduct)
		o.PUT("/products/:id", h.UpdateProduct)
		o.POST("/products/:id/hide", h.HideProduct)
		o.DELETE("/products/:id", h.DeleteProduct)
		o.GET("/schema/:category", h.GetSchema)
		o.GET("/config", h.GetConfig)
		o.PUT("/config", h.SaveConfig)
		o.GET("/orders/:reference", h.GetOrder)
	}
}

func requireOwner(c *gin.Context) {
	if _, ok := utils.GetOwnerFromContext(c.Request.Context()); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "owner login required"})
		return
	}
	c.Next()
}

func sessionID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(utils.SessionHeader))
}

/* ---------- ERRORS ---------- */

func statusOf(err error) int {
	switch {
	case errors.Is(err, cart.ErrStockExceeded),
		errors.Is(err, order.ErrEmptyOrder):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cart.ErrMissingSession),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrMissingProduct),
		errors.Is(err, cart.ErrInvalidSelection),
		errors.Is(err, catalogue.ErrInvalidDraft),
		errors.Is(err, catalogue.ErrSentinelRecord),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, product.ErrMissingID):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, catalogue.ErrUnknownCategory),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, catalogue.ErrNotOwnerRecord):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrOwnerDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalogue.ErrDeleteNotPersisted),
		errors.Is(err, order.ErrNotifierFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"error": err.Error()}

	var serr *cart.StockError
	if errors.As(err, &serr) {
		body["lines"] = serr.Lines
	}
	var verr *catalogue.ValidationError
	if errors.As(err, &verr) {
		body["problems"] = verr.Problems
	}

	if status >= http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			body["error"] = "internal error"
		}
	}
	c.JSON(status, body)
}
