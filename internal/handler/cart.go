package handler

import (
	"net/http"
	"strconv"

	"odil-be/internal/cart"
	"odil-be/internal/order"

	"github.com/gin-gonic/gin"
)

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func lineIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return i, true
}

func (h *Handler) GetCart(c *gin.Context) {
	snap, err := h.cart.GetCart(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req cart.AddToCartParams
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, snap, err := h.cart.AddToCart(c.Request.Context(), sessionID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "cart": snap})
}

func (h *Handler) UpdateCartQuantity(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.cart.UpdateCartQuantity(c.Request.Context(), sessionID(c), i, *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	i, ok := lineIndex(c)
	if !ok {
		return
	}
	snap, err := h.cart.RemoveFromCart(c.Request.Context(), sessionID(c), i)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) ClearCart(c *gin.Context) {
	if err := h.cart.ClearCart(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SetNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := h.cart.SetNotes(c.Request.Context(), sessionID(c), req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SubmitOrder validates stock and sends the cart while holding the session
// ledger, so no edit can slip in between the check and the send.
func (h *Handler) SubmitOrder(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	var receipt *order.Receipt
	err := h.cart.With(ctx, sid, func(l *cart.Ledger) error {
		var err error
		receipt, err = h.orders.Submit(ctx, sid, l, h.cart.Lookup(ctx))
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) GetOrder(c *gin.Context) {
	rec, err := h.orders.GetOrder(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
