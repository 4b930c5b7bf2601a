package handler

import (
	"net/http"
	"time"

	"odil-be/internal/auth"
	"odil-be/internal/catalogue"
	"odil-be/internal/product"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, expires, err := h.owner.Login(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(time.Until(expires).Seconds()), "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secure, true)
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListOwnerRecords(c *gin.Context) {
	records := h.catalogue.OwnerRecords()
	c.JSON(http.StatusOK, gin.H{"data": records, "total": len(records)})
}

// writeResult answers a save. A write the store has not confirmed is 202: it
// is kept locally and retried on the next sync.
func writeResult(c *gin.Context, created bool, res *catalogue.WriteResult) {
	switch {
	case !res.Persisted:
		c.JSON(http.StatusAccepted, gin.H{
			"product":   res.Product,
			"persisted": false,
			"warning":   "saved locally, pending sync",
		})
	case created:
		c.JSON(http.StatusCreated, gin.H{"product": res.Product, "persisted": true})
	default:
		c.JSON(http.StatusOK, gin.H{"product": res.Product, "persisted": true})
	}
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var draft catalogue.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.catalogue.Add(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, true, res)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var edited product.Product
	if err := c.ShouldBindJSON(&edited); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.catalogue.SaveEdit(c.Request.Context(), c.Param("id"), edited)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, false, res)
}

func (h *Handler) HideProduct(c *gin.Context) {
	res, err := h.catalogue.Hide(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, false, res)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalogue.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetSchema(c *gin.Context) {
	s, err := catalogue.SchemaFor(c.Param("category"))
	if err != nil {
		writeError(c, err)
		return
	}

	cfg := h.catalogue.Config(c.Request.Context())
	family := c.Query("family")
	c.JSON(http.StatusOK, gin.H{
		"schema": s,
		"groups": cfg.GroupsFor(s.Category, family),
		"models": cfg.ModelsFor(family),
	})
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogue.Config(c.Request.Context()))
}

func (h *Handler) SaveConfig(c *gin.Context) {
	var cfg catalogue.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.catalogue.SaveConfig(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	writeResult(c, false, res)
}
