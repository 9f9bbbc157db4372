package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orderlink/importer/internal/importer"
)

// ImportHandler exposes the import operations over HTTP. Operations run
// synchronously: imports are operator-triggered batch jobs and the caller
// wants the final counts in the response.
type ImportHandler struct {
	service *importer.Service
}

func NewImportHandler(service *importer.Service) *ImportHandler {
	return &ImportHandler{service: service}
}

func (h *ImportHandler) ImportProducts(c *gin.Context) {
	res, err := h.service.ImportProducts(c.Request.Context(), c.Param("brand"))
	h.respond(c, res, err)
}

func (h *ImportHandler) ImportCustomers(c *gin.Context) {
	res, err := h.service.ImportCustomers(c.Request.Context(), c.Param("brand"))
	h.respond(c, res, err)
}

func (h *ImportHandler) RebuildSalesmen(c *gin.Context) {
	deleted, res, err := h.service.RebuildSalesmen(c.Request.Context(), c.Param("brand"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     err.Error(),
			"deleted":   deleted,
			"processed": res.Processed,
			"skipped":   res.Skipped,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted":   deleted,
		"processed": res.Processed,
		"skipped":   res.Skipped,
	})
}

func (h *ImportHandler) DeleteCollection(c *gin.Context) {
	deleted, err := h.service.DeleteCollection(c.Request.Context(), c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "deleted": deleted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// respond reports counts even on partial failure: committed chunks stay
// committed, so the operator needs the totals either way.
func (h *ImportHandler) respond(c *gin.Context, res importer.Result, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     err.Error(),
			"processed": res.Processed,
			"skipped":   res.Skipped,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": res.Processed,
		"skipped":   res.Skipped,
	})
}
