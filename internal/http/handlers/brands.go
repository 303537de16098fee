package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jrogbaaa/Project-X-sub001/internal/http/response"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

const maxImportBytes = 8 << 20

type BrandHandler struct {
	brands services.BrandService
}

func NewBrandHandler(brands services.BrandService) *BrandHandler {
	return &BrandHandler{brands: brands}
}

// POST /api/brands/import
// Accepts a JSON array or a YAML document regardless of Content-Type.
func (h *BrandHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "import_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_import", err)
		return
	}
	in, err := services.DecodeBrandInputs(body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_import", err)
		return
	}
	res, err := h.brands.Import(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "brand_import_failed"), "brand_import_failed")
		return
	}
	response.RespondOK(c, gin.H{"import": res})
}

// GET /api/brands
func (h *BrandHandler) List(c *gin.Context) {
	entries, err := h.brands.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "list_brands_failed"), "list_brands_failed")
		return
	}
	response.RespondOK(c, gin.H{"brands": entries})
}
