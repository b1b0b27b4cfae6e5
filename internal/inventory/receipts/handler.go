package receipts

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"equiploan-backend/internal/inventory/loans"
)

type Handler struct {
	loans *loans.Service
	gen   *Generator
}

func RegisterRoutes(r gin.IRoutes, loanSvc *loans.Service, gen *Generator) {
	h := &Handler{loans: loanSvc, gen: gen}

	r.GET("/loans/:id/receipt", h.Download)
}

// Download renders the delivery or return receipt for one loan.
func (h *Handler) Download(c *gin.Context) {
	mode, err := ParseMode(c.DefaultQuery("mode", string(ModeDelivery)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.loans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(loans.ToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	pdf, err := h.gen.Build(loan, mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, Filename(loan.ID, mode)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
