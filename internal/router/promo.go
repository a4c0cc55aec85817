package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"sign_ops/internal/promo"
)

type validatePromoRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal" binding:"required"`
}

// validatePromo is the explicit apply-code check: the customer sees exactly
// why a code is rejected, unlike the soft path inside checkout.
func validatePromo(promos *promo.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validatePromoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if req.Subtotal.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "subtotal must not be negative"})
			return
		}

		discount, p, err := promos.Apply(c.Request.Context(), req.Code, req.Subtotal)
		if err != nil {
			if errors.Is(err, promo.ErrInvalidCode) {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
			"code":          p.Code,
			"discount_type": p.DiscountType,
			"discount":      discount,
		}})
	}
}
