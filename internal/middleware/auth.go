package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sign_ops/internal/model"
)

const customerKey = "auth_customer"

// RequireUser resolves the calling customer from the X-User-ID header.
// Session handling proper lives in the fronting auth service; by the time a
// request reaches this API the header carries a verified identity.
func RequireUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.GetHeader("X-User-ID")
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "missing or invalid X-User-ID"})
			return
		}

		var cust model.Customer
		if err := db.First(&cust, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "unknown customer"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}

		c.Set(customerKey, &cust)
		c.Next()
	}
}

// CustomerFrom returns the authenticated customer set by RequireUser.
func CustomerFrom(c *gin.Context) *model.Customer {
	v, ok := c.Get(customerKey)
	if !ok {
		return nil
	}
	cust, _ := v.(*model.Customer)
	return cust
}

// RequireAdmin gates admin routes behind the configured token. Rejection
// happens before any handler side effect.
func RequireAdmin(adminToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Token") != adminToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": 403, "msg": "admin token required"})
			return
		}
		c.Next()
	}
}
