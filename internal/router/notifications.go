package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sign_ops/internal/middleware"
	"sign_ops/internal/model"
)

// listNotifications returns the caller's status notifications, newest first.
// Rows are produced asynchronously by the Kafka consumer, so a notification
// may trail its transition by a moment.
func listNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		var notes []model.OrderNotification
		if err := db.Where("customer_id = ?", cust.ID).
			Order("created_at DESC").Limit(100).
			Find(&notes).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": notes})
	}
}
