package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sign_ops/internal/model"
)

func listPostTypes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []model.PostType
		if err := db.Where("is_active = ?", true).Order("price ASC").Find(&types).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": types})
	}
}

func listRiderTypes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []model.RiderType
		if err := db.Where("is_active = ?", true).Order("name ASC").Find(&types).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": types})
	}
}

func listLockboxTypes(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var types []model.LockboxType
		if err := db.Where("is_active = ?", true).Order("name ASC").Find(&types).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": types})
	}
}
