package router

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sign_ops/internal/middleware"
	"sign_ops/internal/model"
)

type createServiceRequestBody struct {
	InstallationID uint   `json:"installation_id" binding:"required"`
	Type           string `json:"type" binding:"required"`
	RequestedDate  string `json:"requested_date"`
	Notes          string `json:"notes"`
}

// createServiceRequest files a follow-up (removal/service/repair/replacement)
// against one of the caller's own installations.
func createServiceRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		var req createServiceRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if !model.ValidServiceRequestType(req.Type) {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": fmt.Sprintf("unknown service request type %q", req.Type)})
			return
		}

		var requested *time.Time
		if req.RequestedDate != "" {
			t, err := time.Parse(time.RFC3339, req.RequestedDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "requested_date must be RFC3339"})
				return
			}
			requested = &t
		}

		var inst model.Installation
		if err := db.First(&inst, req.InstallationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "installation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if inst.CustomerID != cust.ID {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "not your installation"})
			return
		}

		sr := &model.ServiceRequest{
			InstallationID: inst.ID,
			CustomerID:     cust.ID,
			Type:           req.Type,
			Status:         model.RequestPending,
			RequestedDate:  requested,
			AdminNotes:     req.Notes,
		}
		if err := db.Create(sr).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": sr})
	}
}

// getServiceRequest fetches one request, owner-scoped.
func getServiceRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust := middleware.CustomerFrom(c)

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid service request id"})
			return
		}

		var sr model.ServiceRequest
		if err := db.First(&sr, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "service request not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if sr.CustomerID != cust.ID {
			c.JSON(http.StatusForbidden, gin.H{"code": 403, "msg": "not your service request"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": sr})
	}
}
