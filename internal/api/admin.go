package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialclient/internal/models"
)

const fallbackAdmin = "Ошибка выполнения действия"

func (h *Handler) adminDashboard(c *gin.Context) {
	var (
		stats *models.AdminStats
		users []models.AdminUserRecord
	)
	batch := h.pool.NewBatch(c.Request.Context())
	batch.Go("stats", func(ctx context.Context) (err error) {
		stats, err = h.remote.AdminStats(ctx)
		return err
	})
	batch.Go("users", func(ctx context.Context) (err error) {
		users, err = h.remote.AdminUsers(ctx)
		return err
	})
	if err := batch.Wait(); err != nil {
		h.fail(c, err, fallbackLoad)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats, "users": users})
}

func (h *Handler) adminAction(action models.AdminAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := pathID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		adminID := sessionUser(c).ID

		var (
			res *models.ActionResult
			err error
		)
		switch action {
		case models.AdminBan:
			res, err = h.remote.BanUser(ctx, adminID, targetID)
		case models.AdminUnban:
			res, err = h.remote.UnbanUser(ctx, adminID, targetID)
		case models.AdminGrantAdmin:
			res, err = h.remote.GrantAdmin(ctx, adminID, targetID)
		case models.AdminRevokeAdmin:
			res, err = h.remote.RevokeAdmin(ctx, adminID, targetID)
		default:
			respondError(c, http.StatusBadRequest, "unsupported action")
			return
		}
		if err != nil {
			h.fail(c, err, fallbackAdmin)
			return
		}
		h.log.WithFields(logrus.Fields{
			"action":   action,
			"admin_id": adminID,
			"user_id":  targetID,
		}).Info("admin action applied")
		c.JSON(http.StatusOK, res)
	}
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username"`
}

func (h *Handler) adminUpdateUser(c *gin.Context) {
	targetID, ok := pathID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.FullName == nil && req.Username == nil) {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.remote.UpdateUser(c.Request.Context(), sessionUser(c).ID, targetID, req.FullName, req.Username)
	if err != nil {
		h.fail(c, err, fallbackAdmin)
		return
	}
	c.JSON(http.StatusOK, res)
}
