package gateway

import (
	"context"
	"net/http"
	"net/url"

	"socialclient/internal/models"
)

// AdminStats returns user, post and ban counters.
func (c *Client) AdminStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	if err := c.get(ctx, GroupAdmin, "stats", url.Values{"action": {"stats"}}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminUsers lists every account, newest first.
func (c *Client) AdminUsers(ctx context.Context) ([]models.AdminUserRecord, error) {
	var resp struct {
		Users *[]models.AdminUserRecord `json:"users"`
	}
	if err := c.get(ctx, GroupAdmin, "users", url.Values{"action": {"users"}}, &resp); err != nil {
		return nil, err
	}
	if resp.Users == nil {
		return nil, missingField(GroupAdmin, "users", "users")
	}
	return nonNil(*resp.Users), nil
}

type adminRequest struct {
	Action   models.AdminAction `json:"action"`
	AdminID  int64              `json:"admin_id"`
	UserID   int64              `json:"user_id"`
	FullName *string            `json:"full_name,omitempty"`
	Username *string            `json:"username,omitempty"`
}

// BanUser blocks userID from logging in.
func (c *Client) BanUser(ctx context.Context, adminID, userID int64) (*models.ActionResult, error) {
	return c.adminAction(ctx, adminRequest{Action: models.AdminBan, AdminID: adminID, UserID: userID})
}

// UnbanUser lifts a ban.
func (c *Client) UnbanUser(ctx context.Context, adminID, userID int64) (*models.ActionResult, error) {
	return c.adminAction(ctx, adminRequest{Action: models.AdminUnban, AdminID: adminID, UserID: userID})
}

// GrantAdmin gives userID administrator rights.
func (c *Client) GrantAdmin(ctx context.Context, adminID, userID int64) (*models.ActionResult, error) {
	return c.adminAction(ctx, adminRequest{Action: models.AdminGrantAdmin, AdminID: adminID, UserID: userID})
}

// RevokeAdmin takes administrator rights away from userID.
func (c *Client) RevokeAdmin(ctx context.Context, adminID, userID int64) (*models.ActionResult, error) {
	return c.adminAction(ctx, adminRequest{Action: models.AdminRevokeAdmin, AdminID: adminID, UserID: userID})
}

// UpdateUser changes another user's name or handle. Nil fields are left out of the request.
func (c *Client) UpdateUser(ctx context.Context, adminID, userID int64, fullName, username *string) (*models.ActionResult, error) {
	return c.adminAction(ctx, adminRequest{
		Action:   models.AdminUpdateUser,
		AdminID:  adminID,
		UserID:   userID,
		FullName: fullName,
		Username: username,
	})
}

// adminAction sends admin writes as PUT, the only method the admin endpoint accepts for them.
func (c *Client) adminAction(ctx context.Context, req adminRequest) (*models.ActionResult, error) {
	var resp models.ActionResult
	if err := c.send(ctx, http.MethodPut, GroupAdmin, string(req.Action), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
