package gateway

import (
	"context"
	"net/http"
	"net/url"

	"socialclient/internal/models"
)

type authResponse struct {
	User *models.User `json:"user"`
}

// Register creates an account and returns the new user's record.
func (c *Client) Register(ctx context.Context, phone, password, fullName string) (*models.User, error) {
	body := map[string]any{
		"action":    "register",
		"phone":     phone,
		"password":  password,
		"full_name": fullName,
	}
	return c.authenticate(ctx, "register", body)
}

// Login exchanges credentials for the user's record.
func (c *Client) Login(ctx context.Context, phone, password string) (*models.User, error) {
	body := map[string]any{
		"action":   "login",
		"phone":    phone,
		"password": password,
	}
	return c.authenticate(ctx, "login", body)
}

func (c *Client) authenticate(ctx context.Context, action string, body map[string]any) (*models.User, error) {
	var resp authResponse
	if err := c.send(ctx, http.MethodPost, GroupAuth, action, body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID <= 0 {
		return nil, missingField(GroupAuth, action, "user")
	}
	return resp.User, nil
}

// AdminLogin logs in and then requires the returned record to carry the admin flag.
// Every other outcome, including a failed login, is reported as ErrAccessDenied; the
// underlying cause stays reachable through errors.Is/As.
// This is a UI gate only. The server checks admin_id on every admin write.
func (c *Client) AdminLogin(ctx context.Context, phone, password string) (*models.User, error) {
	user, err := c.Login(ctx, phone, password)
	if err != nil {
		return nil, &accessDeniedError{cause: err}
	}
	if !user.IsAdmin {
		return nil, &accessDeniedError{}
	}
	return user, nil
}

// GetUser fetches a user's public profile including follower counts.
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	query := url.Values{"user_id": {formatID(userID)}}
	if err := c.get(ctx, GroupAuth, "get_user", query, &user); err != nil {
		return nil, err
	}
	if user.ID <= 0 {
		return nil, missingField(GroupAuth, "get_user", "id")
	}
	return &user, nil
}

// ProfileUpdate lists the profile fields a user may change about themselves.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Patch converts the update into a session patch.
func (u ProfileUpdate) Patch() models.UserPatch {
	return models.UserPatch{FullName: u.FullName, Bio: u.Bio, AvatarURL: u.AvatarURL}
}

type profileRequest struct {
	UserID int64 `json:"user_id"`
	ProfileUpdate
}

// UpdateProfile changes the user's own profile and returns the stored values.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*models.User, error) {
	var resp authResponse
	req := profileRequest{UserID: userID, ProfileUpdate: update}
	if err := c.send(ctx, http.MethodPut, GroupAuth, "update_profile", req, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID <= 0 {
		return nil, missingField(GroupAuth, "update_profile", "user")
	}
	return resp.User, nil
}
