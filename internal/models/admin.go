package models

// AdminAction is the discriminator of admin write requests.
type AdminAction string

const (
	AdminBan         AdminAction = "ban"
	AdminUnban       AdminAction = "unban"
	AdminGrantAdmin  AdminAction = "grant_admin"
	AdminRevokeAdmin AdminAction = "revoke_admin"
	AdminUpdateUser  AdminAction = "update_user"
)

type AdminStats struct {
	UsersCount  int64 `json:"users_count"`
	PostsCount  int64 `json:"posts_count"`
	BannedCount int64 `json:"banned_count"`
}

type AdminUserRecord struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Username  string    `json:"username"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsBanned  bool      `json:"is_banned"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt Timestamp `json:"created_at"`
}
