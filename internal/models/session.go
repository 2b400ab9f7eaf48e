package models

import (
	"bytes"
	"encoding/json"
)

// User is the authenticated user's record. It is what the session manager holds and persists.
type User struct {
	ID             int64   `json:"id"`
	Username       string  `json:"username"`
	FullName       string  `json:"full_name"`
	IsAdmin        bool    `json:"is_admin"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	FollowersCount *int64  `json:"followers_count,omitempty"`
	FollowingCount *int64  `json:"following_count,omitempty"`
	IsBanned       bool    `json:"is_banned,omitempty"`
}

// UserPatch is a partial User. Nil fields are left unchanged by Apply. In JSON, an explicit
// null for avatar_url or bio sets the matching Clear flag.
type UserPatch struct {
	Username       *string `json:"username,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	IsAdmin        *bool   `json:"is_admin,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	FollowersCount *int64  `json:"followers_count,omitempty"`
	FollowingCount *int64  `json:"following_count,omitempty"`

	ClearAvatarURL bool `json:"-"`
	ClearBio       bool `json:"-"`
}

func (p *UserPatch) UnmarshalJSON(data []byte) error {
	type plain UserPatch
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	isNull := func(key string) bool {
		val, ok := raw[key]
		return ok && bytes.Equal(bytes.TrimSpace(val), []byte("null"))
	}
	v.ClearAvatarURL = isNull("avatar_url")
	v.ClearBio = isNull("bio")
	*p = UserPatch(v)
	return nil
}

// Apply returns a copy of u with every non-nil patch field overwritten.
func (p UserPatch) Apply(u User) User {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.AvatarURL != nil {
		u.AvatarURL = stringPtr(*p.AvatarURL)
	} else if p.ClearAvatarURL {
		u.AvatarURL = nil
	}
	if p.Bio != nil {
		u.Bio = stringPtr(*p.Bio)
	} else if p.ClearBio {
		u.Bio = nil
	}
	if p.FollowersCount != nil {
		n := *p.FollowersCount
		u.FollowersCount = &n
	}
	if p.FollowingCount != nil {
		n := *p.FollowingCount
		u.FollowingCount = &n
	}
	return u
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p == UserPatch{}
}

// PatchFromUser builds a patch carrying every field the remote backend returned.
func PatchFromUser(u User) UserPatch {
	p := UserPatch{
		Username:       stringPtr(u.Username),
		FullName:       stringPtr(u.FullName),
		AvatarURL:      u.AvatarURL,
		Bio:            u.Bio,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
	if u.Username == "" {
		p.Username = nil
	}
	if u.FullName == "" {
		p.FullName = nil
	}
	return p
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.AvatarURL != nil {
		c.AvatarURL = stringPtr(*u.AvatarURL)
	}
	if u.Bio != nil {
		c.Bio = stringPtr(*u.Bio)
	}
	if u.FollowersCount != nil {
		n := *u.FollowersCount
		c.FollowersCount = &n
	}
	if u.FollowingCount != nil {
		n := *u.FollowingCount
		c.FollowingCount = &n
	}
	return &c
}

// UserSummary is the nested user shape attached to posts, chats, messages and notifications.
type UserSummary struct {
	ID        int64   `json:"id"`
	FullName  string  `json:"full_name"`
	Username  string  `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func stringPtr(s string) *string {
	return &s
}

// String returns a pointer to s, for building patches.
func String(s string) *string {
	return stringPtr(s)
}
