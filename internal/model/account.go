package model

import (
	"time"
)

// Account is one connected TikTok creator identity. Token columns hold sealed
// ciphertext, never plaintext.
type Account struct {
	ID           string    `db:"id" json:"id"`
	TikTokUserID string    `db:"tiktok_user_id" json:"tiktokUserId"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	AvatarURL    *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
	AccessToken  *string   `db:"access_token" json:"-"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	ConnectedAt  time.Time `db:"connected_at" json:"connectedAt"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type UpsertAccountParams struct {
	TikTokUserID string
	DisplayName  string
	AvatarURL    *string
	AccessToken  string
	RefreshToken string
}
