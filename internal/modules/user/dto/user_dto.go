package dto

// SyncUserRequest mirrors the profile fields the identity provider reports
// at account-sync time.
type SyncUserRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email"`
	AvatarURL string `json:"avatar_url"`
}
