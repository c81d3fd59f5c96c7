package dto

// AuthorResponse is the public slice of a user attached to feed items,
// comments and messages.
type AuthorResponse struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// CommunityRef is the public slice of a community attached to posts.
type CommunityRef struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}
