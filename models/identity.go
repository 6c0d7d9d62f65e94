package models

// Identity is the authenticated LINE user for the current request. It is
// produced once by the session bootstrapper and passed by value afterwards.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Profile mirrors the LINE profile API response.
type Profile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl,omitempty"`
	StatusMessage string `json:"statusMessage,omitempty"`
}

// Identity drops everything except the fields propagated downstream.
func (p Profile) Identity() Identity {
	return Identity{UserID: p.UserID, DisplayName: p.DisplayName}
}
