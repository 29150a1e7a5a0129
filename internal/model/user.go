package model

// User is the authenticated user's profile as returned by the backend.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Company  string `json:"company,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// MentionSuggestion is one completion candidate for an @mention token.
type MentionSuggestion struct {
	// ID is the user or group identifier.
	ID string `json:"id"`

	// Name is the handle spliced into the text on selection.
	Name string `json:"name"`

	// DisplayName is the full human-readable name shown in the dropdown.
	DisplayName string `json:"display_name"`

	// IsGroup distinguishes group mentions from user mentions.
	IsGroup bool `json:"is_group"`
}
