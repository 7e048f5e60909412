package domain

import "time"

// Preferences is the reading profile of a user, one record per user
type Preferences struct {
	PreferredCategory string `json:"preferred_category" validate:"required"`
	PreferredTone     string `json:"preferred_tone" validate:"required"`
	PreferredLength   string `json:"preferred_length" validate:"required"`
	WantsTrending     bool   `json:"wants_trending"`
}

// DefaultPreferences returns preferences assigned to a freshly provisioned user
func DefaultPreferences() Preferences {
	return Preferences{
		PreferredCategory: "Technology",
		PreferredTone:     "Informative",
		PreferredLength:   "Medium",
		WantsTrending:     true,
	}
}

// Validate checks that all preference fields are set
func (p Preferences) Validate() error {
	return Validate(p)
}

// User is the stored user record with embedded preferences
type User struct {
	ID          string       `json:"userId" validate:"required"`
	Email       string       `json:"email" validate:"required"`
	Username    string       `json:"username,omitempty"`
	UserType    string       `json:"userType,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
	UpdatedAt   time.Time    `json:"updatedAt,omitzero"`
}

// IsComplete reports whether the profile has both email and username.
// Incomplete users are sent to the preferences form first.
func (u User) IsComplete() bool {
	return u.Email != "" && u.Username != ""
}
