package domain

// User is the backend profile of a signed-in account.
type User struct {
	ID          int64  `json:"id" yaml:"id"`
	FirebaseUID string `json:"firebaseUid,omitempty" yaml:"firebase_uid,omitempty"`
	Email       string `json:"email,omitempty" yaml:"email,omitempty"`
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty" yaml:"bio,omitempty"`
	Role        string `json:"role,omitempty" yaml:"role,omitempty"` // "USER" or "ADMIN"
	CreatedAt   string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}
