package account

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata is caller-supplied device information merged into a session.
type Metadata map[string]any

type User struct {
	ID           uint            `json:"-" gorm:"primaryKey"`
	UserID       string          `json:"userID" gorm:"uniqueIndex;size:64;not null"`
	Username     string          `json:"username" gorm:"uniqueIndex;size:255;not null"`
	Email        string          `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string          `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	Sessions     []DeviceSession `json:"-" gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "accounts"
}

// Profile is the user as shown to clients: no password hash, no session list.
type Profile struct {
	UserID    string    `json:"userID"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// DeviceSession binds one live refresh token to the login that produced it.
// Only a hash of the refresh token is persisted.
type DeviceSession struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	PublicID  string    `json:"id" gorm:"uniqueIndex;size:36;not null"`
	UserID    string    `json:"-" gorm:"index;size:64;not null"`
	TokenHash string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	IP        string    `json:"ip" gorm:"size:45"`
	LastLogin time.Time `json:"lastLogin" gorm:"index"`
	Metadata  Metadata  `json:"device,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time `json:"createdAt"`
}

func (DeviceSession) TableName() string {
	return "device_sessions"
}

// Holds reports whether the session is bound to the given raw refresh token.
func (s *DeviceSession) Holds(token string) bool {
	return s.TokenHash == HashToken(token)
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Models lists the gorm models that back the relational store.
func Models() []any {
	return []any{&User{}, &DeviceSession{}}
}
