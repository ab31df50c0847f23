package models

import "time"

// User represents an account within the ClipHub platform. PasswordHash holds
// a bcrypt digest; plaintext passwords are never persisted.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsSuperuser  bool
	CreatedAt    time.Time
}

// Video is the metadata record for an ingested video asset. Filename and
// ThumbnailFilename are storage keys within their respective asset stores.
type Video struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Filename          string    `json:"filename"`
	ThumbnailFilename string    `json:"thumbnailFilename"`
	UploadDate        time.Time `json:"uploadDate"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
