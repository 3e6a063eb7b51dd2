package domain

import "time"

// Account representa una cuenta de plataforma con cookies
type Account struct {
	ID               int64
	Platform         string
	Name             string
	CookiePath       string
	IsActive         bool
	ValidationStatus ValidationStatus
	ValidationError  string
	LastValidated    *time.Time
	LastUsed         *time.Time
	CreatedAt        time.Time
}

// ValidationStatus es el resultado de la última validación de cookies
type ValidationStatus string

const (
	ValidationUnknown ValidationStatus = "unknown"
	ValidationValid   ValidationStatus = "valid"
	ValidationExpired ValidationStatus = "expired"
	ValidationInvalid ValidationStatus = "invalid"
)

// Plataformas soportadas
const (
	PlatformYouTube = "youtube"
)
