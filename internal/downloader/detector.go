package downloader

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Patrón de links de YouTube aceptados (watch, embed, shorts, youtu.be)
var youtubeLinkRe = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtu\.?be(?:\.com)?/?.*(?:watch|embed)?(?:.*v=|v/|/)([\w\-]+)&?`)

// Caracteres no permitidos en nombres de archivo en Windows/macOS/Linux
var unsafeFilenameRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f#~%{}^\[\]` + "`" + `]`)

var spacesRe = regexp.MustCompile(`\s+`)

// ErrInvalidLink se retorna cuando el link no es de la plataforma
var ErrInvalidLink = errors.New("invalid link")

// ValidateLink verifica que el link tenga forma de video de YouTube
func ValidateLink(link string) error {
	if strings.TrimSpace(link) == "" {
		return errors.New("link is empty")
	}
	if !youtubeLinkRe.MatchString(link) {
		return ErrInvalidLink
	}
	return nil
}

// ExtractVideoID extrae el id del video desde el link
func ExtractVideoID(link string) (string, error) {
	matches := youtubeLinkRe.FindStringSubmatch(link)
	if len(matches) < 2 || matches[1] == "" {
		return "", ErrInvalidLink
	}
	return matches[1], nil
}

// DetectPlatform detecta la plataforma desde la URL
func DetectPlatform(urlStr string) string {
	urlStr = strings.ToLower(urlStr)

	switch {
	case strings.Contains(urlStr, "youtube.com"), strings.Contains(urlStr, "youtu.be"):
		return "youtube"
	default:
		return "other"
	}
}

// DefaultFilename genera el nombre por defecto de un stream: "<título>.<ext>"
func DefaultFilename(title, container string) string {
	name := sanitizeFilename(title)
	if name == "" {
		name = "video"
	}
	if container == "" {
		container = "mp4"
	}
	return name + "." + strings.ToLower(container)
}

// sanitizeFilename sanitiza un string para usarlo como nombre de archivo
func sanitizeFilename(s string) string {
	s = spacesRe.ReplaceAllString(s, " ")
	s = unsafeFilenameRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.Trim(s, " .")

	// Limitar longitud (en runas)
	if runes := []rune(s); len(runes) > 200 {
		s = strings.TrimSpace(string(runes[:200]))
	}

	return s
}
