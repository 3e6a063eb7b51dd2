package domain

import (
	"fmt"
	"strings"
)

// QualityTier es un nivel de resolución vertical soportado.
// El orden numérico coincide con el orden de calidad.
type QualityTier int

const (
	TierUnknown QualityTier = iota
	Tier144p
	Tier240p
	Tier360p
	Tier480p
	Tier720p
	Tier1080p
)

// TopTier es el único nivel servido como streams adaptativos separados
const TopTier = Tier1080p

var tierLabels = map[QualityTier]string{
	Tier144p:  "144p",
	Tier240p:  "240p",
	Tier360p:  "360p",
	Tier480p:  "480p",
	Tier720p:  "720p",
	Tier1080p: "1080p",
}

var tierHeights = map[QualityTier]int{
	Tier144p:  144,
	Tier240p:  240,
	Tier360p:  360,
	Tier480p:  480,
	Tier720p:  720,
	Tier1080p: 1080,
}

// AllTiers retorna todos los niveles de mayor a menor
func AllTiers() []QualityTier {
	return Ladder(TopTier)
}

// String retorna la etiqueta ("720p")
func (t QualityTier) String() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}
	return "unknown"
}

// Height retorna la altura en píxeles del nivel
func (t QualityTier) Height() int {
	return tierHeights[t]
}

// Valid indica si el nivel pertenece al conjunto soportado
func (t QualityTier) Valid() bool {
	_, ok := tierLabels[t]
	return ok
}

// Lower retorna el nivel inmediatamente inferior, o TierUnknown si no existe
func (t QualityTier) Lower() QualityTier {
	if !t.Valid() || t == Tier144p {
		return TierUnknown
	}
	return t - 1
}

// Ladder retorna los niveles desde from (incluido) hasta 144p, en orden descendente.
// Un nivel inválido produce una escalera vacía.
func Ladder(from QualityTier) []QualityTier {
	if !from.Valid() {
		return nil
	}

	ladder := make([]QualityTier, 0, int(from))
	for t := from; t != TierUnknown; t = t.Lower() {
		ladder = append(ladder, t)
	}
	return ladder
}

// ParseQualityTier convierte "720p", "720P" o "720p60" en un QualityTier
func ParseQualityTier(s string) (QualityTier, error) {
	label := strings.ToLower(strings.TrimSpace(s))

	// Sufijo de fps: "1080p60" → "1080p"; cualquier otro sufijo es inválido
	if idx := strings.Index(label, "p"); idx > 0 {
		if !allDigits(label[idx+1:]) {
			return TierUnknown, fmt.Errorf("unknown quality tier: %q", s)
		}
		label = label[:idx+1]
	}

	for tier, l := range tierLabels {
		if l == label {
			return tier, nil
		}
	}
	return TierUnknown, fmt.Errorf("unknown quality tier: %q", s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Ancho 16:9 de cada nivel, para formatos con barras (1920x804 sigue siendo 1080p)
var tierWidths = map[QualityTier]int{
	Tier144p:  256,
	Tier240p:  426,
	Tier360p:  640,
	Tier480p:  854,
	Tier720p:  1280,
	Tier1080p: 1920,
}

// TierFromHeight mapea una altura en píxeles al nivel más alto que no la supera.
// Alturas por encima del nivel máximo no pertenecen a ningún nivel.
func TierFromHeight(height int) QualityTier {
	if height > TopTier.Height() {
		return TierUnknown
	}
	for _, tier := range AllTiers() {
		if height >= tier.Height() {
			return tier
		}
	}
	return TierUnknown
}

// TierFromSize mapea las dimensiones de un formato a su nivel usando el lado
// corto y el ancho 16:9 del lado largo; gana el mayor de los dos.
// Ancho desconocido (0) equivale a TierFromHeight.
func TierFromSize(width, height int) QualityTier {
	if width <= 0 {
		return TierFromHeight(height)
	}

	long, short := width, height
	if short > long {
		long, short = short, long
	}
	if short > TopTier.Height() || long > tierWidths[TopTier] {
		return TierUnknown
	}

	best := TierFromHeight(short)
	for _, tier := range AllTiers() {
		if long >= tierWidths[tier] {
			if tier > best {
				best = tier
			}
			break
		}
	}
	return best
}
