package resolver

import (
	"fmt"
	"strings"

	"github.com/elsanchez/tubefetch/internal/domain"
)

// Plan es la decisión de qué transferir para un pedido.
// PlanSingle usa Stream; PlanDual usa Video y Audio.
type Plan struct {
	Kind   domain.PlanKind
	Tier   domain.QualityTier
	Stream domain.StreamDescriptor
	Video  domain.StreamDescriptor
	Audio  domain.StreamDescriptor
}

// Options ajusta la selección
type Options struct {
	// Container combinado requerido para streams progresivos (default "mp4")
	Container string
}

func (o Options) container() string {
	if o.Container == "" {
		return domain.DefaultContainer
	}
	return strings.ToLower(o.Container)
}

// Resolve convierte una calidad pedida en un plan concreto.
// Es una función pura: mismo catálogo y misma calidad producen el mismo plan.
func Resolve(requested domain.QualityTier, catalog *domain.StreamCatalog, opts Options) (Plan, error) {
	if !requested.Valid() {
		return Plan{}, domain.NewDownloadError(domain.KindInvalidInput, fmt.Sprintf("unsupported quality %q", requested), nil)
	}
	if catalog == nil {
		return Plan{}, domain.NewDownloadError(domain.KindStreamUnavailable, "empty catalog", nil)
	}

	start := requested
	if requested == domain.TopTier {
		if plan, ok := resolveDual(catalog, opts); ok {
			return plan, nil
		}
		// Sin video adaptativo (o sin audio): continuar la escalera un nivel abajo
		start = domain.TopTier.Lower()
	}

	return resolveLadder(start, catalog, opts)
}

// resolveLadder busca un stream progresivo desde start hacia abajo
func resolveLadder(start domain.QualityTier, catalog *domain.StreamCatalog, opts Options) (Plan, error) {
	container := opts.container()

	for _, tier := range domain.Ladder(start) {
		candidates := catalog.Filter(func(s domain.StreamDescriptor) bool {
			return s.Kind == domain.KindProgressive &&
				s.Tier == tier &&
				strings.EqualFold(s.Container, container)
		})

		if best, ok := pickBest(candidates, container); ok {
			return Plan{Kind: domain.PlanSingle, Tier: tier, Stream: best}, nil
		}
	}

	return Plan{}, domain.NewDownloadError(
		domain.KindStreamUnavailable,
		fmt.Sprintf("no progressive %s stream at or below %s", container, start),
		nil,
	)
}

// resolveDual arma el plan de dos streams para el nivel superior
func resolveDual(catalog *domain.StreamCatalog, opts Options) (Plan, bool) {
	container := opts.container()

	videos := catalog.Filter(func(s domain.StreamDescriptor) bool {
		return s.Kind == domain.KindVideoOnly && s.Tier == domain.TopTier
	})
	video, ok := pickBest(videos, container)
	if !ok {
		return Plan{}, false
	}

	audios := catalog.Filter(func(s domain.StreamDescriptor) bool {
		return s.Kind == domain.KindAudioOnly
	})
	audio, ok := pickBest(audios, container)
	if !ok {
		return Plan{}, false
	}

	return Plan{Kind: domain.PlanDual, Tier: domain.TopTier, Video: video, Audio: audio}, true
}

// pickBest elige el mejor candidato: contenedor preferido, luego bitrate.
// En empate gana el primero en orden de catálogo.
func pickBest(candidates []domain.StreamDescriptor, container string) (domain.StreamDescriptor, bool) {
	var best domain.StreamDescriptor
	found := false

	for _, c := range candidates {
		if !found || compareKeys(rankKeys(c, container), rankKeys(best, container)) {
			best = c
			found = true
		}
	}

	return best, found
}

func rankKeys(s domain.StreamDescriptor, container string) []int {
	return []int{boolScore(strings.EqualFold(s.Container, container)), s.Bitrate}
}

// compareKeys retorna true si a es estrictamente mejor que b
func compareKeys(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			continue
		}
		return a[i] > b[i]
	}
	return false
}

func boolScore(v bool) int {
	if v {
		return 1
	}
	return 0
}
