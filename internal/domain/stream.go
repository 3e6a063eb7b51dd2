package domain

// StreamKind distingue streams combinados de los adaptativos
type StreamKind string

const (
	KindProgressive StreamKind = "progressive" // audio + video en un solo stream
	KindVideoOnly   StreamKind = "video_only"
	KindAudioOnly   StreamKind = "audio_only"
)

// DefaultContainer es el contenedor combinado esperado en la salida
const DefaultContainer = "mp4"

// StreamDescriptor describe un stream ofrecido por la plataforma.
// Es un valor inmutable: no se modifica después de construir el catálogo.
type StreamDescriptor struct {
	Handle          string // itag o format_id, opaco para el resolver
	Source          string // video id al que pertenece
	Kind            StreamKind
	Tier            QualityTier // TierUnknown para audio
	Container       string
	VideoCodec      string
	AudioCodec      string
	Bitrate         int
	Size            int64
	DefaultFilename string
}

// HasVideo indica si el stream transporta video
func (s StreamDescriptor) HasVideo() bool {
	return s.Kind == KindProgressive || s.Kind == KindVideoOnly
}

// HasAudio indica si el stream transporta audio
func (s StreamDescriptor) HasAudio() bool {
	return s.Kind == KindProgressive || s.Kind == KindAudioOnly
}

// StreamCatalog es el conjunto de streams disponibles para un video
type StreamCatalog struct {
	VideoID string
	Title   string
	Author  string
	Streams []StreamDescriptor
}

// Filter retorna los streams que cumplen el predicado, en orden de catálogo
func (c *StreamCatalog) Filter(keep func(StreamDescriptor) bool) []StreamDescriptor {
	var out []StreamDescriptor
	for _, s := range c.Streams {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
