package postprocessor

import (
	"context"
	"errors"
)

// Muxer combina un stream de video y uno de audio en un solo archivo
type Muxer interface {
	// Combine escribe outputPath (sobrescribiendo si existe) a partir de los dos streams
	Combine(ctx context.Context, videoPath, audioPath, outputPath string, meta Metadata) error
}

// Metadata son los tags opcionales del archivo final
type Metadata struct {
	Title  string
	Artist string
}

// ErrIncompatibleStreams indica que las entradas no tienen el stream esperado
var ErrIncompatibleStreams = errors.New("incompatible streams")
