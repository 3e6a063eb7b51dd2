package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind clasifica los fallos de una descarga. El conjunto es cerrado.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindCatalogUnavailable ErrorKind = "catalog_unavailable"
	KindStreamUnavailable  ErrorKind = "stream_unavailable"
	KindTransferFailed     ErrorKind = "transfer_failed"
	KindMuxFailed          ErrorKind = "mux_failed"
	KindUnknownFailure     ErrorKind = "unknown_failure"
)

// Sentinels para errors.Is contra un *DownloadError
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrStreamUnavailable  = errors.New("stream unavailable")
	ErrTransferFailed     = errors.New("transfer failed")
	ErrMuxFailed          = errors.New("mux failed")
	ErrUnknownFailure     = errors.New("unknown failure")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidInput:       ErrInvalidInput,
	KindCatalogUnavailable: ErrCatalogUnavailable,
	KindStreamUnavailable:  ErrStreamUnavailable,
	KindTransferFailed:     ErrTransferFailed,
	KindMuxFailed:          ErrMuxFailed,
	KindUnknownFailure:     ErrUnknownFailure,
}

var kindMessages = map[ErrorKind]string{
	KindInvalidInput:       "Please provide a valid YouTube link and an existing, writable output directory",
	KindCatalogUnavailable: "Could not load the video (private, removed or network error)",
	KindStreamUnavailable:  "Could not download the video. No stream available",
	KindTransferFailed:     "Download interrupted while transferring the stream",
	KindMuxFailed:          "Could not merge the video and audio streams",
	KindUnknownFailure:     "An error occurred",
}

// UserMessage es el texto que ve el usuario para cada kind
func (k ErrorKind) UserMessage() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknownFailure]
}

// ParseErrorKind valida un kind persistido o recibido por el socket
func ParseErrorKind(s string) (ErrorKind, bool) {
	k := ErrorKind(s)
	_, ok := kindSentinels[k]
	return k, ok
}

// DownloadError es el único tipo de error que sale del orquestador
type DownloadError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// NewDownloadError construye un error tipado
func NewDownloadError(kind ErrorKind, detail string, err error) *DownloadError {
	return &DownloadError{Kind: kind, Detail: detail, Err: err}
}

func (e *DownloadError) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, domain.ErrMuxFailed)
func (e *DownloadError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Diagnostic retorna el detalle completo para copiar/reportar
func (e *DownloadError) Diagnostic() string {
	return fmt.Sprintf("kind: %s\ndetail: %s\nerror: %v", e.Kind, e.Detail, e.Err)
}

// PlanKind indica qué camino tomó la descarga
type PlanKind string

const (
	PlanSingle PlanKind = "single"
	PlanDual   PlanKind = "dual"
)

// DownloadOutcome es el resultado terminal de una ejecución.
// Exactamente uno de Path o Err está presente.
type DownloadOutcome struct {
	RunID    string
	Path     string
	Err      *DownloadError
	Plan     PlanKind
	Tier     QualityTier
	Bytes    int64
	Duration time.Duration
}

// Success construye un resultado exitoso
func Success(path string) DownloadOutcome {
	return DownloadOutcome{Path: path}
}

// Failure construye un resultado fallido
func Failure(kind ErrorKind, detail string, err error) DownloadOutcome {
	return DownloadOutcome{Err: NewDownloadError(kind, detail, err)}
}

// Succeeded indica si el resultado es exitoso
func (o DownloadOutcome) Succeeded() bool {
	return o.Err == nil
}

// Kind retorna el tipo de error, o "" si fue exitoso
func (o DownloadOutcome) Kind() ErrorKind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}

// RunState es la etapa actual de una ejecución
type RunState string

const (
	StateValidating       RunState = "validating"
	StateResolvingCatalog RunState = "resolving_catalog"
	StatePlanning         RunState = "planning"
	StateTransferring     RunState = "transferring"
	StateMuxing           RunState = "muxing"
	StateDone             RunState = "done"
)
