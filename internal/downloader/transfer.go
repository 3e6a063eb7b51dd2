package downloader

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/time/rate"
)

const partSuffix = ".part"

// NewLimiter crea un limitador de bytes/s; maxRate <= 0 significa sin límite
func NewLimiter(maxRate int64) *rate.Limiter {
	if maxRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(maxRate), int(maxRate))
}

// writeStream copia src a destPath pasando por un archivo .part.
// Si falla, no queda nada en destPath ni en el .part.
func writeStream(ctx context.Context, src io.Reader, destPath string, limiter *rate.Limiter) (int64, error) {
	partPath := destPath + partSuffix

	file, err := os.Create(partPath)
	if err != nil {
		return 0, fmt.Errorf("create part file: %w", err)
	}

	var reader io.Reader = &ctxReader{ctx: ctx, r: src}
	if limiter != nil {
		reader = &rateLimitedReader{ctx: ctx, r: reader, limiter: limiter}
	}

	written, copyErr := io.Copy(file, reader)
	closeErr := file.Close()

	if copyErr != nil || closeErr != nil {
		os.Remove(partPath)
		if copyErr != nil {
			return written, fmt.Errorf("copy stream: %w", copyErr)
		}
		return written, fmt.Errorf("close part file: %w", closeErr)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return written, fmt.Errorf("rename part file: %w", err)
	}

	return written, nil
}

// ctxReader corta la lectura cuando el contexto se cancela
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type rateLimitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.r.Read(p)
	if n > 0 {
		if waitErr := r.limiter.WaitN(r.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
