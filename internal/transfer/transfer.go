package transfer

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/spf13/afero"
)

const chunkSize = 32 * 1024

// HTTPTransfer streams HTTP bodies to files on an afero filesystem.
type HTTPTransfer struct {
	log    zerolog.Logger
	client *http.Client
	fs     afero.Fs
}

var _ domain.FileTransfer = (*HTTPTransfer)(nil)

func NewHTTPTransfer(log zerolog.Logger, client *http.Client, fs afero.Fs) *HTTPTransfer {
	return &HTTPTransfer{
		log:    log.With().Str("module", "transfer").Logger(),
		client: client,
		fs:     fs,
	}
}

// Fetch downloads url into dst. The returned status is the HTTP status code;
// dst is only created for 2xx responses. A transport or write error is
// returned alongside whatever status was received.
func (t *HTTPTransfer) Fetch(ctx context.Context, url, dst string, onChunk domain.ChunkFunc) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		t.log.Debug().Int("status", resp.StatusCode).Str("dst", dst).Msg("non-success status")
		return resp.StatusCode, nil
	}

	f, err := t.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return resp.StatusCode, errors.Wrapf(err, "failed to create %s", dst)
	}

	pw := &progressWriter{w: f, total: resp.ContentLength, onChunk: onChunk}
	_, copyErr := io.CopyBuffer(pw, resp.Body, make([]byte, chunkSize))
	closeErr := f.Close()
	if copyErr != nil {
		return resp.StatusCode, errors.Wrap(copyErr, "failed to stream body")
	}
	if closeErr != nil {
		return resp.StatusCode, errors.Wrapf(closeErr, "failed to close %s", dst)
	}

	t.log.Debug().Int64("bytes", pw.written).Str("dst", dst).Msg("transfer complete")
	return resp.StatusCode, nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	onChunk domain.ChunkFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if n > 0 && p.onChunk != nil {
		p.onChunk(p.written, p.total)
	}
	return n, err
}
