package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgHTTP "github.com/futig/fundqa-bot/pkg/http"
)

// maxFileSize matches the Bot API limit for downloads.
const maxFileSize = 20 << 20

type fileDownloader struct {
	resolve func(fileID string) (string, error)
	client  *http.Client
}

func newFileDownloader(resolve func(fileID string) (string, error), timeout time.Duration) *fileDownloader {
	return &fileDownloader{
		resolve: resolve,
		client: pkgHTTP.NewClient(
			pkgHTTP.WithRequestTimeout(timeout),
			pkgHTTP.WithRequestLogging(),
		),
	}
}

func (d *fileDownloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := d.resolve(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &pkgHTTP.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &pkgHTTP.HTTPError{StatusCode: resp.StatusCode, Message: "download file " + fileID}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, &pkgHTTP.NetworkError{Err: err}
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("file %s exceeds %d bytes", fileID, maxFileSize)
	}
	return data, nil
}
