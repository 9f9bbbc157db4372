// Package source fetches brand exports over HTTP or Google Drive and
// parses them into raw rows.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orderlink/importer/internal/fields"
)

// Record is one raw row plus the worksheet it came from. Sheet is empty for
// CSV sources.
type Record struct {
	Fields fields.Row
	Sheet  string
}

// Fetcher retrieves export bytes. URLs of the form drive:<fileID> go
// through the Drive client; anything else is a plain HTTP GET.
type Fetcher struct {
	http  *http.Client
	drive *Drive
}

// NewFetcher builds a Fetcher. drive may be nil when no Drive credentials
// are configured; drive: URLs then fail with a setup error.
func NewFetcher(drive *Drive) *Fetcher {
	return &Fetcher{
		http:  &http.Client{Timeout: 5 * time.Minute},
		drive: drive,
	}
}

// Fetch downloads the export. Any non-200 response is fatal to the run: no
// partial state has been written yet, so the caller aborts.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if fileID, ok := strings.CutPrefix(url, "drive:"); ok {
		if f.drive == nil {
			return nil, fmt.Errorf("source %s requires Drive credentials", url)
		}
		return f.drive.Download(ctx, fileID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Parse dispatches on the configured source format.
func Parse(format string, data []byte) ([]Record, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return ParseCSV(data)
	case "xlsx", "workbook":
		return ParseWorkbook(data)
	default:
		return nil, fmt.Errorf("unsupported source format %q", format)
	}
}
