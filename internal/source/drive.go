package source

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Drive downloads exports hosted on Google Drive using a service account.
type Drive struct {
	srv *drive.Service
}

// NewDrive builds a Drive client from service-account credentials JSON.
func NewDrive(ctx context.Context, credentialsJSON []byte) (*Drive, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}

	return &Drive{srv: srv}, nil
}

// Download fetches a file's content. Google-native spreadsheets cannot be
// downloaded directly and are exported as CSV instead.
func (d *Drive) Download(ctx context.Context, fileID string) ([]byte, error) {
	meta, err := d.srv.Files.Get(fileID).Fields("mimeType").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("stat drive file %s: %w", fileID, err)
	}

	if meta.MimeType == "application/vnd.google-apps.spreadsheet" {
		r, err := d.srv.Files.Export(fileID, "text/csv").Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("export drive sheet %s: %w", fileID, err)
		}
		defer r.Body.Close()
		return io.ReadAll(r.Body)
	}

	r, err := d.srv.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download drive file %s: %w", fileID, err)
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}
