// Package drive is the Google Drive file storage: applicant documents are
// read from it and signed envelopes are filed into per-hire folders of a
// shared drive.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/envelope"
	"github.com/jonathan/hiring-agent/internal/extraction"
)

const folderMime = "application/vnd.google-apps.folder"

// Client wraps the Drive v3 service.
type Client struct {
	svc *gdrive.Service

	mu     sync.Mutex
	drives map[string]string // shared drive name -> id
}

var (
	_ extraction.FileStore = (*Client)(nil)
	_ envelope.Filer       = (*Client)(nil)
)

// New creates a Drive client from the given client options, typically
// option.WithCredentialsFile.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &Client{svc: svc, drives: make(map[string]string)}, nil
}

// GetMetadata returns the declared name and mime type of a file.
func (c *Client) GetMetadata(ctx context.Context, fileID string) (extraction.FileMetadata, error) {
	f, err := c.svc.Files.Get(fileID).
		SupportsAllDrives(true).
		Fields("id, name, mimeType").
		Context(ctx).
		Do()
	if err != nil {
		return extraction.FileMetadata{}, wrap("get metadata of "+fileID, err)
	}
	return extraction.FileMetadata{Name: f.Name, MimeType: f.MimeType}, nil
}

// Download returns the raw bytes of a file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, wrap("download "+fileID, err)
	}
	return readBody(resp, fileID)
}

// ExportText exports a native document as plain text.
func (c *Client) ExportText(ctx context.Context, fileID string) (string, error) {
	resp, err := c.svc.Files.Export(fileID, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", wrap("export "+fileID, err)
	}
	data, err := readBody(resp, fileID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EnsureFolder returns the id of the folder named folderName at the root of
// the shared drive driveName, creating it if needed.
func (c *Client) EnsureFolder(ctx context.Context, driveName, folderName string) (string, error) {
	driveID, err := c.sharedDrive(ctx, driveName)
	if err != nil {
		return "", err
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escape(folderName), folderMime, driveID)
	existing, err := c.find(ctx, driveID, q)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	f, err := c.svc.Files.Create(&gdrive.File{
		Name:     folderName,
		MimeType: folderMime,
		Parents:  []string{driveID},
	}).SupportsAllDrives(true).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", wrap("create folder "+folderName, err)
	}
	return f.Id, nil
}

// Upload writes data as name inside folderID, replacing the content of a
// file with the same name.
func (c *Client) Upload(ctx context.Context, folderID, name, mimeType string, data []byte) error {
	driveID, err := c.driveOf(ctx, folderID)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false", escape(name), folderID)
	existing, err := c.find(ctx, driveID, q)
	if err != nil {
		return err
	}

	media := googleapi.ContentType(mimeType)
	if existing != "" {
		_, err = c.svc.Files.Update(existing, &gdrive.File{}).
			Media(bytes.NewReader(data), media).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return wrap("update "+name, err)
		}
		return nil
	}

	_, err = c.svc.Files.Create(&gdrive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{folderID},
	}).Media(bytes.NewReader(data), media).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return wrap("upload "+name, err)
	}
	return nil
}

func (c *Client) sharedDrive(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	id, ok := c.drives[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	list, err := c.svc.Drives.List().Q(fmt.Sprintf("name = '%s'", escape(name))).Context(ctx).Do()
	if err != nil {
		return "", wrap("list shared drives", err)
	}
	for _, d := range list.Drives {
		if d.Name == name {
			id = d.Id
			break
		}
	}
	if id == "" {
		return "", &apperr.ConfigurationError{Message: fmt.Sprintf("shared drive %q not found", name)}
	}

	c.mu.Lock()
	c.drives[name] = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) driveOf(ctx context.Context, folderID string) (string, error) {
	f, err := c.svc.Files.Get(folderID).SupportsAllDrives(true).Fields("id, driveId").Context(ctx).Do()
	if err != nil {
		return "", wrap("get folder "+folderID, err)
	}
	return f.DriveId, nil
}

func (c *Client) find(ctx context.Context, driveID, q string) (string, error) {
	call := c.svc.Files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if driveID != "" {
		call = call.Corpora("drive").DriveId(driveID)
	}
	list, err := call.Context(ctx).Do()
	if err != nil {
		return "", wrap("list files", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func readBody(resp *http.Response, fileID string) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.TransientIOError{Op: "read " + fileID, Cause: err}
	}
	return data, nil
}

// wrap maps API errors onto the shared taxonomy.
func wrap(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusNotFound:
			return &apperr.NotFoundError{Kind: "file", Key: op}
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return &apperr.TransientIOError{Op: op, Cause: err}
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// escape quotes a value for a Drive query string.
func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
