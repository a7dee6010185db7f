// Package attachment stores transaction attachments and hands back the URL
// the ledger keeps. The ledger never stores the blob itself.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/project-ledger/internal/domainerr"
)

const MaxFileSize = 10 << 20

// File is a blob to upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores a blob and returns a durable URL for it. Delete removes a
// blob by that URL; deleting a missing blob is not an error.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
	Delete(ctx context.Context, link string) error
}

// UploadAll uploads files in order and returns their URLs. The first failure
// aborts the rest and discards what was already uploaded.
func UploadAll(ctx context.Context, u Uploader, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		link, err := u.Upload(ctx, f)
		if err != nil {
			_ = Discard(context.WithoutCancel(ctx), u, urls)
			return nil, err
		}
		urls = append(urls, link)
	}
	return urls, nil
}

// Discard deletes every link and reports all failures together.
func Discard(ctx context.Context, u Uploader, links []string) error {
	var errs []error
	for _, link := range links {
		if err := u.Delete(ctx, link); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", link, err))
		}
	}
	return errors.Join(errs...)
}

// LocalUploader writes blobs below a directory served under BaseURL.
type LocalUploader struct {
	dir     string
	baseURL string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewLocalUploader(dir, baseURL string, timeout time.Duration, logger *logrus.Logger) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalUploader{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(name string) string {
	name = unsafeName.ReplaceAllString(filepath.Base(name), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// Upload writes the blob under a fresh id. Validation problems are returned
// as validation errors, storage problems as upstream failures.
func (u *LocalUploader) Upload(ctx context.Context, file File) (string, error) {
	if len(file.Data) == 0 {
		return "", domainerr.Validation("attachments", "%q is empty", file.Name)
	}
	if len(file.Data) > MaxFileSize {
		return "", domainerr.Validation("attachments", "%q exceeds %d bytes", file.Name, MaxFileSize)
	}
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", domainerr.Upstream("attachments", err)
	}
	name := id.String() + "-" + sanitize(file.Name)

	done := make(chan error, 1)
	go func() {
		done <- os.WriteFile(filepath.Join(u.dir, name), file.Data, 0o640)
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			u.logger.WithField("file", name).Warn("LocalUploader.Upload.timeout")
		}
		return "", domainerr.Upstream("attachments", err)
	}

	return u.baseURL + "/" + url.PathEscape(name), nil
}

// Delete removes a blob previously returned by Upload.
func (u *LocalUploader) Delete(_ context.Context, link string) error {
	escaped, ok := strings.CutPrefix(link, u.baseURL+"/")
	if !ok {
		return domainerr.Validation("attachments", "%q is not served by this store", link)
	}
	name, err := url.PathUnescape(escaped)
	if err != nil || name != filepath.Base(name) || name == "." || name == ".." {
		return domainerr.Validation("attachments", "%q is not a stored attachment", link)
	}
	if err := os.Remove(filepath.Join(u.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domainerr.Upstream("attachments", err)
	}
	return nil
}
