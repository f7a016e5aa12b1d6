// Package netx holds HTTP client helpers for the operator CLI.
package netx

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadFiles posts paths to url as one multipart request with a "files"
// part per path and the owner in the "username" field. The body is streamed,
// so files are never held in memory.
//
// The response body is returned even when the status is not 200, since the
// server reports per-file outcomes on rejection too.
func UploadFiles(ctx context.Context, client *http.Client, url, owner string, paths []string) ([]byte, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, err
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, owner, paths))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return b, fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return b, nil
}

func writeParts(mw *multipart.Writer, owner string, paths []string) error {
	if owner != "" {
		if err := mw.WriteField("username", owner); err != nil {
			return err
		}
	}
	for _, p := range paths {
		if err := copyPart(mw, p); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyPart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
