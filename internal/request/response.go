package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrResponse matches every ResponseError.
var ErrResponse = errors.New("invalid response")

// ResponseError reports a response that was received but is unusable:
// a non-OK status, or an OK status without any files in the archive.
type ResponseError struct {
	StatusCode int
	Reason     string
	Msg        string
	Err        error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

func (e *ResponseError) Is(target error) bool {
	return target == ErrResponse
}

// CheckResponse validates a service response. A status other than 200 means
// the server rejected the request. A 200 whose archive holds no entries means
// the server accepted it but has nothing for the requested range, or is
// misbehaving.
func CheckResponse(status int, body []byte) error {
	reason := http.StatusText(status)
	if status != http.StatusOK {
		return &ResponseError{
			StatusCode: status,
			Reason:     reason,
			Msg:        fmt.Sprintf("unexpected http response code from server: %d, '%s'", status, reason),
		}
	}

	noFiles := fmt.Sprintf("no valid files returned; http response code is: %d, '%s'; "+
		"data may not be available for date range requested, or server is misbehaving", status, reason)

	if len(body) == 0 {
		return &ResponseError{StatusCode: status, Reason: reason, Msg: noFiles}
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return &ResponseError{
			StatusCode: status,
			Reason:     reason,
			Msg:        fmt.Sprintf("response body is not a zip archive; http response code is: %d, '%s'", status, reason),
			Err:        err,
		}
	}
	if len(zr.File) == 0 {
		return &ResponseError{StatusCode: status, Reason: reason, Msg: noFiles}
	}
	return nil
}

// Extract unpacks every entry of the zip archive in body into dest, which
// must be an existing directory. Entry names are kept as given and existing
// files are overwritten. Entries that would land outside dest are rejected.
// Files written before a failure are left in place. The written file paths
// are returned in archive order.
func Extract(body []byte, dest string) ([]string, error) {
	info, err := os.Stat(dest)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("extract destination %s is not a directory", dest)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	var written []string
	for _, f := range zr.File {
		target, err := entryPath(dest, f.Name)
		if err != nil {
			return written, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, err
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

// Extract unpacks the response body into dest; see Extract.
func (resp *Response) Extract(dest string) ([]string, error) {
	return Extract(resp.Body, dest)
}

func entryPath(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("archive entry %q has an absolute path", name)
	}
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes destination %s", name, dest)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
