package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/coorte/internal/model"
	"github.com/schollz/progressbar/v3"
)

var errUploadAborted = errors.New("upload aborted")

type uploadPart struct {
	file  *os.File
	field string
	name  string
}

// Upload sends both spreadsheets as one multipart request. The body is streamed
// so large claim files are never held in memory.
func (c *Client) Upload(ctx context.Context, projectID, roundID string, benef, ficha model.SourceFile) (*model.UploadSummary, error) {
	const op = "upload"

	if !benef.IsSet() || !ficha.IsSet() {
		return nil, &Error{Op: op, Kind: KindValidation, Detail: "both spreadsheets are required"}
	}

	parts := make([]uploadPart, 0, 2)
	for _, p := range []struct {
		field string
		src   model.SourceFile
	}{{"beneficiarios", benef}, {"ficha", ficha}} {
		f, err := os.Open(p.src.Path)
		if err != nil {
			for _, opened := range parts {
				_ = opened.file.Close()
			}
			return nil, fmt.Errorf("failed to open %s: %w", p.src.Path, err)
		}
		parts = append(parts, uploadPart{file: f, field: p.field, name: p.src.Name()})
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, parts))
	}()
	// The transport does not close a wrapped pipe, so unblock the writer ourselves.
	defer pr.CloseWithError(errUploadAborted)

	var body io.Reader = pr
	if c.progress != nil {
		bar := newProgressBar(c.progress, benef.Size+ficha.Size, "Enviando planilhas")
		defer func() { _ = bar.Finish() }()
		body = io.TeeReader(pr, progressWriter{bar: bar})
	}

	resp, err := c.do(ctx, op, http.MethodPost, c.endpoint(nil, "upload", projectID, roundID),
		body, mw.FormDataContentType(), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var summary model.UploadSummary
	if err := decode(op, resp, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// writeParts copies every file into the multipart stream and closes the files.
func writeParts(mw *multipart.Writer, parts []uploadPart) error {
	defer func() {
		for _, p := range parts {
			_ = p.file.Close()
		}
	}()

	for _, p := range parts {
		w, err := mw.CreateFormFile(p.field, p.name)
		if err != nil {
			return fmt.Errorf("failed to create form part %s: %w", p.field, err)
		}
		if _, err := io.Copy(w, p.file); err != nil {
			return fmt.Errorf("failed to stream %s: %w", p.name, err)
		}
	}
	return mw.Close()
}

// progressWriter feeds a progress bar and never fails the stream it observes.
type progressWriter struct {
	bar *progressbar.ProgressBar
}

func (p progressWriter) Write(b []byte) (int, error) {
	_ = p.bar.Add(len(b))
	return len(b), nil
}

func newProgressBar(w io.Writer, total int64, description string) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
