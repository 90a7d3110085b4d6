package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// File is one part of a multipart upload.
type File struct {
	// Field is the form field name.
	Field       string
	Name        string
	ContentType string
	Content     io.Reader
}

// Upload posts fields and files as multipart/form-data and decodes the
// envelope's data into T.
func Upload[T any](ctx context.Context, c *Client, path string, fields map[string]string, files []File) (*Response[T], error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("creating part %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copying %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	return Do[T](ctx, c, Request{
		Method:      http.MethodPost,
		Path:        path,
		body:        bytes.NewReader(buf.Bytes()),
		contentType: w.FormDataContentType(),
	})
}
