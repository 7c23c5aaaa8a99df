package payloadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

type mediaFields struct {
	Alt    string `json:"alt"`
	Source string `json:"source,omitempty"`
}

type mediaResponse struct {
	Doc contentstore.MediaRecord `json:"doc"`
}

// CreateMedia uploads the staged file with its document fields.
func (c *Client) CreateMedia(ctx context.Context, media contentstore.MediaInput) (contentstore.MediaRecord, error) {
	filename := filepath.Base(strings.TrimSpace(media.Filename))
	if filename == "." || filename == "" {
		filename = filepath.Base(media.FilePath)
	}
	mimeType := strings.TrimSpace(media.MimeType)
	if mimeType == "" {
		detected, err := mimetype.DetectFile(media.FilePath)
		if err != nil {
			return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "sniff "+filename, err)
		}
		mimeType = detected.String()
	}

	body, contentType, err := buildUpload(media, filename, mimeType)
	if err != nil {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "build upload "+filename, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.mediaCollection), body)
	if err != nil {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", "build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp mediaResponse
	if err := c.do(req, &resp); err != nil {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", filename, err)
	}
	if resp.Doc.ID == "" {
		return contentstore.MediaRecord{}, services.Wrap(services.ErrStore, "store", "create media", filename+": response carried no id", nil)
	}
	return resp.Doc, nil
}

func buildUpload(media contentstore.MediaInput, filename, mimeType string) (*bytes.Buffer, string, error) {
	file, err := os.Open(media.FilePath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}

	fields, err := json.Marshal(mediaFields{Alt: media.Alt, Source: media.Source})
	if err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("_payload", string(fields)); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
