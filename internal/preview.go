package internal

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// PreviewDecoder turns a blob into its renderable preview
type PreviewDecoder func(ctx context.Context, b Blob) (Preview, error)

// DecodePreview validates that the blob is an image and builds a data URL
// preview carrying its dimensions
func DecodePreview(ctx context.Context, b Blob) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}
	if len(b.Data) == 0 {
		return Preview{}, fmt.Errorf("%s: empty image", b.Name)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(b.Data))
	if err != nil {
		return Preview{}, fmt.Errorf("%s: %w", b.Name, err)
	}

	mimeType := b.MIMEType
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/" + format
	}

	return Preview{
		DataURL:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b.Data),
		MIMEType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// LoadBlobs reads picker files from disk. The blob name is the file's base
// name and the MIME type is sniffed from its content.
func LoadBlobs(paths ...string) ([]Blob, error) {
	blobs := make([]Blob, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		blobs = append(blobs, NewBlob(filepath.Base(p), data))
	}
	return blobs, nil
}

// NewBlob builds a blob with a sniffed MIME type
func NewBlob(name string, data []byte) Blob {
	return Blob{
		Name:     name,
		MIMEType: http.DetectContentType(data),
		Data:     data,
	}
}
