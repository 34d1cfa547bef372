// Package encoder turns an uploaded file into the inline document form that
// is attached to a chat and sent to the model.
package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/docchat/internal/core"
	"github.com/markdave123-py/docchat/internal/models"
)

// DocumentIcon is the preview shown for PDFs.
const DocumentIcon = "/document-icon.png"

var (
	ErrReadFailed      = errors.New("could not read file")
	ErrEmptyFile       = errors.New("file is empty")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("only PDF, JPG, JPEG and PNG files are supported")
)

// Encoder converts files to models.Document. When objects is set, image
// previews are uploaded there and referenced by URL; otherwise they are
// embedded as data URLs.
type Encoder struct {
	objects  core.ObjectClient
	maxBytes int64
	logger   *zap.Logger
}

func NewEncoder(objects core.ObjectClient, maxBytes int64, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{objects: objects, maxBytes: maxBytes, logger: logger}
}

// Encode reads r fully and returns its inline representation. userID scopes
// the object key of an uploaded preview.
func (e *Encoder) Encode(ctx context.Context, userID, name, contentType string, r io.Reader) (models.Document, error) {
	src := r
	if e.maxBytes > 0 {
		src = io.LimitReader(r, e.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		e.logger.Error("reading upload failed", zap.String("file", name), zap.Error(err))
		return models.Document{}, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if len(data) == 0 {
		return models.Document{}, ErrEmptyFile
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return models.Document{}, ErrTooLarge
	}

	mimeType := DetectType(contentType, data)
	if !Supported(mimeType) {
		return models.Document{}, fmt.Errorf("%w (got %s)", ErrUnsupportedType, mimeType)
	}

	doc := models.Document{
		Name:     filepath.Base(name),
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}

	doc.PreviewURL, err = e.preview(ctx, userID, doc.Name, mimeType, data, doc.Data)
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (e *Encoder) preview(ctx context.Context, userID, name, mimeType string, data []byte, b64 string) (string, error) {
	if IsPDF(mimeType) {
		return DocumentIcon, nil
	}
	if e.objects == nil {
		return "data:" + mimeType + ";base64," + b64, nil
	}

	key := path.Join("users", userID, "previews", uuid.NewString(), objectName(name))
	url, err := e.objects.UploadFile(ctx, key, bytes.NewReader(data), mimeType)
	if err != nil {
		return "", fmt.Errorf("upload preview: %w", err)
	}
	return url, nil
}

// DetectType returns the declared media type when it is specific, otherwise
// the type sniffed from the content.
func DetectType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return strings.ToLower(mt)
	}
	mt, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return mt
}

func IsPDF(mimeType string) bool {
	return strings.Contains(mimeType, "pdf")
}

// Supported reports whether the model can be given this type inline.
func Supported(mimeType string) bool {
	return IsPDF(mimeType) || strings.HasPrefix(mimeType, "image/")
}

func objectName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return strings.ReplaceAll(name, " ", "_")
}
