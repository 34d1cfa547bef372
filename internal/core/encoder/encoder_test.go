package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
)

type fakeObjects struct {
	keys  []string
	types []string
	err   error
}

func (f *fakeObjects) UploadFile(_ context.Context, key string, data io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.Copy(io.Discard, data)
	f.keys = append(f.keys, key)
	f.types = append(f.types, contentType)
	return "https://bucket.example/" + key, nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestEncode_PDF(t *testing.T) {
	enc := NewEncoder(nil, 0, nil)

	doc, err := enc.Encode(context.Background(), "u1", "doc.pdf", "application/pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)

	assert.Equal(t, "doc.pdf", doc.Name)
	assert.Equal(t, "application/pdf", doc.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdfBytes), doc.Data)
	assert.Equal(t, DocumentIcon, doc.PreviewURL)
}

func TestEncode_ImageDataURLWithoutObjectStorage(t *testing.T) {
	enc := NewEncoder(nil, 0, nil)

	doc, err := enc.Encode(context.Background(), "u1", "scan.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "image/png", doc.MIMEType)
	assert.Equal(t, "data:image/png;base64,"+doc.Data, doc.PreviewURL)
}

func TestEncode_ImageUploadedToObjectStorage(t *testing.T) {
	objects := &fakeObjects{}
	enc := NewEncoder(objects, 0, nil)

	doc, err := enc.Encode(context.Background(), "u1", "my scan.png", "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.Len(t, objects.keys, 1)
	assert.True(t, strings.HasPrefix(objects.keys[0], "users/u1/previews/"))
	assert.True(t, strings.HasSuffix(objects.keys[0], "/my_scan.png"))
	assert.Equal(t, []string{"image/png"}, objects.types)
	assert.Equal(t, "https://bucket.example/"+objects.keys[0], doc.PreviewURL)
}

func TestEncode_PreviewUploadFailure(t *testing.T) {
	enc := NewEncoder(&fakeObjects{err: errors.New("denied")}, 0, nil)

	_, err := enc.Encode(context.Background(), "u1", "scan.png", "image/png", bytes.NewReader(pngBytes))
	assert.ErrorContains(t, err, "upload preview")
}

func TestEncode_SniffsMissingContentType(t *testing.T) {
	enc := NewEncoder(nil, 0, nil)

	doc, err := enc.Encode(context.Background(), "u1", "upload", "application/octet-stream", bytes.NewReader(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.MIMEType)

	doc, err = enc.Encode(context.Background(), "u1", "upload", "", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", doc.MIMEType)
}

func TestEncode_Rejections(t *testing.T) {
	enc := NewEncoder(nil, 64, nil)
	ctx := context.Background()

	_, err := enc.Encode(ctx, "u1", "notes.txt", "text/plain", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = enc.Encode(ctx, "u1", "empty.pdf", "application/pdf", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = enc.Encode(ctx, "u1", "big.pdf", "application/pdf", bytes.NewReader(make([]byte, 65)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = enc.Encode(ctx, "u1", "broken.pdf", "application/pdf", failingReader{})
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "image/jpeg", DetectType("image/JPEG; name=x.jpg", nil))
	assert.Equal(t, "application/pdf", DetectType("", pdfBytes))
	assert.Equal(t, "text/plain", DetectType("", []byte("just text")))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("application/pdf"))
	assert.True(t, Supported("image/jpeg"))
	assert.True(t, Supported("image/png"))
	assert.False(t, Supported("text/plain"))
	assert.False(t, Supported("application/zip"))
}
