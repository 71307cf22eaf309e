// Package upload sends meal and profile images to ImgBB and returns the
// hosted URL.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// DefaultEndpoint is the ImgBB upload API.
const DefaultEndpoint = "https://api.imgbb.com/1/upload"

// ErrNoKey is returned when no API key is configured.
var ErrNoKey = errors.New("ImgBB API key is not configured")

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// ImgBB uploads images to ImgBB.
type ImgBB struct {
	Key      string
	Endpoint string
	Client   *http.Client
	Logger   *zap.Logger
}

var _ Uploader = (*ImgBB)(nil)

// Upload posts the image as multipart form field "image".
func (u *ImgBB) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if u.Key == "" {
		return "", ErrNoKey
	}
	endpoint := u.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	target, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	q := target.Query()
	q.Set("key", u.Key)
	target.RawQuery = q.Encode()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return "", errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", errors.Wrap(err, "read image")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), &body)
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	defer func() { _ = resp.Body.Close() }()

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("upload image: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode upload response")
	}
	if out.Data.URL == "" {
		return "", errors.New("upload image: no url in response")
	}
	if u.Logger != nil {
		u.Logger.Debug("Image uploaded", zap.String("filename", filename), zap.String("url", out.Data.URL))
	}
	return out.Data.URL, nil
}

// MaxImageSize is the largest image accepted for upload.
const MaxImageSize = 1 << 20

var (
	// ErrNotImage is returned for files whose content is not an image.
	ErrNotImage = errors.New("not an image file")
	// ErrTooLarge is returned for images over MaxImageSize.
	ErrTooLarge = errors.New("image must be smaller than 1MB")
)

// File checks the image at path and uploads it with u.
func File(ctx context.Context, u Uploader, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open image")
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, "stat image")
	}
	if info.Size() > MaxImageSize {
		return "", ErrTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read image")
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return "", ErrNotImage
	}

	return u.Upload(ctx, filepath.Base(path), io.MultiReader(bytes.NewReader(head[:n]), f))
}
