package upload

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImgBBUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "k123", r.URL.Query().Get("key"))

		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer func() { _ = f.Close() }()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "burger.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))

		_, _ = io.WriteString(w, `{"success":true,"status":200,"data":{"url":"https://i.ibb.co/x/burger.png"}}`)
	}))
	defer srv.Close()

	u := &ImgBB{Key: "k123", Endpoint: srv.URL + "/1/upload"}
	got, err := u.Upload(context.Background(), "burger.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/x/burger.png", got)
}

func TestImgBBErrors(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		status int
		body   string
		want   error
	}{
		{name: "missing key", want: ErrNoKey},
		{name: "rejected", key: "k", status: http.StatusBadRequest, body: `{"success":false}`},
		{name: "no url", key: "k", status: http.StatusOK, body: `{"success":true,"data":{}}`},
		{name: "not json", key: "k", status: http.StatusOK, body: `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			u := &ImgBB{Key: tt.key, Endpoint: srv.URL}
			_, err := u.Upload(context.Background(), "a.png", strings.NewReader("x"))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

type uploaderFunc func(ctx context.Context, filename string, r io.Reader) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	return f(ctx, filename, r)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	// Minimal PNG signature followed by padding.
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 600)...)
	pngPath := filepath.Join(dir, "meal.png")
	require.NoError(t, os.WriteFile(pngPath, png, 0o600))

	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello"), 0o600))

	bigPath := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(bigPath, append(png, make([]byte, MaxImageSize)...), 0o600))

	var got []byte
	u := uploaderFunc(func(_ context.Context, filename string, r io.Reader) (string, error) {
		assert.Equal(t, "meal.png", filename)
		got, _ = io.ReadAll(r)
		return "https://i.ibb.co/meal.png", nil
	})

	url, err := File(context.Background(), u, pngPath)
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/meal.png", url)
	assert.Equal(t, png, got)

	_, err = File(context.Background(), u, textPath)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = File(context.Background(), u, bigPath)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = File(context.Background(), u, filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
