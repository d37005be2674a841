package diffusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestGenerateWithMetadata(t *testing.T) {
	reqs := make(chan txt2imgRequest, 1)
	encoded := pngBase64(t, 512, 512)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != txt2imgPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body txt2imgRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		reqs <- body
		_ = json.NewEncoder(w).Encode(map[string]any{"images": []string{encoded}, "info": "{}"})
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := New(srv.URL, filepath.Join(dir, "out"), httpx.New(httpx.Options{Timeout: 5 * time.Second}))

	res, err := g.GenerateWithMetadata(context.Background(), "white Ioniq 6, studio", domain.GenerationParams{NumInferenceSteps: 20})
	require.NoError(t, err)

	got := <-reqs
	assert.Equal(t, "white Ioniq 6, studio", got.Prompt)
	assert.Equal(t, 20, got.Steps)
	assert.Equal(t, 7.5, got.CFGScale)
	assert.EqualValues(t, -1, got.Seed)
	assert.Equal(t, domain.DefaultNegativePrompt, got.NegativePrompt)

	assert.Regexp(t, `sd_generated_[0-9a-f]{8}\.png$`, res.ImagePath)
	_, err = os.Stat(res.ImagePath)
	require.NoError(t, err)

	f, err := os.Open(res.ThumbnailPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, thumbnailSize, cfg.Width)

	assert.Equal(t, 1024, res.GenerationParams.Width)
	assert.Equal(t, domain.DefaultNegativePrompt, res.NegativePrompt)
}

func TestGenerateWithMetadata_Errors(t *testing.T) {
	ctx := context.Background()
	client := httpx.New(httpx.Options{Timeout: time.Second})

	t.Run("not configured", func(t *testing.T) {
		_, err := New("", t.TempDir(), client).GenerateWithMetadata(ctx, "p", domain.GenerationParams{})
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})

	tests := []struct {
		name   string
		status int
		body   string
		want   domain.ErrorKind
	}{
		{name: "bad status", status: http.StatusUnprocessableEntity, body: `{"detail":"bad prompt"}`, want: domain.KindCallFailure},
		{name: "no images", status: http.StatusOK, body: `{"images":[]}`, want: domain.KindUnparseable},
		{name: "not base64", status: http.StatusOK, body: `{"images":["***"]}`, want: domain.KindUnparseable},
		{name: "not an image", status: http.StatusOK, body: `{"images":["aGVsbG8="]}`, want: domain.KindUnparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, t.TempDir(), client).GenerateWithMetadata(ctx, "p", domain.GenerationParams{})
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.KindOf(err))
		})
	}
}
