// Package diffusion implements ports.ImageGenerator against a Stable
// Diffusion server exposing the txt2img REST endpoint. Generated images are
// written to a local directory together with a thumbnail.
package diffusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/httpx"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/model"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	txt2imgPath   = "/sdapi/v1/txt2img"
	thumbnailSize = 256
	maxBody       = 64 << 20
)

// Generator renders images through a remote diffusion server. Renders are
// serialized: the server holds a single pipeline.
type Generator struct {
	handle    *model.Handle[string]
	outputDir string
	http      *httpx.Client
	logger    *slog.Logger
}

var _ ports.ImageGenerator = (*Generator)(nil)

type Option func(*Generator)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator for the server at baseURL writing into outputDir.
func New(baseURL, outputDir string, client *httpx.Client, opts ...Option) *Generator {
	g := &Generator{outputDir: outputDir, http: client, logger: logging.NewNop()}
	for _, o := range opts {
		o(g)
	}

	base := strings.TrimRight(baseURL, "/")
	g.handle = model.NewHandle("stable-diffusion", func(ctx context.Context) (string, error) {
		if base == "" {
			return "", errors.New("diffusion server not configured")
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", err
		}
		return base, nil
	})
	return g
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Seed           int64   `json:"seed"`
}

// GenerateWithMetadata renders prompt and saves it as a PNG. Zero params
// take the defaults.
func (g *Generator) GenerateWithMetadata(ctx context.Context, prompt string, params domain.GenerationParams) (*domain.ImageResult, error) {
	params = params.WithDefaults()

	var result *domain.ImageResult
	err := g.handle.With(ctx, func(base string) error {
		data, err := g.render(ctx, base, prompt, params)
		if err != nil {
			return err
		}
		result, err = g.save(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Prompt = prompt
	result.NegativePrompt = params.NegativePrompt
	result.GenerationParams = params
	g.logger.Info("image generated", "path", result.ImagePath, "steps", params.NumInferenceSteps)
	return result, nil
}

func (g *Generator) render(ctx context.Context, base, prompt string, params domain.GenerationParams) ([]byte, error) {
	seed := params.Seed
	if seed == 0 {
		seed = -1
	}
	body, err := json.Marshal(txt2imgRequest{
		Prompt:         prompt,
		NegativePrompt: params.NegativePrompt,
		Steps:          params.NumInferenceSteps,
		CFGScale:       params.GuidanceScale,
		Width:          params.Width,
		Height:         params.Height,
		Seed:           seed,
	})
	if err != nil {
		return nil, domain.CallFailed("txt2img", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+txt2imgPath, bytes.NewReader(body))
	if err != nil {
		return nil, domain.Unavailable("txt2img", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, httpx.Classify("txt2img", err)
	}
	raw, err := httpx.ReadBody(resp, maxBody)
	if err != nil {
		return nil, domain.CallFailed("txt2img", err)
	}
	if resp.StatusCode >= 300 {
		return nil, domain.CallFailed("txt2img", fmt.Errorf("status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "detail").String()))
	}

	img := gjson.GetBytes(raw, "images.0")
	if img.Type != gjson.String {
		return nil, domain.Unparseable("txt2img", errors.New("response has no images"))
	}
	data, err := base64.StdEncoding.DecodeString(img.String())
	if err != nil {
		return nil, domain.Unparseable("txt2img", err)
	}
	return data, nil
}

func (g *Generator) save(data []byte) (*domain.ImageResult, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Unparseable("save image", err)
	}

	name := "sd_generated_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	path := filepath.Join(g.outputDir, name+".png")
	if err := imaging.Save(img, path); err != nil {
		return nil, domain.CallFailed("save image", err)
	}

	res := &domain.ImageResult{ImagePath: path}
	thumb := imaging.Fit(img, thumbnailSize, thumbnailSize, imaging.Lanczos)
	thumbPath := filepath.Join(g.outputDir, name+"_thumb.png")
	if err := imaging.Save(thumb, thumbPath); err != nil {
		g.logger.Warn("failed to save thumbnail", "path", thumbPath, "error", err)
	} else {
		res.ThumbnailPath = thumbPath
	}
	return res, nil
}
