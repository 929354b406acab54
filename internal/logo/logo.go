// Package logo prepares a company logo for upload: fetch, downsize, encode
// as WebP and post it to the API.
package logo

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

const (
	maxSourceBytes = 5 << 20
	webpQuality    = 85
	uploadName     = "logo.webp"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func AllowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(name))]
}

// Normalize decodes png/jpeg/webp, scales it so neither side exceeds
// maxSide and encodes the result as WebP.
func Normalize(r io.Reader, maxSide int) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, httperr.ErrBusinessMsg("logo_unreadable", "Não foi possível ler a imagem")
	}

	img = fit(img, maxSide)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// CompanyAPI uploads the prepared file. *apiclient.CompanyService satisfies it.
type CompanyAPI interface {
	UploadLogo(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CompanyCache is the cached company the new URL is merged into.
type CompanyCache interface {
	CurrentCompany() *models.Company
	UpdateCompany(ctx context.Context, company *models.Company) error
}

type Uploader struct {
	api     CompanyAPI
	cache   CompanyCache
	maxSide int
	log     *zap.Logger
}

func NewUploader(api CompanyAPI, cache CompanyCache, maxSide int, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{api: api, cache: cache, maxSide: maxSide, log: log}
}

// Upload reads src, normalizes it and posts it as multipart field "file".
// It returns the new logo URL.
func (u *Uploader) Upload(ctx context.Context, src Source) (string, error) {
	rc, name, err := src.Open(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if !AllowedExtension(name) {
		return "", httperr.ErrBusinessMsg("logo_invalid_type", "Formato não permitido. Use JPG, PNG ou WEBP")
	}

	data, err := io.ReadAll(io.LimitReader(rc, maxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("read logo: %w", err)
	}
	if len(data) > maxSourceBytes {
		return "", httperr.ErrBusinessMsg("logo_too_large", "Arquivo muito grande. Máximo 5MB")
	}

	encoded, err := Normalize(bytes.NewReader(data), u.maxSide)
	if err != nil {
		return "", err
	}

	logoURL, err := u.api.UploadLogo(ctx, uploadName, bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}

	u.log.Info("logo uploaded",
		zap.String("source", name),
		zap.Int("bytes", len(encoded)),
		zap.String("logo_url", logoURL),
	)

	if u.cache != nil {
		if cur := u.cache.CurrentCompany(); cur != nil {
			updated := *cur
			updated.LogoURL = logoURL
			if err := u.cache.UpdateCompany(ctx, &updated); err != nil {
				u.log.Warn("failed to cache logo url", zap.Error(err))
			}
		}
	}
	return logoURL, nil
}
