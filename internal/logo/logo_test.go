package logo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeDownsizesAndEncodesWebP(t *testing.T) {
	out, err := Normalize(bytes.NewReader(pngBytes(t, 800, 400)), 200)
	require.NoError(t, err)

	img, err := webp.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	out, err := Normalize(bytes.NewReader(pngBytes(t, 64, 32)), 512)
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize(bytes.NewReader([]byte("not an image")), 100)
	assert.True(t, httperr.IsBusiness(err, "logo_unreadable"))
}

type fakeS3 struct {
	body []byte
	in   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.in = in
	if f.body == nil {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestParseSource(t *testing.T) {
	fake := &fakeS3{}
	newS3 := func() S3API { return fake }

	src, err := ParseSource("s3://brand-assets/empresas/4/logo.png", newS3)
	require.NoError(t, err)
	s3src, ok := src.(S3Source)
	require.True(t, ok)
	assert.Equal(t, "brand-assets", s3src.Bucket)
	assert.Equal(t, "empresas/4/logo.png", s3src.Key)

	src, err = ParseSource("./logo.png", newS3)
	require.NoError(t, err)
	assert.Equal(t, FileSource{Path: "./logo.png"}, src)

	_, err = ParseSource("s3://only-bucket", newS3)
	assert.True(t, httperr.IsBusiness(err, "logo_invalid_ref"))

	_, err = ParseSource("  ", newS3)
	assert.True(t, httperr.IsBusiness(err, "logo_missing"))
}

type fakeCompanyAPI struct {
	filename string
	body     []byte
}

func (f *fakeCompanyAPI) UploadLogo(_ context.Context, filename string, r io.Reader) (string, error) {
	f.filename = filename
	f.body, _ = io.ReadAll(r)
	return "/uploads/logos/4.webp", nil
}

type fakeCache struct {
	company *models.Company
}

func (f *fakeCache) CurrentCompany() *models.Company { return f.company }

func (f *fakeCache) UpdateCompany(_ context.Context, c *models.Company) error {
	f.company = c
	return nil
}

func TestUploadFromS3MergesURL(t *testing.T) {
	fake := &fakeS3{body: pngBytes(t, 1024, 1024)}
	api := &fakeCompanyAPI{}
	cache := &fakeCache{company: &models.Company{ID: 4, Name: "Loja"}}

	u := NewUploader(api, cache, 256, zaptest.NewLogger(t))
	got, err := u.Upload(context.Background(), S3Source{Client: fake, Bucket: "b", Key: "k/logo.png"})
	require.NoError(t, err)

	assert.Equal(t, "/uploads/logos/4.webp", got)
	assert.Equal(t, "b", aws.ToString(fake.in.Bucket))
	assert.Equal(t, "logo.webp", api.filename)

	cfg, err := webp.DecodeConfig(bytes.NewReader(api.body))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)

	assert.Equal(t, "/uploads/logos/4.webp", cache.company.LogoURL)
	assert.Equal(t, "Loja", cache.company.Name)
}

func TestUploadRejectsExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logo.gif")
	require.NoError(t, os.WriteFile(p, []byte("GIF89a"), 0o600))

	_, err := NewUploader(&fakeCompanyAPI{}, nil, 256, nil).Upload(context.Background(), FileSource{Path: p})
	assert.True(t, httperr.IsBusiness(err, "logo_invalid_type"))
}
