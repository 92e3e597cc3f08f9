package service

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
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransformer wraps the real transformer and counts calls.
type countingTransformer struct {
	next  Transformer
	calls atomic.Int64
}

func (c *countingTransformer) Transform(r io.Reader) ([]byte, error) {
	c.calls.Add(1)
	return c.next.Transform(r)
}

type failingObjectStorage struct{}

func (failingObjectStorage) Put(context.Context, storage.Object) error {
	return storage.ErrObjectExists
}

func (failingObjectStorage) PublicURL(key string) string { return "https://cdn.test/" + key }

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type mediaTestEnv struct {
	*serviceEnv
	dir         string
	transformer *countingTransformer
	svc         MediaService
	admin       capability.Identity
}

func setupMediaServiceTest(t *testing.T, opts MediaOptions) *mediaTestEnv {
	t.Helper()
	dir := t.TempDir()
	local, err := storage.NewLocalStorage(dir, "https://cdn.test/uploads")
	require.NoError(t, err)

	env := setupServiceTest(t, capability.WithObjectStorage(local))
	transformer := &countingTransformer{next: imaging.NewTransformer(64, 80)}
	return &mediaTestEnv{
		serviceEnv:  env,
		dir:         dir,
		transformer: transformer,
		svc:         NewMediaService(env.provider, transformer, env.metrics, opts),
		admin:       env.createUser(t, "admin@example.com", model.RoleAdmin),
	}
}

func defaultMediaOptions() MediaOptions {
	return MediaOptions{MaxUploadBytes: 1 << 20, SniffContent: true, CacheControl: "public, max-age=3600"}
}

func TestMediaService_IngestStoresUnderProduct(t *testing.T) {
	env := setupMediaServiceTest(t, defaultMediaOptions())
	productID := uint(42)

	result, err := env.svc.Ingest(context.Background(), env.admin, IngestInput{
		Data:         samplePNG(t, 200, 100),
		DeclaredType: "image/png",
		ProductID:    &productID,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Path, "42/"))
	assert.True(t, strings.HasSuffix(result.Path, ".jpg"))
	assert.Equal(t, "https://cdn.test/uploads/"+result.Path, result.URL)
	assert.Equal(t, "image/jpeg", result.ContentType)

	stored, err := os.ReadFile(filepath.Join(env.dir, filepath.FromSlash(result.Path)))
	require.NoError(t, err)
	assert.Equal(t, result.Size, len(stored))

	img, _, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 32, img.Height)

	// ingestion never marks views stale on its own
	assert.Empty(t, env.recorder.Paths())
}

func TestMediaService_SameBytesDistinctPaths(t *testing.T) {
	env := setupMediaServiceTest(t, defaultMediaOptions())
	data := samplePNG(t, 80, 80)
	ctx := context.Background()

	first, err := env.svc.Ingest(ctx, env.admin, IngestInput{Data: data, DeclaredType: "image/png"})
	require.NoError(t, err)
	second, err := env.svc.Ingest(ctx, env.admin, IngestInput{Data: data, DeclaredType: "image/png"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.True(t, strings.HasPrefix(first.Path, "temp/"))

	a, err := os.ReadFile(filepath.Join(env.dir, filepath.FromSlash(first.Path)))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(env.dir, filepath.FromSlash(second.Path)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMediaService_GatesRunBeforeTransform(t *testing.T) {
	env := setupMediaServiceTest(t, MediaOptions{MaxUploadBytes: 4 << 10, SniffContent: true})
	ctx := context.Background()
	pic := samplePNG(t, 8, 8)

	tests := []struct {
		name    string
		caller  capability.Identity
		input   IngestInput
		wantErr error
	}{
		{"no bytes", env.admin, IngestInput{DeclaredType: "image/png"}, apperrors.ErrNoFile},
		{"pdf declared", env.admin, IngestInput{Data: pic, DeclaredType: "application/pdf"}, apperrors.ErrUnsupportedType},
		{"svg declared", env.admin, IngestInput{Data: pic, DeclaredType: "image/svg+xml"}, apperrors.ErrUnsupportedType},
		{"empty declared", env.admin, IngestInput{Data: pic, DeclaredType: ""}, apperrors.ErrUnsupportedType},
		{"text sniffed", env.admin, IngestInput{Data: []byte("definitely not an image"), DeclaredType: "image/png"}, apperrors.ErrUnsupportedType},
		{"too large", env.admin, IngestInput{Data: bytes.Repeat([]byte{0xff}, 5<<10), DeclaredType: "image/jpeg"}, apperrors.ErrFileTooLarge},
		{"not admin", capability.Identity{UserID: 99, Role: "user"}, IngestInput{Data: pic, DeclaredType: "image/png"}, apperrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Ingest(ctx, tt.caller, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, int64(0), env.transformer.calls.Load())

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMediaService_DeclaredTypeIsNormalized(t *testing.T) {
	env := setupMediaServiceTest(t, defaultMediaOptions())

	_, err := env.svc.Ingest(context.Background(), env.admin, IngestInput{
		Data:         samplePNG(t, 10, 10),
		DeclaredType: "Image/PNG; name=photo.png",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.transformer.calls.Load())
}

func TestMediaService_SniffingDisabledTrustsDeclaredType(t *testing.T) {
	env := setupMediaServiceTest(t, MediaOptions{MaxUploadBytes: 1 << 20})

	_, err := env.svc.Ingest(context.Background(), env.admin, IngestInput{
		Data:         []byte("definitely not an image"),
		DeclaredType: "image/png",
	})
	assert.ErrorIs(t, err, apperrors.ErrTransform)
	assert.Equal(t, int64(1), env.transformer.calls.Load())
}

func TestMediaService_StoreFailureIsGeneric(t *testing.T) {
	env := setupServiceTest(t, capability.WithObjectStorage(failingObjectStorage{}))
	admin := env.createUser(t, "admin@example.com", model.RoleAdmin)
	svc := NewMediaService(env.provider, imaging.NewTransformer(64, 80), env.metrics, defaultMediaOptions())

	_, err := svc.Ingest(context.Background(), admin, IngestInput{Data: samplePNG(t, 10, 10), DeclaredType: "image/png"})
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.False(t, errors.Is(err, storage.ErrObjectExists))
	assert.Equal(t, 1.0, env.mutationCount(t, "media_ingest", "failure"))
}

func TestMediaService_PixelBudgetRejectsAsTransformFailure(t *testing.T) {
	env := setupMediaServiceTest(t, defaultMediaOptions())
	budgeted := imaging.NewTransformer(64, 80)
	budgeted.MaxPixels = 50 * 50
	env.transformer.next = budgeted

	_, err := env.svc.Ingest(context.Background(), env.admin, IngestInput{
		Data:         samplePNG(t, 100, 100),
		DeclaredType: "image/png",
	})
	assert.ErrorIs(t, err, apperrors.ErrTransform)

	entries, err := os.ReadDir(env.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
