package controller

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/storage"
	"github.com/ikkim/shopfront-backend/pkg/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBody builds a form with an optional file part carrying contentType.
func multipartBody(t *testing.T, fields map[string]string, data []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="ring.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type uploadEnv struct {
	*controllerEnv
	admin capability.Identity
	user  capability.Identity
}

func setupUploadTest(t *testing.T) *uploadEnv {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir(), "https://cdn.test/uploads")
	require.NoError(t, err)
	env := setupControllerTest(t, capability.WithObjectStorage(local))
	return &uploadEnv{
		controllerEnv: env,
		admin:         env.createUser(t, "admin@example.com", model.RoleAdmin),
		user:          env.createUser(t, "user@example.com", model.RoleUser),
	}
}

func (e *uploadEnv) router(caller capability.Identity, maxBytes int64) *gin.Engine {
	svc := service.NewMediaService(e.provider, imaging.NewTransformer(32, 80), nil, service.MediaOptions{
		MaxUploadBytes: maxBytes,
		SniffContent:   true,
	})
	router := newRouter(caller)
	router.POST("/admin/uploads", NewUploadController(svc, maxBytes).UploadImage)
	return router
}

func doUpload(t *testing.T, router http.Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadController_UploadImage(t *testing.T) {
	env := setupUploadTest(t)
	product := env.createProduct(t, "ring")

	productID := strconv.FormatUint(uint64(product.ID), 10)
	body, ct := multipartBody(t, map[string]string{"product_id": productID}, pngBytes(t), "image/png")
	w := doUpload(t, env.router(env.admin, 1<<20), body, ct)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	path := resp["path"].(string)
	assert.True(t, strings.HasPrefix(path, productID+"/"), path)
	assert.True(t, strings.HasSuffix(path, ".jpg"), path)
	assert.Equal(t, "https://cdn.test/uploads/"+path, resp["url"])
}

func TestUploadController_Rejections(t *testing.T) {
	env := setupUploadTest(t)

	tests := []struct {
		name   string
		caller capability.Identity
		max    int64
		fields map[string]string
		data   []byte
		ctype  string
		status int
		code   string
	}{
		{"no file", env.admin, 1 << 20, nil, nil, "", http.StatusBadRequest, apperrors.UploadNoFile},
		{"declared type not allowed", env.admin, 1 << 20, nil, pngBytes(t), "application/pdf", http.StatusBadRequest, apperrors.UploadInvalidFileType},
		{"content is not an image", env.admin, 1 << 20, nil, []byte("%PDF-1.4 fake"), "image/png", http.StatusBadRequest, apperrors.UploadInvalidFileType},
		{"too large", env.admin, 16, nil, pngBytes(t), "image/png", http.StatusBadRequest, apperrors.UploadFileTooLarge},
		{"bad product id", env.admin, 1 << 20, map[string]string{"product_id": "abc"}, pngBytes(t), "image/png", http.StatusBadRequest, apperrors.ValidationInvalidID},
		{"not admin", env.user, 1 << 20, nil, pngBytes(t), "image/png", http.StatusUnauthorized, apperrors.AuthzForbidden},
		{"anonymous", capability.Anonymous(), 1 << 20, nil, pngBytes(t), "image/png", http.StatusUnauthorized, apperrors.AuthUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.data, tt.ctype)
			w := doUpload(t, env.router(tt.caller, tt.max), body, ct)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["error"])
		})
	}
}
