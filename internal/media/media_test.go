package media

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"CampusEvents/internal/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	blobs map[primitive.ObjectID][]byte
	files map[primitive.ObjectID]*File
}

func newMemStore() *memStore {
	return &memStore{blobs: map[primitive.ObjectID][]byte{}, files: map[primitive.ObjectID]*File{}}
}

func (m *memStore) Put(_ context.Context, name, contentType string, r io.Reader) (primitive.ObjectID, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return primitive.NilObjectID, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.blobs[id] = data
	m.files[id] = &File{ID: id, Name: name, ContentType: contentType, Length: int64(len(data))}
	return id, nil
}

func (m *memStore) Open(_ context.Context, id primitive.ObjectID) (io.ReadCloser, *File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[id]
	if !ok {
		return nil, nil, nil
	}
	return io.NopCloser(bytes.NewReader(data)), m.files[id], nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func newServer(maxBytes int64) (*echo.Echo, *memStore) {
	store := newMemStore()
	svc := NewMediaService(store, &config.AppConfig{UploadMaxBytes: maxBytes}, zap.NewNop())
	h := NewMediaHandler(svc, zap.NewNop())
	e := echo.New()
	e.POST("/api/upload/image", h.Upload)
	e.GET("/api/images/:id", h.Image)
	return e, store
}

func post(e *echo.Echo, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUploadThenServe(t *testing.T) {
	e, _ := newServer(1 << 20)
	data := pngBytes(t)

	body, ct := multipartBody(t, "file", "poster.png", data)
	rec := post(e, body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"filePath":"/api/images/`)

	var out Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	req := httptest.NewRequest(http.MethodGet, out.FilePath, nil)
	got := httptest.NewRecorder()
	e.ServeHTTP(got, req)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "image/png", got.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "nosniff", got.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Contains(t, got.Header().Get(echo.HeaderContentSecurityPolicy), "default-src 'none'")
	assert.Equal(t, data, got.Body.Bytes())
}

func TestUploadRejections(t *testing.T) {
	e, store := newServer(40)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("just some text, not an image"))
	assert.Equal(t, http.StatusBadRequest, post(e, body, ct).Code)

	body, ct = multipartBody(t, "file", "big.png", pngBytes(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(e, body, ct).Code)

	body, ct = multipartBody(t, "other", "poster.png", pngBytes(t))
	assert.Equal(t, http.StatusBadRequest, post(e, body, ct).Code)

	assert.Empty(t, store.blobs)
}

func TestUpload_RejectsSVG(t *testing.T) {
	e, store := newServer(1 << 20)
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" onload="alert(document.cookie)"><script>fetch('/api/auth/me')</script></svg>`)

	body, ct := multipartBody(t, "file", "poster.svg", svg)
	rec := post(e, body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Empty(t, store.blobs)
}

func TestImage_StoredNonRasterServedAsOctetStream(t *testing.T) {
	e, store := newServer(0)
	id, err := store.Put(context.Background(), "legacy.svg", "image/svg+xml", bytes.NewReader([]byte("<svg/>")))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path(id), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
}

func TestImage_NotFoundAndBadID(t *testing.T) {
	e, _ := newServer(0)

	for path, want := range map[string]int{
		"/api/images/" + primitive.NewObjectID().Hex(): http.StatusNotFound,
		"/api/images/nothex":                           http.StatusBadRequest,
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
