package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestServer returns a server with a silent logger and a small scene.
func newTestServer() *Server {
	return NewServer(Config{
		CORSOrigin:   "*",
		MaxUploadMB:  5,
		TimeoutSec:   10,
		SceneWidth:   1000,
		SceneHeight:  500,
		OutputHeight: 64,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// createTestImage returns a solid w x h image.
func createTestImage(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

// createMultipartRequest builds a POST with an "image" file part plus fields.
func createMultipartRequest(t *testing.T, url string, img image.Image, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if img != nil {
		part, err := mw.CreateFormFile("image", "test.png")
		require.NoError(t, err)
		require.NoError(t, png.Encode(part, img))
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// postJSON runs a JSON POST through h and returns the recorder.
func postJSON(t *testing.T, h http.Handler, url string, v any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}
