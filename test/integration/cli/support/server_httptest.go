package support

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/quadwarp/internal/server"
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// startTestHTTPServer starts an in-process API server.
func (testCtx *TestContext) startTestHTTPServer(cfg server.Config) error {
	if testCtx.HTTPTestServer != nil {
		testCtx.stopTestHTTPServer()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.OutputHeight == 0 {
		cfg.OutputHeight = 64
	}

	srv := server.NewServer(cfg)
	testCtx.HTTPTestServer = &HTTPTestServerWrapper{
		Server:     httptest.NewServer(srv.Handler()),
		TestServer: srv,
	}
	return nil
}

func (testCtx *TestContext) stopTestHTTPServer() {
	if testCtx.HTTPTestServer != nil {
		testCtx.HTTPTestServer.Server.Close()
		testCtx.HTTPTestServer = nil
	}
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("test server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

// doRequest sends req and records status, body and headers.
func (testCtx *TestContext) doRequest(req *http.Request) error {
	resp, err := testCtx.HTTPTestServer.Server.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for name := range resp.Header {
		testCtx.LastHTTPHeaders[name] = resp.Header.Get(name)
	}
	return nil
}

func (testCtx *TestContext) sendRequest(method, path, contentType string, body io.Reader) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return testCtx.doRequest(req)
}

// uploadImage posts an image with form fields to /v1/warp.
func (testCtx *TestContext) uploadImage(imageName string, fields map[string]string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	path := testCtx.resolvePath(imageName)
	data, err := os.ReadFile(path) //nolint:gosec // G304: scenario fixture
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", imageName, err)
	}
	part, err := mw.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return testCtx.sendRequest(http.MethodPost, "/v1/warp", mw.FormDataContentType(), &buf)
}

func (testCtx *TestContext) postJSON(path, body string) error {
	return testCtx.sendRequest(http.MethodPost, path, "application/json", strings.NewReader(body))
}
