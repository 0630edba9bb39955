package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nobita6986/Img-Gen/internal/generator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSingle_Success(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF}
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{Data: img, MimeType: "image/jpeg"}, nil
	}}
	h, _ := newTestHandler(t, "test-api-key", gen)

	rec := postJSON(t, h.GenerateSingle, singleRequest{Prompt: "a red cat"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, base64.StdEncoding.EncodeToString(img), resp["image_data"])
	assert.Equal(t, "image/jpeg", resp["mime_type"])
}

func TestGenerateSingle_RequiresPrompt(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "test-api-key", gen)

	rec := postJSON(t, h.GenerateSingle, singleRequest{Prompt: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSingle_InvalidCredential(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, generator.ClassifyError(errors.New("API key not valid. Please pass a valid API key."))
	}}
	h, notifier := newTestHandler(t, "revoked-key", gen)

	rec := postJSON(t, h.GenerateSingle, singleRequest{Prompt: "a red cat"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 単発パスは同期なので通知も同期で完了している
	_, invalid := notifier.counts()
	assert.Equal(t, 1, invalid)
}

func TestCredentialStatus_ReturnsSuffixOnly(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "AIzaSy-test-key-1234", gen)

	req := newGetRequest(t, "/api/credential")
	rec := doRequest(h.CredentialStatus, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["configured"])
	assert.Equal(t, "1234", resp["suffix"])
	assert.NotContains(t, rec.Body.String(), "AIzaSy-test-key-1234")
}

func TestCredentialStatus_Unconfigured(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "", gen)

	rec := doRequest(h.CredentialStatus, newGetRequest(t, "/api/credential"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["configured"])
}

func newGetRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func doRequest(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}
