package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nobita6986/Img-Gen/internal/builder"
	"github.com/nobita6986/Img-Gen/internal/config"
	"github.com/nobita6986/Img-Gen/internal/credentials"
	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
	"github.com/nobita6986/Img-Gen/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator は外部 API を呼ばずに固定の結果を返す ImageGenerator です。
type stubGenerator struct {
	generate func(prompt string) (generator.Image, error)
}

func (s *stubGenerator) GenerateWithReference(ctx context.Context, prompt string, ref domain.ReferenceImage) (generator.Image, error) {
	return s.generate(prompt)
}

func (s *stubGenerator) GenerateWithAspectRatio(ctx context.Context, prompt, aspectRatio string) (generator.Image, error) {
	return s.generate(prompt)
}

// stubNotifier は Slack への送信の代わりに呼び出しを記録します。
type stubNotifier struct {
	mu               sync.Mutex
	runFinishedCalls int
	credInvalidCalls int
	lastSummary      domain.RunSummary
}

func (s *stubNotifier) NotifyRunFinished(ctx context.Context, summary domain.RunSummary, req domain.NotificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runFinishedCalls++
	s.lastSummary = summary
	return nil
}

func (s *stubNotifier) NotifyCredentialInvalid(ctx context.Context, req domain.NotificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credInvalidCalls++
	return nil
}

func (s *stubNotifier) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runFinishedCalls, s.credInvalidCalls
}

func newTestHandler(t *testing.T, apiKey string, gen *stubGenerator) (*Handler, *stubNotifier) {
	t.Helper()

	cfg := &config.Config{
		ImageModel:  config.DefaultImageModel,
		Concurrency: 2,
		AspectRatio: config.DefaultAspectRatio,
	}
	creds := credentials.NewStore(filepath.Join(t.TempDir(), "credential"))
	if apiKey != "" {
		require.NoError(t, creds.Save(apiKey))
	}

	notifier := &stubNotifier{}
	appCtx := &builder.AppContext{
		Config:        cfg,
		Credentials:   creds,
		RunStore:      store.NewRunStore(nil),
		SlackNotifier: notifier,
		NewGenerator: func(ctx context.Context, apiKey string) (generator.ImageGenerator, error) {
			return gen, nil
		},
	}
	return NewHandler(appCtx), notifier
}

func postJSON(t *testing.T, h http.HandlerFunc, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/batch", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestStartBatch_RunsToCompletion(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{Data: []byte{0x01}, MimeType: "image/jpeg"}, nil
	}}
	h, notifier := newTestHandler(t, "test-api-key", gen)

	rec := postJSON(t, h.StartBatch, batchRequest{
		Items: []domain.PromptItem{
			{SequenceID: 1, Prompt: "a"},
			{SequenceID: 2, Prompt: "b"},
			{SequenceID: 3, Prompt: "c"},
		},
	})

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["total"])
	assert.Equal(t, float64(2), resp["concurrency"])
	assert.Equal(t, "batch / aspect-ratio", resp["mode"])
	assert.NotEmpty(t, resp["run_id"])

	// バックグラウンド実行の完了を待つ
	require.Eventually(t, func() bool {
		finished, _ := notifier.counts()
		return finished == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.False(t, h.appCtx.RunStore.Running())
	assert.Len(t, h.appCtx.RunStore.Results(), 3)
	assert.Equal(t, 3, notifier.lastSummary.Succeeded)
}

func TestStartBatch_RequiresAPIKey(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "", gen)

	rec := postJSON(t, h.StartBatch, batchRequest{
		Items: []domain.PromptItem{{SequenceID: 1, Prompt: "a"}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStartBatch_RejectsEmptyItems(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "test-api-key", gen)

	rec := postJSON(t, h.StartBatch, batchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartBatch_ConflictWhileRunning(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{Data: []byte{0x01}}, nil
	}}
	h, _ := newTestHandler(t, "test-api-key", gen)

	require.True(t, h.appCtx.RunStore.TryStartRun())

	rec := postJSON(t, h.StartBatch, batchRequest{
		Items: []domain.PromptItem{{SequenceID: 1, Prompt: "a"}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartBatch_InvalidCredentialNotifies(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, generator.ClassifyError(errors.New("API key not valid. Please pass a valid API key."))
	}}
	h, notifier := newTestHandler(t, "revoked-key", gen)

	rec := postJSON(t, h.StartBatch, batchRequest{
		Items: []domain.PromptItem{
			{SequenceID: 1, Prompt: "a"},
			{SequenceID: 2, Prompt: "b"},
		},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		_, invalid := notifier.counts()
		return invalid == 1
	}, 5*time.Second, 10*time.Millisecond)

	finished, _ := notifier.counts()
	assert.Zero(t, finished, "クレデンシャル無効時は完了通知を送らない")
}

func TestStartBatch_ReferenceModeRequiresImage(t *testing.T) {
	gen := &stubGenerator{generate: func(prompt string) (generator.Image, error) {
		return generator.Image{}, nil
	}}
	h, _ := newTestHandler(t, "test-api-key", gen)

	rec := postJSON(t, h.StartBatch, batchRequest{
		Items:        []domain.PromptItem{{SequenceID: 1, Prompt: "a"}},
		UseReference: true,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
