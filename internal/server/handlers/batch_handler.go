package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
	"github.com/nobita6986/Img-Gen/internal/runner"

	"github.com/google/uuid"
)

type batchRequest struct {
	Items []domain.PromptItem `json:"items"`
	// Concurrency は1チャンクあたりの同時リクエスト数です。0 以下なら設定値を使用します。
	Concurrency int `json:"concurrency"`
	AspectRatio string `json:"aspect_ratio"`
	// UseReference が true の場合、アップロード済みの参照画像を全アイテムに適用します。
	UseReference bool `json:"use_reference"`
}

// StartBatch はバッチ実行を開始します。実行はバックグラウンドで進み、
// 進捗は /api/events の SSE で配信されます。同時に実行できるバッチは1つです。
func (h *Handler) StartBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "アイテムが空です。スプレッドシートをアップロードしてください")
		return
	}

	apiKey, err := h.appCtx.ResolveAPIKey()
	if err != nil {
		slog.ErrorContext(r.Context(), "クレデンシャルの読み込みに失敗しました", "error", err)
		h.writeError(w, http.StatusInternalServerError, "クレデンシャルの読み込みに失敗しました")
		return
	}
	if apiKey == "" {
		h.writeError(w, http.StatusUnauthorized, "API キーが未登録です")
		return
	}

	gen, mode, err := h.buildGenerateFunc(r.Context(), apiKey, req.AspectRatio, req.UseReference)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if !h.appCtx.RunStore.TryStartRun() {
		h.writeError(w, http.StatusConflict, "別のバッチが実行中です")
		return
	}

	concurrency := req.Concurrency
	if concurrency < 1 {
		concurrency = h.appCtx.Config.Concurrency
	}

	runID := uuid.NewString()[:8]
	batch := runner.NewBatchRunner(concurrency, runner.DefaultRetryPolicy(), h.appCtx.RunStore)

	// 実行開始時に前回の結果とログを破棄する
	h.appCtx.RunStore.Reset()

	items := req.Items
	go func() {
		// リクエストコンテキストはレスポンス送出と同時に破棄されるため、
		// バックグラウンド実行には独立したコンテキストを使用する。
		ctx := context.Background()
		summary := batch.Run(ctx, runID, items, gen)
		h.notifyRunResult(ctx, summary, mode)
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":      runID,
		"total":       len(items),
		"concurrency": concurrency,
		"mode":        mode,
	})
}

// buildGenerateFunc は生成クライアントを構築し、モードに応じた GenerateFunc を返します。
func (h *Handler) buildGenerateFunc(ctx context.Context, apiKey, aspectRatio string, useReference bool) (runner.GenerateFunc, string, error) {
	client, err := h.appCtx.NewGenerator(ctx, apiKey)
	if err != nil {
		return nil, "", fmt.Errorf("生成クライアントの初期化に失敗しました: %w", err)
	}

	if aspectRatio == "" {
		aspectRatio = h.appCtx.Config.AspectRatio
	}

	if useReference {
		ref, ok := h.appCtx.RunStore.Reference()
		if !ok {
			return nil, "", fmt.Errorf("参照画像が未登録です")
		}
		gen := func(ctx context.Context, item domain.PromptItem) (generator.Image, error) {
			return client.GenerateWithReference(ctx, item.Prompt, ref)
		}
		return gen, "batch / reference", nil
	}

	gen := func(ctx context.Context, item domain.PromptItem) (generator.Image, error) {
		return client.GenerateWithAspectRatio(ctx, item.Prompt, aspectRatio)
	}
	return gen, "batch / aspect-ratio", nil
}

// notifyRunResult は実行結果に応じた終端通知を行います。
// クレデンシャル無効の場合は通常の完了通知の代わりに専用の通知を送ります。
func (h *Handler) notifyRunResult(ctx context.Context, summary domain.RunSummary, mode string) {
	req := domain.NotificationRequest{
		OutputCategory: "batch-result",
		TargetTitle:    fmt.Sprintf("Run %s", summary.RunID),
		ExecutionMode:  mode,
	}

	if summary.InvalidCredential {
		req.OutputCategory = "credential-alert"
		if err := h.appCtx.SlackNotifier.NotifyCredentialInvalid(ctx, req); err != nil {
			slog.ErrorContext(ctx, "Notification failed", "error", err)
		}
		return
	}

	if err := h.appCtx.SlackNotifier.NotifyRunFinished(ctx, summary, req); err != nil {
		slog.ErrorContext(ctx, "Notification failed", "error", err)
	}
}
