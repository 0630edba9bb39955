package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
	"github.com/nobita6986/Img-Gen/internal/runner"
)

type singleRequest struct {
	Prompt       string `json:"prompt"`
	AspectRatio  string `json:"aspect_ratio"`
	UseReference bool   `json:"use_reference"`
}

// GenerateSingle は単発の生成リクエストを処理します。
// バッチと同じリトライポリシーを適用し、結果を同期的に返します。
// クレデンシャル無効の場合は共有フラグを介さず、直接通知パスを起動します。
func (h *Handler) GenerateSingle(w http.ResponseWriter, r *http.Request) {
	var req singleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, http.StatusBadRequest, "プロンプトは必須項目です")
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

	gen, _, err := h.buildGenerateFunc(r.Context(), apiKey, req.AspectRatio, req.UseReference)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	single := runner.NewSingleRunner(runner.DefaultRetryPolicy(), h.appCtx.RunStore)
	item := domain.PromptItem{SequenceID: 0, Prompt: req.Prompt}

	img, err := single.Generate(r.Context(), item, gen)
	if err != nil {
		switch {
		case generator.IsInvalidCredential(err):
			// 単発パスでは共有フラグを使わず、そのまま通知パスへ流す
			h.notifyRunResult(r.Context(), domain.RunSummary{InvalidCredential: true}, "single")
			h.writeError(w, http.StatusUnauthorized, "API キーが拒否されました。新しいキーを登録してください")
		case generator.IsRateLimited(err):
			h.writeError(w, http.StatusTooManyRequests, "レート制限によりリトライ上限に達しました")
		default:
			slog.ErrorContext(r.Context(), "単発生成に失敗しました", "error", err)
			h.writeError(w, http.StatusBadGateway, "画像の生成に失敗しました")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"image_data": base64.StdEncoding.EncodeToString(img.Data),
		"mime_type":  img.MimeType,
	})
}
