package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nobita6986/Img-Gen/internal/builder"
)

// Handler はフロントエンド向け JSON API のハンドラー群です。
type Handler struct {
	appCtx *builder.AppContext
}

func NewHandler(appCtx *builder.AppContext) *Handler {
	return &Handler{appCtx: appCtx}
}

// Health はヘルスチェック応答を返します。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON は JSON レスポンスを書き込みます。
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

// writeError は統一形式のエラーレスポンスを書き込みます。
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
