package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

// SaveCredential は API キーを登録します。
func (h *Handler) SaveCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if strings.TrimSpace(req.APIKey) == "" {
		h.writeError(w, http.StatusBadRequest, "API キーは必須項目です")
		return
	}

	if err := h.appCtx.Credentials.Save(req.APIKey); err != nil {
		slog.ErrorContext(r.Context(), "クレデンシャルの保存に失敗しました", "error", err)
		h.writeError(w, http.StatusInternalServerError, "クレデンシャルの保存に失敗しました")
		return
	}

	slog.Info("API キーを更新しました")
	h.writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// CredentialStatus は登録状態を返します。キー本体は返しません（末尾4文字のみ）。
func (h *Handler) CredentialStatus(w http.ResponseWriter, r *http.Request) {
	key, err := h.appCtx.ResolveAPIKey()
	if err != nil {
		slog.ErrorContext(r.Context(), "クレデンシャルの読み込みに失敗しました", "error", err)
		h.writeError(w, http.StatusInternalServerError, "クレデンシャルの読み込みに失敗しました")
		return
	}

	resp := map[string]any{"configured": key != ""}
	if len(key) > 4 {
		resp["suffix"] = key[len(key)-4:]
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// DeleteCredential は登録済みの API キーを削除し、未認証状態へ戻します。
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.appCtx.Credentials.Clear(); err != nil {
		slog.ErrorContext(r.Context(), "クレデンシャルの削除に失敗しました", "error", err)
		h.writeError(w, http.StatusInternalServerError, "クレデンシャルの削除に失敗しました")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
