package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nobita6986/Img-Gen/internal/archive"

	"github.com/go-chi/chi/v5"
)

// ListResults は生成済みの結果を STT 昇順で返します。
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results := h.appCtx.RunStore.Results()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// DeleteResult は指定された STT の結果を削除します。
func (h *Handler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	stt, err := strconv.Atoi(chi.URLParam(r, "stt"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "STT は整数で指定してください")
		return
	}

	if !h.appCtx.RunStore.DeleteResult(stt) {
		h.writeError(w, http.StatusNotFound, "指定された結果が見つかりません")
		return
	}

	slog.Info("結果を削除しました", "stt", stt)
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListLogs は実行ログを新しい順で返します。
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs := h.appCtx.RunStore.Logs()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

type exportRequest struct {
	// SequenceIDs は書き出す結果の STT 群です。
	SequenceIDs []int `json:"stts"`
}

// ExportResults は選択された結果を1つの zip アーカイブとしてダウンロードさせます。
// エントリ名は "{STT}_{サニタイズ済みプロンプト}.jpg" です。
func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	if len(req.SequenceIDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "書き出す結果が選択されていません")
		return
	}

	results := h.appCtx.RunStore.ResultsBySequenceIDs(req.SequenceIDs)
	if len(results) == 0 {
		h.writeError(w, http.StatusNotFound, "指定された結果が見つかりません")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="img-gen-results.zip"`)

	if err := archive.Write(w, results); err != nil {
		// ヘッダー送出後のためステータスは変更できない。ログのみ残す。
		slog.ErrorContext(r.Context(), "アーカイブの書き出しに失敗しました", "error", err)
		return
	}

	slog.Info("アーカイブを書き出しました", "entries", len(results))
}
