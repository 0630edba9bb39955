package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/spreadsheet"
)

// UploadPrompts はスプレッドシートを受け取り、プロンプト一覧に変換して返します。
// 必須列 (STT, Prompt) を欠く行は捨てられます。
func (h *Handler) UploadPrompts(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.appCtx.Config.MaxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "マルチパートフォームの解析に失敗しました", "error", err)
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "ファイル (file) は必須項目です")
		return
	}
	defer file.Close()

	items, err := spreadsheet.Parse(file, header.Filename)
	if err != nil {
		slog.WarnContext(r.Context(), "スプレッドシートの解析に失敗しました", "filename", header.Filename, "error", err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.Info("スプレッドシートを読み込みました", "filename", header.Filename, "count", len(items))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// UploadReference は参照画像を受け取り、以降の生成リクエストで共用します。
func (h *Handler) UploadReference(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.appCtx.Config.MaxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "マルチパートフォームの解析に失敗しました", "error", err)
		h.writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "画像 (image) は必須項目です")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "参照画像の読み込みに失敗しました", "error", err)
		h.writeError(w, http.StatusInternalServerError, "参照画像の読み込みに失敗しました")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	h.appCtx.RunStore.SetReference(domain.ReferenceImage{
		Data:     data,
		MimeType: mimeType,
		Filename: header.Filename,
	})

	slog.Info("参照画像を登録しました", "filename", header.Filename, "bytes", len(data), "mime_type", mimeType)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"filename":  header.Filename,
		"mime_type": mimeType,
		"bytes":     len(data),
	})
}

// DeleteReference は登録済みの参照画像を破棄します。
func (h *Handler) DeleteReference(w http.ResponseWriter, r *http.Request) {
	h.appCtx.RunStore.ClearReference()
	h.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
