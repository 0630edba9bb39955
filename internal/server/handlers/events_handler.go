package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Events は SSE で実行イベント (result / log / finished) を配信します。
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "ストリーミングに対応していません")
		return
	}

	// SSE に必要なレスポンスヘッダー。プロキシにストリーミングとして扱わせる。
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// 接続専用のバッファ付き channel を用意して購読する。
	// Hub は channel を close しないため、購読解除後にこちらの責任で破棄する。
	msgCh := make(chan []byte, 16)
	h.appCtx.Hub.Subscribe(msgCh)
	defer h.appCtx.Hub.Unsubscribe(msgCh)

	// 初回ハンドシェイク兼キープアライブのコメント行
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	slog.Info("SSE クライアントが接続しました", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE クライアントが切断しました", "remote", r.RemoteAddr)
			return
		case msg := <-msgCh:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
