package server

import (
	"net/http"

	"github.com/nobita6986/Img-Gen/internal/builder"
	"github.com/nobita6986/Img-Gen/internal/config"
	"github.com/nobita6986/Img-Gen/internal/server/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter は、ミドルウェアとルーティングを統合した http.Handler を構築します。
func NewRouter(cfg *config.Config, appCtx *builder.AppContext) http.Handler {
	r := chi.NewRouter()

	setupCommonMiddleware(r)
	setupRoutes(r, handlers.NewHandler(appCtx))

	return r
}

func setupCommonMiddleware(r *chi.Mux) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
}

func setupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/healthz", h.Health)

	// --- フロントエンド向け JSON API ---
	r.Route("/api", func(r chi.Router) {
		// クレデンシャル管理 (localStorage 相当の単一キー)
		r.Route("/credential", func(r chi.Router) {
			r.Put("/", h.SaveCredential)
			r.Get("/", h.CredentialStatus)
			r.Delete("/", h.DeleteCredential)
		})

		// スプレッドシート / 参照画像のアップロード
		r.Post("/prompts", h.UploadPrompts)
		r.Post("/reference", h.UploadReference)
		r.Delete("/reference", h.DeleteReference)

		// 生成 (単発 / バッチ)
		r.Post("/generate", h.GenerateSingle)
		r.Post("/batch", h.StartBatch)

		// 進捗イベントと結果の参照
		r.Get("/events", h.Events)
		r.Get("/results", h.ListResults)
		r.Delete("/results/{stt}", h.DeleteResult)
		r.Get("/logs", h.ListLogs)
		r.Post("/export", h.ExportResults)
	})
}
