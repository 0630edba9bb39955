package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nobita6986/Img-Gen/internal/adapters"
	"github.com/nobita6986/Img-Gen/internal/config"
	"github.com/nobita6986/Img-Gen/internal/credentials"
	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
	"github.com/nobita6986/Img-Gen/internal/sse"
	"github.com/nobita6986/Img-Gen/internal/store"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// GeneratorFactory は API キーから画像生成クライアントを構築します。
// キーはユーザーが実行時に差し替えるため、起動時ではなくリクエスト時に構築します。
type GeneratorFactory func(ctx context.Context, apiKey string) (generator.ImageGenerator, error)

// AppContext はアプリケーションの依存関係を保持します。
// 各フィールドをインターフェースで定義することで、将来的なモック利用を容易にします。
type AppContext struct {
	Config        *config.Config
	Credentials   *credentials.Store
	RunStore      *store.RunStore
	Hub           *sse.Hub
	SlackNotifier adapters.SlackNotifier
	HTTPClient    httpkit.ClientInterface
	NewGenerator  GeneratorFactory
}

// BuildAppContext は外部サービスとの接続を確立し、依存関係を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	// 1. 基盤クライアントの初期化
	httpClient := httpkit.New(config.DefaultHTTPTimeout)

	// 2. SSE ハブと実行ストアの初期化
	hub := sse.NewHub()
	runStore := store.NewRunStore(func(ev domain.RunEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			slog.Error("実行イベントのシリアライズに失敗しました", "error", err)
			return
		}
		hub.Publish(data)
	})

	// 3. クレデンシャルストアの初期化
	creds := credentials.NewStore(cfg.CredentialFile)

	// 4. アダプターの初期化
	slack, err := adapters.NewSlackAdapter(httpClient, cfg.SlackWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Slack adapter: %w", err)
	}

	return &AppContext{
		Config:        cfg,
		Credentials:   creds,
		RunStore:      runStore,
		Hub:           hub,
		SlackNotifier: slack,
		HTTPClient:    httpClient,
		NewGenerator: func(ctx context.Context, apiKey string) (generator.ImageGenerator, error) {
			return generator.NewGeminiClient(ctx, apiKey, cfg.ImageModel)
		},
	}, nil
}

// ResolveAPIKey は利用すべき API キーを解決します。
// ユーザーが登録したキーを優先し、無ければ環境変数由来の初期キーを使用します。
// どちらも無い場合は空文字列（未認証状態）を返します。
func (a *AppContext) ResolveAPIKey() (string, error) {
	key, err := a.Credentials.Load()
	if err != nil {
		return "", err
	}
	if key != "" {
		return key, nil
	}
	return a.Config.GeminiAPIKey, nil
}
