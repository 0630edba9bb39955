package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nobita6986/Img-Gen/internal/domain"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-notifier/pkg/factory"
	"github.com/shouni/go-notifier/pkg/slack"
)

// --- インターフェース定義 ---

type SlackNotifier interface {
	NotifyRunFinished(ctx context.Context, summary domain.RunSummary, req domain.NotificationRequest) error
	NotifyCredentialInvalid(ctx context.Context, req domain.NotificationRequest) error
}

// --- 具象アダプター ---

type SlackAdapter struct {
	httpClient  httpkit.ClientInterface
	webhookURL  string
	slackClient *slack.Client
}

func NewSlackAdapter(httpClient httpkit.ClientInterface, webhookURL string) (*SlackAdapter, error) {
	if webhookURL == "" {
		return &SlackAdapter{webhookURL: webhookURL}, nil
	}
	client, err := factory.GetSlackClient(httpClient)
	if err != nil {
		return nil, fmt.Errorf("Slackクライアントの初期化に失敗したのだ: %w", err)
	}

	return &SlackAdapter{
		httpClient:  httpClient,
		webhookURL:  webhookURL,
		slackClient: client,
	}, nil
}

// NotifyRunFinished バッチ実行完了時のサマリー通知送信。
func (a *SlackAdapter) NotifyRunFinished(ctx context.Context, summary domain.RunSummary, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.Info("Slackクライアントが初期化されていないため、通知をスキップします。", "run_id", summary.RunID)
		return nil
	}

	title := fmt.Sprintf("🎨 バッチ生成が完了しました！ (成功 %d / %d)", summary.Succeeded, summary.Total)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*実行ID:* `%s`\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("*実行モード:* `%s`\n\n", req.ExecutionMode))
	sb.WriteString(fmt.Sprintf("✅ *成功:* %d 件\n", summary.Succeeded))
	sb.WriteString(fmt.Sprintf("❌ *失敗:* %d 件\n", summary.Failed))
	if summary.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("⏭️ *スキップ:* %d 件\n", summary.Skipped))
	}

	if err := a.slackClient.SendTextWithHeader(ctx, title, sb.String()); err != nil {
		return fmt.Errorf("Slackへの投稿に失敗しました: %w", err)
	}

	slog.Info("Slack に完了通知を送信しました。", "run_id", summary.RunID)
	return nil
}

// NotifyCredentialInvalid APIキー無効の終端通知送信。通常の完了通知の代わりに呼ばれます。
func (a *SlackAdapter) NotifyCredentialInvalid(ctx context.Context, req domain.NotificationRequest) error {
	if a.slackClient == nil {
		slog.Info("Slackクライアントが初期化されていないため、エラー通知をスキップします。")
		return nil
	}

	title := "🔑 APIキーが無効です"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*対象:* `%s`\n", req.TargetTitle))
	sb.WriteString(fmt.Sprintf("*実行モード:* `%s`\n\n", req.ExecutionMode))
	sb.WriteString("Gemini API がクレデンシャルを拒否しました。未開始のアイテムはスキップされています。\n")
	sb.WriteString("新しい API キーを登録してから再実行してください。")

	if err := a.slackClient.SendTextWithHeader(ctx, title, sb.String()); err != nil {
		return fmt.Errorf("Slackへのエラー通知に失敗しました: %w", err)
	}

	slog.Info("Slack にクレデンシャル無効通知を送信しました。")
	return nil
}
