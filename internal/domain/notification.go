package domain

// NotificationRequest は Slack 等の通知コンポーネントで共有されるデータ構造です。
// バッチ実行の結果サマリーを通知先に伝えるために使用します。
type NotificationRequest struct {
	// OutputCategory は、通知の種別です。(例: "batch-result", "credential-alert")
	OutputCategory string `json:"output_category"`

	// TargetTitle は、実行の識別名です。(例: "Run 20260829-ABCD")
	TargetTitle string `json:"target_title"`

	// ExecutionMode は、実行された生成モードです。(例: "batch / reference")
	ExecutionMode string `json:"execution_mode"`
}
