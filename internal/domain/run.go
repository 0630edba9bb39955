package domain

// RunSummary は、1回のバッチ実行が完了したときの集計結果です。
type RunSummary struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	// Skipped は、クレデンシャル無効化により開始されずにスキップされた件数です。
	Skipped int `json:"skipped"`
	// InvalidCredential が true の場合、通常の完了通知の代わりに
	// クレデンシャル無効の終端通知が行われます。
	InvalidCredential bool `json:"invalid_credential"`
}

// RunEvent の種別。SSE で配信されるイベントのエンベロープに使用します。
const (
	EventResultAdded = "result"
	EventLogAdded    = "log"
	EventRunFinished = "finished"
)

// RunEvent は、実行の進捗をフロントエンドへ伝えるイベントです。
// Type に応じて Result / Log / Summary のいずれか1つが設定されます。
type RunEvent struct {
	Type    string            `json:"type"`
	Result  *GenerationResult `json:"result,omitempty"`
	Log     *LogEntry         `json:"log,omitempty"`
	Summary *RunSummary       `json:"summary,omitempty"`
}
