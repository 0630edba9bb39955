package domain

// Severity はログエントリの重要度です。
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// LogEntry は1回の実行における監査ログです。追記専用で、表示は新しい順になります。
type LogEntry struct {
	// ID は実行内で単調増加する識別子です。
	ID       int64    `json:"id"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
