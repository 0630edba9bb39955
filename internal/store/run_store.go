package store

import (
	"sort"
	"sync"

	"github.com/nobita6986/Img-Gen/internal/domain"
)

// RunStore は1セッション分の実行状態をメモリ上に保持します。
// 結果・ログ・参照画像・実行中フラグを持ち、runner の EventSink としても機能します。
// 永続化は行いません。プロセス終了とともに破棄されます。
type RunStore struct {
	mu        sync.Mutex
	results   []domain.GenerationResult
	logs      []domain.LogEntry // 先頭が最新 (新しい順)
	nextLogID int64
	reference *domain.ReferenceImage
	running   bool

	// publish は実行イベントを SSE 等へ転送するフックです。nil の場合は何もしません。
	publish func(ev domain.RunEvent)
}

func NewRunStore(publish func(ev domain.RunEvent)) *RunStore {
	return &RunStore{publish: publish}
}

// TryStartRun は実行中でなければ実行中フラグを立てて true を返します。
// 同時に実行できるバッチは1つだけです。
func (s *RunStore) TryStartRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Running は実行中かどうかを返します。
func (s *RunStore) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reset は前回の実行の結果とログを破棄します。バッチ開始時に呼ばれます。
func (s *RunStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	s.logs = nil
	s.nextLogID = 0
}

// --- runner.EventSink 実装 ---

// ResultAdded は成功した生成結果を追加し、イベントを配信します。
func (s *RunStore) ResultAdded(res domain.GenerationResult) {
	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()

	s.emit(domain.RunEvent{Type: domain.EventResultAdded, Result: &res})
}

// Log は単調増加 ID を払い出してログを先頭に追記し、イベントを配信します。
func (s *RunStore) Log(severity domain.Severity, message string) {
	s.mu.Lock()
	s.nextLogID++
	entry := domain.LogEntry{
		ID:       s.nextLogID,
		Message:  message,
		Severity: severity,
	}
	// 表示は新しい順のため先頭に積む
	s.logs = append([]domain.LogEntry{entry}, s.logs...)
	s.mu.Unlock()

	s.emit(domain.RunEvent{Type: domain.EventLogAdded, Log: &entry})
}

// RunFinished は実行中フラグを下ろし、終了イベントを配信します。
func (s *RunStore) RunFinished(summary domain.RunSummary) {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.emit(domain.RunEvent{Type: domain.EventRunFinished, Summary: &summary})
}

// --- 参照系 ---

// Results は STT の昇順に正規化した結果のコピーを返します。
// 挿入順（チャンク内の完了順）には意味を持たせません。
func (s *RunStore) Results() []domain.GenerationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.GenerationResult, len(s.results))
	copy(out, s.results)
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out
}

// ResultsBySequenceIDs は指定された STT 群に一致する結果を STT 昇順で返します。
func (s *RunStore) ResultsBySequenceIDs(ids []int) []domain.GenerationResult {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []domain.GenerationResult
	for _, res := range s.Results() {
		if want[res.SequenceID] {
			out = append(out, res)
		}
	}
	return out
}

// DeleteResult は指定された STT の結果を削除します。見つからなければ false を返します。
func (s *RunStore) DeleteResult(sequenceID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, res := range s.results {
		if res.SequenceID == sequenceID {
			s.results = append(s.results[:i], s.results[i+1:]...)
			return true
		}
	}
	return false
}

// Logs は新しい順のログのコピーを返します。
func (s *RunStore) Logs() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// --- 参照画像 ---

func (s *RunStore) SetReference(ref domain.ReferenceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = &ref
}

// Reference は登録済みの参照画像を返します。未登録の場合は ok=false です。
func (s *RunStore) Reference() (domain.ReferenceImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reference == nil {
		return domain.ReferenceImage{}, false
	}
	return *s.reference, true
}

func (s *RunStore) ClearReference() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = nil
}

func (s *RunStore) emit(ev domain.RunEvent) {
	if s.publish != nil {
		s.publish(ev)
	}
}
