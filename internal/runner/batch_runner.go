package runner

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
)

// GenerateFunc は1アイテム分の生成呼び出しです。
// 参照画像を使うかアスペクト比を使うかはハンドラー側のクロージャで束縛されます。
type GenerateFunc func(ctx context.Context, item domain.PromptItem) (generator.Image, error)

// EventSink はバッチ実行の進捗を受け取るサイドチャネルです。
// 結果の保持や SSE 配信はこのインターフェースの実装側に委ねます。
type EventSink interface {
	ResultAdded(res domain.GenerationResult)
	Log(severity domain.Severity, message string)
	RunFinished(summary domain.RunSummary)
}

// BatchRunner はプロンプトキューを concurrency 件ずつのチャンクに分割してドレインします。
// チャンク N+1 は チャンク N が完全に完了するまで開始されないため、
// 同時実行中のリクエスト数は常に concurrency 以下に抑えられます。
type BatchRunner struct {
	concurrency int
	policy      RetryPolicy
	sink        EventSink
}

// NewBatchRunner は BatchRunner を初期化します。concurrency は 1 未満なら 1 に丸められます。
func NewBatchRunner(concurrency int, policy RetryPolicy, sink EventSink) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		concurrency: concurrency,
		policy:      policy,
		sink:        sink,
	}
}

// Run はキュー全体をドレインし、集計結果を返します。
// いずれかのアイテムがクレデンシャル無効を報告した場合、未開始のアイテムは
// 成功にも失敗にも数えずスキップします。実行中のアイテムは完了まで待機します。
func (r *BatchRunner) Run(ctx context.Context, runID string, items []domain.PromptItem, gen GenerateFunc) domain.RunSummary {
	queue := make([]domain.PromptItem, len(items))
	copy(queue, items)

	slog.Info("バッチ実行を開始します",
		"run_id", runID,
		"total", len(queue),
		"concurrency", r.concurrency,
	)

	// クレデンシャル無効フラグは実行内で唯一の共有可変状態。
	// false→true の単調変化のみで、実行中にリセットされることはない。
	var invalidCredential atomic.Bool
	var succeeded, failed, skipped atomic.Int64

	for len(queue) > 0 {
		size := r.concurrency
		if size > len(queue) {
			size = len(queue)
		}
		chunk := queue[:size]
		queue = queue[size:]

		var wg sync.WaitGroup
		for _, item := range chunk {
			wg.Add(1)
			go func(item domain.PromptItem) {
				defer wg.Done()
				r.processItem(ctx, item, gen, &invalidCredential, &succeeded, &failed, &skipped)
			}(item)
		}
		// チャンク内の全アイテムが確定するまで次のチャンクは開始しない
		wg.Wait()
	}

	summary := domain.RunSummary{
		RunID:             runID,
		Total:             len(items),
		Succeeded:         int(succeeded.Load()),
		Failed:            int(failed.Load()),
		Skipped:           int(skipped.Load()),
		InvalidCredential: invalidCredential.Load(),
	}

	if summary.InvalidCredential {
		r.sink.Log(domain.SeverityError,
			fmt.Sprintf("APIキーが無効なため実行を終了しました (成功 %d / 失敗 %d / スキップ %d)",
				summary.Succeeded, summary.Failed, summary.Skipped))
	} else {
		r.sink.Log(domain.SeverityInfo,
			fmt.Sprintf("バッチ実行が完了しました (成功 %d / 失敗 %d)", summary.Succeeded, summary.Failed))
	}

	r.sink.RunFinished(summary)

	slog.Info("バッチ実行が終了しました",
		"run_id", runID,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"invalid_credential", summary.InvalidCredential,
	)
	return summary
}

// processItem は1アイテムをリトライポリシー付きで処理します。
// 開始時点でクレデンシャル無効フラグが立っている場合は何も行いません。
func (r *BatchRunner) processItem(
	ctx context.Context,
	item domain.PromptItem,
	gen GenerateFunc,
	invalidCredential *atomic.Bool,
	succeeded, failed, skipped *atomic.Int64,
) {
	if invalidCredential.Load() {
		skipped.Add(1)
		return
	}

	notify := func(err error, delay time.Duration) {
		r.sink.Log(domain.SeverityInfo,
			fmt.Sprintf("STT %d: レート制限を検知しました。%s 後に再試行します", item.SequenceID, delay))
	}

	var img generator.Image
	err := r.policy.Do(ctx, notify, func() error {
		var genErr error
		img, genErr = gen(ctx, item)
		return genErr
	})

	if err != nil {
		failed.Add(1)
		if generator.IsRateLimited(err) {
			r.sink.Log(domain.SeverityError,
				fmt.Sprintf("STT %d: リトライ上限に達しました: %v", item.SequenceID, err))
		} else {
			r.sink.Log(domain.SeverityError,
				fmt.Sprintf("STT %d: 生成に失敗しました: %v", item.SequenceID, err))
		}

		// 最初の1回だけフラグを立てる。以降の検知は無視される。
		if generator.IsInvalidCredential(err) && invalidCredential.CompareAndSwap(false, true) {
			r.sink.Log(domain.SeverityError, "APIキーが拒否されました。未開始のアイテムをスキップします")
		}
		return
	}

	succeeded.Add(1)
	r.sink.ResultAdded(domain.GenerationResult{
		SequenceID: item.SequenceID,
		Prompt:     item.Prompt,
		ImageData:  base64.StdEncoding.EncodeToString(img.Data),
		MimeType:   img.MimeType,
	})
	r.sink.Log(domain.SeveritySuccess, fmt.Sprintf("STT %d: 生成に成功しました", item.SequenceID))
}
