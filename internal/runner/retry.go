package runner

import (
	"context"
	"time"

	"github.com/nobita6986/Img-Gen/internal/config"
	"github.com/nobita6986/Img-Gen/internal/generator"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy は1アイテムあたりのリトライ方針です。
// レート制限と分類されたエラーのみが再試行の対象で、それ以外は即座に伝播します。
type RetryPolicy struct {
	// MaxAttempts は初回を含む総試行回数の上限です。
	MaxAttempts  uint64
	InitialDelay time.Duration
	Multiplier   float64

	// Timer は待機の実装を差し替えるためのフックです。nil の場合は実時間で待機します。
	Timer backoff.Timer
}

// DefaultRetryPolicy は 4回試行 / 2秒開始 / 倍々 のポリシーを返します。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  config.DefaultMaxAttempts,
		InitialDelay: config.DefaultRetryDelay,
		Multiplier:   config.DefaultRetryFactor,
	}
}

// Do は op を実行し、レート制限エラーに限り指数バックオフで再試行します。
// notify は待機の直前に、失敗したエラーとこれから待つ時間を伴って呼ばれます。
// 再試行回数を使い切った場合は最後のエラーをそのまま返します。
func (p RetryPolicy) Do(ctx context.Context, notify func(err error, delay time.Duration), op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialDelay
	bo.Multiplier = p.Multiplier
	// 待機列 (2s, 4s, 8s) を決定的にするため、揺らぎと上限を無効化します。
	bo.RandomizationFactor = 0
	bo.MaxInterval = 24 * time.Hour
	bo.MaxElapsedTime = 0
	bo.Reset()

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !generator.IsRateLimited(err) {
			// レート制限以外はリトライせず即座に確定させる
			return backoff.Permanent(err)
		}
		return err
	}

	if notify == nil {
		notify = func(error, time.Duration) {}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx)
	return backoff.RetryNotifyWithTimer(wrapped, b, backoff.Notify(notify), p.Timer)
}
