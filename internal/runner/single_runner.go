package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/nobita6986/Img-Gen/internal/domain"
	"github.com/nobita6986/Img-Gen/internal/generator"
)

// SingleRunner は非バッチの単発生成パスです。
// バッチと同じリトライポリシーを1件にだけ適用します。共有フラグは不要で、
// クレデンシャル無効の失敗はエラーとして呼び出し元へ直接返します。
type SingleRunner struct {
	policy RetryPolicy
	sink   EventSink
}

func NewSingleRunner(policy RetryPolicy, sink EventSink) *SingleRunner {
	return &SingleRunner{policy: policy, sink: sink}
}

// Generate は1件のプロンプトをリトライ付きで生成します。
func (r *SingleRunner) Generate(ctx context.Context, item domain.PromptItem, gen GenerateFunc) (generator.Image, error) {
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
		if generator.IsRateLimited(err) {
			r.sink.Log(domain.SeverityError,
				fmt.Sprintf("STT %d: リトライ上限に達しました: %v", item.SequenceID, err))
		} else {
			r.sink.Log(domain.SeverityError,
				fmt.Sprintf("STT %d: 生成に失敗しました: %v", item.SequenceID, err))
		}
		return generator.Image{}, err
	}

	r.sink.Log(domain.SeveritySuccess, fmt.Sprintf("STT %d: 生成に成功しました", item.SequenceID))
	return img, nil
}
