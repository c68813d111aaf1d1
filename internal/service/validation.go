package service

import (
	"context"
	"fmt"

	"wikirace/internal/metrics"
	"wikirace/internal/wiki"
)

// DefaultMaxHops 是一條路徑中間條目數量的預設上限
const DefaultMaxHops = 64

// LinkChecker 回答 pageURL 的頁面是否含有指向 targetURL 的超連結
type LinkChecker interface {
	HasLink(ctx context.Context, pageURL, targetURL string) (bool, error)
}

// PathValidator 逐步驗證玩家提交的路徑
type PathValidator struct {
	checker LinkChecker
	maxHops int
}

// NewPathValidator 建立驗證器，maxHops 小於等於 0 時使用 DefaultMaxHops
func NewPathValidator(checker LinkChecker, maxHops int) *PathValidator {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &PathValidator{checker: checker, maxHops: maxHops}
}

func (v *PathValidator) ValidateHop(ctx context.Context, fromURL, toURL string) (bool, error) {
	return v.checker.HasLink(ctx, fromURL, toURL)
}

// ValidatePath 依序驗證 start、hops、goal 之間的每一步，遇到第一個無法抵達的步驟即回傳 *PathInvalidError。
// 取得任何頁面之前會先拒絕過長的路徑與維基百科以外的網址。回傳 nil 表示整條路徑有效。
func (v *PathValidator) ValidatePath(ctx context.Context, start string, hops []string, goal string) error {
	if len(hops) > v.maxHops {
		metrics.PathValidations.WithLabelValues("rejected").Inc()
		return ErrTooManyHops
	}

	urls := make([]string, 0, len(hops)+2)
	urls = append(urls, start)
	urls = append(urls, hops...)
	urls = append(urls, goal)
	for _, u := range urls {
		if !wiki.IsArticleURL(u) {
			metrics.PathValidations.WithLabelValues("rejected").Inc()
			return fmt.Errorf("%w: %s", ErrNotWikipedia, u)
		}
	}

	for i := 0; i < len(urls)-1; i++ {
		from, to := urls[i], urls[i+1]
		ok, err := v.ValidateHop(ctx, from, to)
		if err != nil {
			metrics.PathValidations.WithLabelValues("error").Inc()
			return fmt.Errorf("validate %s -> %s: %w", from, to, err)
		}
		if !ok {
			metrics.PathValidations.WithLabelValues("invalid").Inc()
			return &PathInvalidError{From: from, To: to}
		}
	}

	metrics.PathValidations.WithLabelValues("valid").Inc()
	return nil
}
