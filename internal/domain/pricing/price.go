// Package pricing は講座の実売価格とクーポン割引を計算する。副作用なし。
package pricing

import (
	"time"

	"academy/internal/domain/model"
)

// EffectivePrice は now 時点で実際に請求する価格を返す。
// 早割の設定が欠けている・期間外・通常価格以上のときは通常価格に戻す（エラーにはしない）。
func EffectivePrice(c model.Course, now time.Time) int64 {
	if c.EarlyBirdPrice == nil {
		return c.NormalPrice
	}
	if !IsInEarlyBirdPeriod(c, now) {
		return c.NormalPrice
	}
	if *c.EarlyBirdPrice >= c.NormalPrice {
		return c.NormalPrice
	}
	return *c.EarlyBirdPrice
}

// IsInEarlyBirdPeriod は早割期間内か（両端を含む）。価格は見ない。
func IsInEarlyBirdPeriod(c model.Course, now time.Time) bool {
	if c.EarlyBirdStart == nil || c.EarlyBirdEnd == nil {
		return false
	}
	return !now.Before(*c.EarlyBirdStart) && !now.After(*c.EarlyBirdEnd)
}
