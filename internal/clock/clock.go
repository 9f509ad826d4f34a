// Package clock は現在時刻の取得を抽象化します。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返します。テストでは Fake に差し替えます。
type Clock interface {
	Now() time.Time
}

// System は実時計です。
type System struct{}

// Now は UTC の現在時刻を返します。
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake は手動で進めるテスト用の時計です。並行アクセスに安全です。
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake は指定時刻から始まる Fake を作成します。
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

// Now は現在の仮想時刻を返します。
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance は仮想時刻を d だけ進めます。負の値を渡すと時刻が戻ります。
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set は仮想時刻を t に設定します。
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
