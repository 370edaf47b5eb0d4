package registry

import "sync"

// DisposableFunc adapts a function to Disposable. The function runs at most once.
func DisposableFunc(fn func()) Disposable {
	return &funcDisposable{fn: fn}
}

type funcDisposable struct {
	once sync.Once
	fn   func()
}

func (d *funcDisposable) Dispose() {
	d.once.Do(func() {
		if d.fn != nil {
			d.fn()
		}
	})
}

// Combine returns a Disposable that disposes ds in reverse order.
func Combine(ds ...Disposable) Disposable {
	held := make([]Disposable, len(ds))
	copy(held, ds)
	return DisposableFunc(func() {
		for i := len(held) - 1; i >= 0; i-- {
			if held[i] != nil {
				held[i].Dispose()
			}
		}
	})
}
