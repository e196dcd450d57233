// Package safe_close 提供组件级的关闭编排
// 各组件通过 Attach 注册自己的运行与关闭逻辑，任一组件出错或外部信号
// 均可触发统一的关闭流程，WaitClosed 等待全部组件退出
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu sync.Mutex
	wg sync.WaitGroup

	closeSignal chan struct{}
	closed      bool
	err         error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach 注册一个组件
// f 必须在组件退出时调用 done，并在收到 closeSignal 后开始关闭
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal 触发关闭流程，首个非 nil 错误会被记录并由 WaitClosed 返回
// 重复调用是安全的
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed 阻塞等待所有组件退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
