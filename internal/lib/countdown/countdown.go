// Package countdown реализует отменяемый таймер обратного отсчета.
//
// Таймер привязывается к времени жизни воркфлоу: Start взводит дедлайн и
// начинает посекундную рассылку остатка в канал Ticks, Stop явно
// останавливает тикер при завершении или отказе от воркфлоу, чтобы не
// оставлять утекших горутин. Состояние не переживает перезапуск процесса.
package countdown

import (
	"sync"
	"time"
)

// Timer — односекундный обратный отсчет с дедлайном.
type Timer struct {
	mu       sync.Mutex
	deadline time.Time
	ticker   *time.Ticker
	done     chan struct{}
	ticks    chan int
}

// New создает остановленный таймер.
func New() *Timer {
	return &Timer{}
}

// Start взводит отсчет на d, перезапуская предыдущий, если тот еще шел.
func (t *Timer) Start(d time.Duration) {
	t.Stop()

	t.mu.Lock()
	t.deadline = time.Now().Add(d)
	t.ticker = time.NewTicker(time.Second)
	t.done = make(chan struct{})
	t.ticks = make(chan int, 1)
	ticker, done, ticks := t.ticker, t.done, t.ticks
	t.mu.Unlock()

	go func() {
		defer close(ticks)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				remaining := t.RemainingSeconds()
				select {
				case ticks <- remaining:
				default:
				}
				if remaining <= 0 {
					return
				}
			}
		}
	}()
}

// Ticks возвращает канал с остатком секунд; nil, если отсчет не запущен.
func (t *Timer) Ticks() <-chan int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Remaining возвращает остаток отсчета; ноль, если отсчет истек или не шел.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.deadline.IsZero() {
		return 0
	}
	remaining := time.Until(t.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds возвращает остаток в целых секундах с округлением вверх.
func (t *Timer) RemainingSeconds() int {
	remaining := t.Remaining()
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// Active сообщает, идет ли отсчет.
func (t *Timer) Active() bool {
	return t.Remaining() > 0
}

// Stop останавливает тикер и связанную горутину. Повторный вызов безопасен.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
		t.ticker = nil
		t.done = nil
	}
	t.deadline = time.Time{}
}
