package generation

import (
	"sync"
)

// Hub 工作狀態的扇出推播，SSE 端每條連線訂閱一個 channel
// 實作 Notifier，掛在 Runner 上
type Hub struct {
	mu   sync.Mutex
	subs map[chan Job]struct{}
}

// NewHub 建立推播中樞
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Job]struct{})}
}

// Notify 廣播工作快照。訂閱端收不動就丟，進度訊息掉一兩則沒關係，
// 最終狀態由資料庫保底
func (h *Hub) Notify(job Job) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- job:
		default:
		}
	}
}

// Subscribe 訂閱工作狀態，回傳 channel 和取消函數
func (h *Hub) Subscribe() (<-chan Job, func()) {
	ch := make(chan Job, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
