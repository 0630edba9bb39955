package sse

import (
	"sync"
)

// Hub は SSE 購読者を管理するブロードキャスターです。
// 購読者ごとのバッファ付き channel に対して非ブロッキングで送信し、
// 読み出しが追いつかないクライアントへのイベントは破棄します。
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan []byte]bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan []byte]bool),
	}
}

// Subscribe は指定された channel を購読者として登録します。
// 呼び出し側がバッファ付き channel を用意し、不要になったら Unsubscribe してから
// 自身で close する約束です。Hub が channel を close することはありません。
func (h *Hub) Subscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = true
}

// Unsubscribe は購読を解除します。
func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}

// Publish は全購読者へメッセージを配信します。
func (h *Hub) Publish(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			// クライアントが読んでいない場合は破棄する
		}
	}
}

// SubscriberCount は現在の購読者数を返します。
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
