package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"chatsphere/models"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken fake EventPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type EventPublisher interface {
	BroadcastToAll(event Event)
	BroadcastToUser(userID string, event Event)
}

// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır (Observer pattern).
//
// Go channel nedir? (register, unregister)
// Goroutine'ler arası güvenli iletişim sağlayan yapılar.
// Hub.Run() goroutine'i bu channel'lardan `select` ile okur:
// - register channel'dan yeni client gelirse → clients map'e ekle
// - unregister channel'dan client gelirse → map'ten çıkar
type Hub struct {
	// clients: userID → Client set (bir kullanıcının birden fazla tab'ı olabilir).
	// map[string]map[*Client]bool — Go'da set yoktur, map[*Client]bool kullanılır.
	clients map[string]map[*Client]bool

	// mu: clients map'ini koruyan read-write mutex.
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64: Birden fazla goroutine'in güvenle okuyup yazabildiği sayı.
	seq atomic.Int64

	// Oturum yaşam döngüsü callback'leri — main.go'da set edilir.
	//
	// onFirstConnect: Kullanıcının İLK bağlantısı kurulduğunda çağrılır.
	// main.go burada kullanıcının teslimat poller'ını başlatır.
	// onFullyDisconnected: Kullanıcının SON bağlantısı koptuğunda çağrılır;
	// poller durdurulur. Aradaki ek tab'lar callback tetiklemez — poller
	// oturum başına tektir, tab başına değil.
	onFirstConnect      func(identity models.SessionIdentity)
	onFullyDisconnected func(userID string)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// OnUserFirstConnect, kullanıcının ilk bağlantısında çağrılacak callback'i kaydeder.
// Hub.Run() başlamadan önce, main.go'dan çağrılmalıdır.
func (h *Hub) OnUserFirstConnect(fn func(identity models.SessionIdentity)) {
	h.onFirstConnect = fn
}

// OnUserFullyDisconnected, kullanıcının son bağlantısı koptuğunda
// çağrılacak callback'i kaydeder.
func (h *Hub) OnUserFullyDisconnected(fn func(userID string)) {
	h.onFullyDisconnected = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
//
// select nedir?
// Birden fazla channel'ı aynı anda dinler.
// Hangi channel'dan veri gelirse o case çalışır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler.
// Kullanıcının ilk bağlantısıysa onFirstConnect callback'i tetiklenir.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()

	first := false
	if _, ok := h.clients[client.identity.UserID]; !ok {
		h.clients[client.identity.UserID] = make(map[*Client]bool)
		first = true
	}
	h.clients[client.identity.UserID][client] = true
	total := len(h.clients[client.identity.UserID])

	h.mu.Unlock()

	log.Printf("[ws] client connected: user=%s (total connections for user: %d)",
		client.identity.UserID, total)

	// Callback mutex dışında ve ayrı goroutine'de — callback içinden
	// Broadcast çağrılırsa deadlock oluşmasın.
	if first && h.onFirstConnect != nil {
		go h.onFirstConnect(client.identity)
	}
}

// removeClient, bir client'ı Hub'dan çıkarır ve send channel'ını kapatır.
// Kullanıcının son bağlantısıysa onFullyDisconnected callback'i tetiklenir.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()

	last := false
	if clients, ok := h.clients[client.identity.UserID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.clients, client.identity.UserID)
				last = true
			}
		}
	}

	h.mu.Unlock()

	if last {
		log.Printf("[ws] user fully disconnected: %s", client.identity.UserID)
		if h.onFullyDisconnected != nil {
			go h.onFullyDisconnected(client.identity.UserID)
		}
	}
}

// BroadcastToAll, tüm bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Buffer dolu — bu client yavaş, kapat
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
// Zamanlanmış mesaj event'leri buradan geçer — panel sadece yazara görünür.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
