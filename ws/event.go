// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mesaj gönderir veya zamanlar → HTTP → Service → DB kayıt
// 2. Service, Hub'ın Broadcast metodlarını çağırır
// 3. Hub, event'i ilgili client'lara iletir
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "message_create", "heartbeat" vb.
// Data: Event'e özgü payload — mesaj objesi, zamanlanmış kayıt vb.
// Seq (sequence number): Her outbound event'e verilen artan sayı.
//
//	Frontend eksik event tespit etmek için seq'i takip eder.
//	Örnek: seq 5'ten sonra seq 7 gelirse, 6 kaybolmuş demektir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat = "heartbeat" // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
)

// Server → Client operasyonları
const (
	OpReady        = "ready"         // Bağlantı kurulduğunda ilk gönderilen
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpMessageCreate = "message_create" // Kanala yeni mesaj düştü (anlık veya teslim edilmiş)

	// Zamanlanmış mesaj yaşam döngüsü — panel bu event'lerle canlı kalır.
	// Sadece yazarın kendi bağlantılarına gider; zamanlanmış bir mesaj
	// teslim edilene kadar başkası için görünmezdir.
	OpScheduledCreate = "scheduled_create" // Yeni kayıt oluşturuldu
	OpScheduledUpdate = "scheduled_update" // Pending kayıt düzenlendi
	OpScheduledCancel = "scheduled_cancel" // Kayıt iptal edildi
	OpScheduledSent   = "scheduled_sent"   // Kayıt teslim edildi — panelden düşer
)

// ReadyData, bağlantı kurulduğunda gönderilen ilk event'in payload'ı.
type ReadyData struct {
	UserID string `json:"user_id"`
}
