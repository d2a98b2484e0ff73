// ComposeRateLimiter — mesaj gönderme ve zamanlama spam koruması.
//
// LoginRateLimiter'dan farklar:
// - Key: userID (IP değil) — authenticated endpoint, kullanıcı bazlı takip.
// - Cooldown: window süresi ve ceza süresi ayrıdır. Limit aşıldığında
//   kullanıcı cooldown süresi kadar bekler; login limiter'da cooldown
//   kalan window süresiydi.
//
// Anlık mesaj gönderme ve zamanlanmış mesaj oluşturma AYNI limiter'ı
// paylaşır: 5 saniyede 5 compose işlemi, aşımda 15 saniye ceza.
// Zamanlama ayrı sayılsaydı spam iki kanaldan ikiye katlanabilirdi.
package ratelimit

import (
	"sync"
	"time"
)

// composeBucket, bir kullanıcı için sayaç ve cooldown bilgisi tutar.
//
// İki durumlu:
// 1. Normal mod: count artırılır, windowStart bazlı pencere kontrolü.
// 2. Cooldown mod: cooldownUntil > now → tüm istekler reddedilir.
type composeBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// ComposeRateLimiter, kullanıcı bazlı compose (gönder/zamanla) koruması.
//
// Kullanım:
//
//	limiter := NewComposeRateLimiter(5, 5*time.Second, 15*time.Second)
//	// Message veya schedule handler'ında:
//	if !limiter.Allow(userID) { return 429 }
type ComposeRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*composeBucket
	maxActions  int
	window      time.Duration
	cooldown    time.Duration
	stopCleanup chan struct{}
}

// NewComposeRateLimiter, yeni limiter oluşturur ve arka plan temizleme
// goroutine'ini başlatır.
func NewComposeRateLimiter(maxActions int, window, cooldown time.Duration) *ComposeRateLimiter {
	rl := &ComposeRateLimiter{
		buckets:     make(map[string]*composeBucket),
		maxActions:  maxActions,
		window:      window,
		cooldown:    cooldown,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, kullanıcının compose işlemine izin verilip verilmediğini döner.
//
// Akış:
// 1. Cooldown'daysa → reject (cooldown bitmeden hiçbir istek geçmez).
// 2. Window dolmuşsa → yeni pencere başlat.
// 3. Window içindeyse → count artır, max aşıldıysa cooldown başlat.
func (rl *ComposeRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &composeBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() && now.Before(b.cooldownUntil) {
		return false
	}

	if !b.cooldownUntil.IsZero() {
		// Cooldown bitti — yeni pencere başlat
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxActions {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}

	return true
}

// CooldownSeconds, limit aşıldığında kalan cooldown süresini saniye
// cinsinden döner. Cooldown yoksa 0.
func (rl *ComposeRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}

	return int(remaining.Seconds()) + 1 // +1 yuvarlama
}

// cleanupLoop her 30 saniyede bir çalışır — compose bucket'ları kısa
// ömürlü olduğu için login cleanup'tan daha sık.
func (rl *ComposeRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, hem window'u hem cooldown'u geçmiş bucket'ları siler.
// İki koşul birden: cooldown'daki kullanıcının bucket'ı yanlışlıkla silinmez.
func (rl *ComposeRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)

		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
