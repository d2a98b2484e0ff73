// Package services — DeliveryPoller, oturum bazlı periyodik due taraması.
//
// Her aktif kullanıcı oturumu için bir poller çalışır: hub'da kullanıcının
// İLK bağlantısı kurulduğunda main.go poller'ı başlatır, SON bağlantısı
// koptuğunda durdurur. Poller yalnızca KENDİ yazarının kayıtlarını tarar —
// kullanıcı çevrimdışıyken mesajları teslim edilmez, tekrar bağlandığında
// ilk tarama birikmiş due kayıtları yakalar.
//
// Goroutine pattern: time.NewTicker + select + stopCh.
// Graceful shutdown: main.go'da poller.Stop() çağrılır.
package services

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"chatsphere/models"
	"chatsphere/repository"
)

// DeliveryPoller, tek bir kullanıcının zamanlanmış mesajlarını tarayan
// arka plan döngüsü.
type DeliveryPoller interface {
	// Start, poller goroutine'ini başlatır. İlk tarama hemen çalışır
	// (tick beklenmez), sonra interval aralığında tekrarlar.
	Start()

	// Stop, poller goroutine'ini durdurur. İkinci çağrı no-op'tur.
	Stop()
}

type deliveryPoller struct {
	scheduledRepo repository.ScheduledMessageRepository
	worker        DeliveryWorker
	identity      models.SessionIdentity
	interval      time.Duration
	batchLimit    int

	// scanning: Idle/Scanning durum bayrağı. Bir tarama hâlâ sürerken
	// yeni tick gelirse o tick ATLANIR — taramalar üst üste binmez,
	// kuyruklanmaz.
	scanning atomic.Bool

	stopCh chan struct{}
	once   sync.Once // Stop'un çift çağrısına karşı
	mu     sync.Mutex
}

// NewDeliveryPoller, constructor. Kimlik explicit parametredir: kimin
// adına tarandığı construction anında sabitlenir.
func NewDeliveryPoller(
	scheduledRepo repository.ScheduledMessageRepository,
	worker DeliveryWorker,
	identity models.SessionIdentity,
	interval time.Duration,
	batchLimit int,
) DeliveryPoller {
	return &deliveryPoller{
		scheduledRepo: scheduledRepo,
		worker:        worker,
		identity:      identity,
		interval:      interval,
		batchLimit:    batchLimit,
		stopCh:        make(chan struct{}),
	}
}

func (p *deliveryPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Printf("[delivery] poller starting for user %s (interval=%s, batch=%d)",
		p.identity.UserID, p.interval, p.batchLimit)

	go func() {
		// İlk taramayı hemen yap — oturum açılır açılmaz birikmiş
		// due kayıtlar teslim edilsin.
		p.scan()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.scan()
			case <-p.stopCh:
				log.Printf("[delivery] poller stopped for user %s", p.identity.UserID)
				return
			}
		}
	}()
}

func (p *deliveryPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.once.Do(func() { close(p.stopCh) })
}

// scan, tek bir tarama tick'i: due kayıtları çek, her birini worker'a ver.
func (p *deliveryPoller) scan() {
	// Önceki tarama hâlâ sürüyorsa bu tick'i atla.
	if !p.scanning.CompareAndSwap(false, true) {
		log.Printf("[delivery] scan still running for user %s, skipping tick", p.identity.UserID)
		return
	}
	defer p.scanning.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	due, err := p.scheduledRepo.ListDue(ctx, p.identity.UserID, time.Now(), p.batchLimit)
	if err != nil {
		// Sorgu hatası tick'i bitirir; kayıtlar pending kaldı,
		// sonraki tick tekrar dener.
		log.Printf("[delivery] due query failed for user %s: %v", p.identity.UserID, err)
		return
	}

	if len(due) == 0 {
		return
	}

	log.Printf("[delivery] %d due scheduled message(s) for user %s", len(due), p.identity.UserID)

	// Her kayıt bağımsız teslim edilir: birinin hatası diğerlerini
	// durdurmaz. Tick, tüm teslimatlar bitene kadar tamamlanmış sayılmaz.
	var wg sync.WaitGroup
	for i := range due {
		wg.Add(1)
		go func(sm *models.ScheduledMessage) {
			defer wg.Done()
			if err := p.worker.Deliver(ctx, sm); err != nil {
				log.Printf("[delivery] failed to deliver scheduled message %s: %v", sm.ID, err)
			}
		}(&due[i])
	}
	wg.Wait()
}
