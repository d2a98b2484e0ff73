// Package main, chatsphere backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1.  Config'i yükle
//   2.  Database'i başlat
//   3.  Repository'leri oluştur (DB bağlantısı ile)
//   4.  WebSocket Hub'ı başlat, oturum callback'lerini bağla
//   5.  Service'leri oluştur (repository'ler + hub ile)
//   6.  Handler'ları oluştur (service'ler + rate limiter'lar ile)
//   7.  Middleware'ları oluştur
//   8.  HTTP router'ı kur, route'ları bağla
//   9.  CORS yapılandır
//  10.  HTTP Server'ı başlat
//  11.  Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/cors"

	"chatsphere/config"
	"chatsphere/database"
	"chatsphere/handlers"
	"chatsphere/middleware"
	"chatsphere/models"
	"chatsphere/pkg/ratelimit"
	"chatsphere/repository"
	"chatsphere/services"
	"chatsphere/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] chatsphere server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, scheduler interval=%s)",
		cfg.Server.Port, cfg.Scheduler.Interval)

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	sessionRepo := repository.NewSQLiteSessionRepo(db.Conn)
	serverRepo := repository.NewSQLiteServerRepo(db.Conn)
	channelRepo := repository.NewSQLiteChannelRepo(db.Conn)
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	scheduledRepo := repository.NewSQLiteScheduledMessageRepo(db.Conn)

	// ─── 4. WebSocket Hub + Oturum Callback'leri ───
	//
	// Hub, tüm WebSocket bağlantılarını yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı bir goroutine'de event loop başlatır:
	// register/unregister channel'larını dinler ve client map'ini günceller.
	// Hub aynı zamanda EventPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()

	// DeliveryWorker — Hub callback'lerinden önce oluşturulmalı çünkü
	// OnUserFirstConnect callback'i poller kurarken worker'a ihtiyaç duyar.
	deliveryWorker := services.NewDeliveryWorker(messageRepo, scheduledRepo, hub)

	// Poller registry — her aktif kullanıcı için en fazla bir poller.
	// Kullanıcı ilk bağlandığında kurulur, tüm bağlantıları kapandığında
	// durdurulup silinir. Aynı kullanıcının ikinci sekmesi yeni poller
	// AÇMAZ — registry'de zaten kayıt vardır.
	//
	// Bu callback'ler neden burada (main.go'da)?
	// Hub ws paketinde yaşıyor, ama poller service katmanında.
	// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
	// main.go wire-up noktasıdır — tüm katmanları birbirine bağlar.
	//
	// Callback'ler Hub.Run() goroutine'inden ayrı goroutine'de çalışır
	// (addClient/removeClient içinde `go callback()` ile çağrılır),
	// böylece Hub'ın mutex Lock'u ile BroadcastToAll'ın RLock'u çakışmaz.
	var pollerMu sync.Mutex
	pollers := make(map[string]services.DeliveryPoller)

	hub.OnUserFirstConnect(func(identity models.SessionIdentity) {
		pollerMu.Lock()
		defer pollerMu.Unlock()

		if _, exists := pollers[identity.UserID]; exists {
			return
		}
		poller := services.NewDeliveryPoller(
			scheduledRepo,
			deliveryWorker,
			identity,
			cfg.Scheduler.Interval,
			cfg.Scheduler.BatchLimit,
		)
		pollers[identity.UserID] = poller
		poller.Start()
	})

	hub.OnUserFullyDisconnected(func(userID string) {
		pollerMu.Lock()
		defer pollerMu.Unlock()

		if poller, exists := pollers[userID]; exists {
			poller.Stop()
			delete(pollers, userID)
		}
	})

	go hub.Run()

	// ─── 5. Service Layer ───
	authService := services.NewAuthService(
		userRepo,
		sessionRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	serverService := services.NewServerService(serverRepo)
	channelService := services.NewChannelService(channelRepo, serverRepo)
	messageService := services.NewMessageService(messageRepo, channelRepo, serverRepo, userRepo, hub)
	scheduledService := services.NewScheduledMessageService(scheduledRepo, channelRepo, serverRepo, userRepo, hub)

	// ─── 6. Rate Limiter + Handler Layer ───
	//
	// loginLimiter: IP başına 5 deneme / dakika — brute-force koruması.
	// composeLimiter: Kullanıcı başına 10 compose / 10 saniye, aşımda 5
	// saniye cooldown. Anlık mesaj ve zamanlama AYNI bütçeden düşer.
	loginLimiter := ratelimit.NewLoginRateLimiter(5, time.Minute)
	composeLimiter := ratelimit.NewComposeRateLimiter(10, 10*time.Second, 5*time.Second)

	authHandler := handlers.NewAuthHandler(authService, loginLimiter)
	serverHandler := handlers.NewServerHandler(serverService)
	channelHandler := handlers.NewChannelHandler(channelService)
	messageHandler := handlers.NewMessageHandler(messageService, composeLimiter)
	scheduledHandler := handlers.NewScheduledMessageHandler(scheduledService, composeLimiter)
	wsHandler := ws.NewHandler(hub, authService)

	// ─── 7. Middleware ───
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)

	// ─── 8. HTTP Router ───
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"chatsphere"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Protected endpoint'ler — authMiddleware.Require() sarar
	mux.Handle("GET /api/users/me", authMiddleware.Require(http.HandlerFunc(authHandler.Me)))

	// Servers — oluşturma ve katılım herkese açık, mute sadece sahibine
	mux.Handle("POST /api/servers", authMiddleware.Require(
		http.HandlerFunc(serverHandler.Create)))
	mux.Handle("GET /api/servers", authMiddleware.Require(
		http.HandlerFunc(serverHandler.List)))
	mux.Handle("GET /api/servers/{id}", authMiddleware.Require(
		http.HandlerFunc(serverHandler.Get)))
	mux.Handle("POST /api/servers/{id}/join", authMiddleware.Require(
		http.HandlerFunc(serverHandler.Join)))
	mux.Handle("GET /api/servers/{id}/members", authMiddleware.Require(
		http.HandlerFunc(serverHandler.Members)))
	mux.Handle("PUT /api/servers/{id}/members/{userId}/mute", authMiddleware.Require(
		http.HandlerFunc(serverHandler.MuteMember)))

	// Channels — görüntüleme üyelere, oluşturma sunucu sahibine açık
	mux.Handle("POST /api/servers/{id}/channels", authMiddleware.Require(
		http.HandlerFunc(channelHandler.Create)))
	mux.Handle("GET /api/servers/{id}/channels", authMiddleware.Require(
		http.HandlerFunc(channelHandler.List)))

	// Messages — tüm üyeler mesaj okuyup yazabilir (mute kontrolü service'te)
	mux.Handle("GET /api/channels/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/channels/{id}/messages", authMiddleware.Require(
		http.HandlerFunc(messageHandler.Create)))

	// Scheduled messages — zamanlama kanal altında, düzenleme/iptal kayıt ID'si ile
	mux.Handle("POST /api/channels/{id}/scheduled", authMiddleware.Require(
		http.HandlerFunc(scheduledHandler.Create)))
	mux.Handle("GET /api/channels/{id}/scheduled", authMiddleware.Require(
		http.HandlerFunc(scheduledHandler.List)))
	mux.Handle("PATCH /api/scheduled/{id}", authMiddleware.Require(
		http.HandlerFunc(scheduledHandler.Update)))
	mux.Handle("DELETE /api/scheduled/{id}", authMiddleware.Require(
		http.HandlerFunc(scheduledHandler.Cancel)))

	// WebSocket — token query parameter ile authenticate edilir
	//
	// Neden auth middleware kullanmıyoruz?
	// WebSocket upgrade sırasında tarayıcılar custom HTTP header gönderemez.
	// Bu yüzden JWT token URL query parameter olarak gönderilir:
	//   ws://server/ws?token=JWT_TOKEN
	// WS handler kendi içinde token doğrulaması yapar.
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 9. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // Vite dev server
			"http://localhost:5173",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	handler := corsHandler.Handler(mux)

	// ─── 10. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 11. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce poller'ları durdur — yarım kalan tarama yeni teslimat başlatmasın.
	// Sonra WebSocket bağlantılarını kapat ve HTTP server'ı durdur —
	// mevcut request'lerin bitmesi için 5sn tanınır.
	pollerMu.Lock()
	for userID, poller := range pollers {
		poller.Stop()
		delete(pollers, userID)
	}
	pollerMu.Unlock()

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
