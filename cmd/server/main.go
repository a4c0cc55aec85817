package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sign_ops/internal/config"
	"sign_ops/internal/gateway"
	"sign_ops/internal/lifecycle"
	"sign_ops/internal/model"
	"sign_ops/internal/pricing"
	"sign_ops/internal/promo"
	"sign_ops/internal/queue"
	"sign_ops/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Customer{},
		&model.PostType{},
		&model.RiderType{},
		&model.LockboxType{},
		&model.PromoCode{},
		&model.PromoCodeUsage{},
		&model.Order{},
		&model.OrderItem{},
		&model.CustomerSign{},
		&model.CustomerRider{},
		&model.CustomerLockbox{},
		&model.CustomerBrochureBox{},
		&model.Installation{},
		&model.InstallationRider{},
		&model.InstallationLockbox{},
		&model.ServiceRequest{},
		&model.OrderNotification{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	rdb := rd.NewClient(&rd.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	// Production wiring swaps these for the real Stripe-backed gateways.
	payments := gateway.PaymentGateway(&gateway.OfflinePayments{})
	taxSvc := gateway.TaxCalculator(&gateway.NoTaxService{})
	email := gateway.EmailSender(&gateway.LogEmailSender{})

	taxes := pricing.NewResolver(taxSvc, cfg.Pricing.FallbackTaxRate)
	calc := pricing.NewCalculator(cfg.Pricing, taxes)
	promos := promo.NewValidator(db)

	outbox := queue.NewOutbox(rdb, cfg.OrderEventStream)
	engine := lifecycle.NewEngine(db, payments, email, outbox)

	producer := queue.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()
	relay := queue.NewRelay(rdb, producer, cfg.OrderEventStream, cfg.OrderEventGroup, cfg.OrderEventConsumer)
	go relay.Run(ctx)

	consumer := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db)
	defer consumer.Close()
	go consumer.Run(ctx)

	r := gin.Default()
	router.Setup(r, router.Deps{
		DB:       db,
		RDB:      rdb,
		Cfg:      cfg,
		Calc:     calc,
		Promos:   promos,
		Engine:   engine,
		Payments: payments,
		Email:    email,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()
	log.Printf("listening on %s", cfg.HTTPAddr)

	<-ctx.Done()
	log.Println("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
