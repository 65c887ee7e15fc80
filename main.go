package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"referral-system/config"
	"referral-system/database"
	"referral-system/handlers"
	"referral-system/jobs"
	"referral-system/ledger"
	"referral-system/logging"
	"referral-system/middleware"
	"referral-system/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment")
	} else {
		fmt.Println("✅ .env file loaded and applied")
	}
	cfg := config.Load()

	if err := logging.InitLogger(cfg.Env == "release"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логгера: %v", err)
	}
	defer logging.Sync()

	if err := database.InitDB(cfg); err != nil {
		logging.Logger.Fatal("❌ Ошибка подключения к БД", zap.Error(err))
	}
	defer database.CloseDB()

	store := database.NewStore(database.Pool)
	revenue := ledger.NewRevenueService(store, logging.Logger)
	withdrawals := ledger.NewWithdrawalService(store, cfg.OwnerID, logging.Logger)

	mailer := utils.NewEmailService(cfg)
	sweeper := jobs.NewSweeper(store, mailer, logging.Logger)
	scheduler := jobs.NewScheduler(sweeper, logging.Logger)
	if err := scheduler.Start(context.Background()); err != nil {
		logging.Logger.Fatal("❌ Ошибка запуска планировщика", zap.Error(err))
	}
	defer scheduler.Stop()

	if cfg.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.SetTrustedProxies(cfg.TrustedProxies)
	r.Use(middleware.SetupCORS(cfg))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.New(cfg, store, revenue, withdrawals).Register(r)

	logging.Logger.Info("✅ Сервер запущен", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logging.Logger.Fatal("❌ Ошибка сервера", zap.Error(err))
	}
}
