package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "travelfinance/internal/config"
	router "travelfinance/internal/http"
	h "travelfinance/internal/http/handlers"
	"travelfinance/internal/repositories"
	"travelfinance/internal/services"
	"travelfinance/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	logger, err := utils.NewLogger(env.LogLevel, gin.Mode() == gin.DebugMode)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := intconfig.ConnectDB(env.DBDSN)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer intconfig.CloseDB()

	source := repositories.ReportSource{DB: db}
	fin := &h.Finance{
		Store:            repositories.Store{DB: db},
		Reader:           source,
		Source:           source,
		Locks:            services.NewBookingLocks(),
		CacheTTL:         env.ReportCacheTTL,
		FareExpenseShare: env.FareExpenseShare,
	}
	if env.RedisURL != "" {
		cache, err := services.NewRedisReportCache(env.RedisURL)
		if err != nil {
			logger.Warn("report cache disabled", zap.Error(err))
		} else {
			defer func() { _ = cache.Close() }()
			fin.Cache = cache
		}
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, fin),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
