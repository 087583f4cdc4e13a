package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dentabot/bot"
	"dentabot/breaker"
	"dentabot/dialog"
	"dentabot/luis"
	"dentabot/provider"
	"dentabot/qna"
	"dentabot/scheduler"
	"dentabot/store"
	"dentabot/tg"
	"dentabot/web"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	config, err := provider.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	loggerCfg := config.LoggerConfig
	jackLogger := &lumberjack.Logger{
		Filename:   loggerCfg.Filename,
		MaxSize:    loggerCfg.MaxSize,
		MaxAge:     loggerCfg.MaxAge,
		MaxBackups: loggerCfg.MaxBackups,
		LocalTime:  loggerCfg.LocalTime,
		Compress:   loggerCfg.Compress,
	}

	logger := provider.NewLogger(loggerCfg.Level, loggerCfg.Encoding, jackLogger)
	defer logger.Sync()

	slots, closeSlots, err := newSlotStore(logger, config)
	if err != nil {
		logger.Error("slot store", zap.NamedError("err", err))
		return
	}
	defer closeSlots()

	classifier := luis.NewClient(logger.Named("luis"), config.LuisConfig,
		breaker.New("luis", config.BreakerConfig, logger))
	answerer := qna.NewClient(logger.Named("qna"), config.QnAConfig,
		breaker.New("qna", config.BreakerConfig, logger))
	appointments := scheduler.NewClient(logger.Named("scheduler"), config.SchedulerConfig,
		breaker.New("scheduler", config.BreakerConfig, logger))

	manager := dialog.NewManager(logger.Named("dialog"), appointments, slots)
	dispatcher := bot.NewDispatcher(logger, classifier, answerer, manager)

	var tgBot *tg.Bot
	if config.TelegramBotConfig.Enabled {
		tgBot = tg.NewBot(logger, config.TelegramBotConfig, dispatcher)
		if err := tgBot.Start(); err != nil {
			logger.Error("bot start", zap.String("err", err.Error()))
			return
		}
	}

	var server *web.Server
	if config.ServerConfig.Enabled {
		server = web.NewServer(logger.Named("web"), config.ServerConfig, dispatcher)
		if err := server.Start(); err != nil {
			logger.Error("server start", zap.String("err", err.Error()))
			return
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Stop(ctx); err != nil {
			logger.Error("server stop", zap.String("err", err.Error()))
		}
		cancel()
	}
	if tgBot != nil {
		if err := tgBot.Stop(); err != nil {
			logger.Error("bot stop", zap.String("err", err.Error()))
		}
	}
	dispatcher.Wait()
}

func newSlotStore(logger *zap.Logger, config *provider.Config) (dialog.SlotStore, func(), error) {
	ttl := config.SlotsConfig.TTL
	switch config.SlotsConfig.Backend {
	case "redis":
		r := store.NewRedis(logger.Named("slots"), store.NewRedisClient(config.RedisConfig), ttl)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		logger.Info("slot store", zap.String("backend", "redis"), zap.String("addr", config.RedisConfig.Address))
		return r, func() { _ = r.Close() }, nil
	default:
		logger.Info("slot store", zap.String("backend", "memory"), zap.Duration("ttl", ttl))
		return store.NewMemory(logger.Named("slots"), ttl), func() {}, nil
	}
}
