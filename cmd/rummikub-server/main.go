package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rummikub/internal/cache"
	"rummikub/internal/config"
	"rummikub/internal/game"
	"rummikub/internal/log"
	"rummikub/internal/rearrange"
	"rummikub/internal/record"
	"rummikub/internal/server"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "rummikub-server",
	Short: "multiplayer Rummikub table server",
	Long:  `rummikub-server hosts Rummikub rooms over a line-based TCP protocol and a websocket gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log.InitLog(cfg.AppName, cfg.Log.Level)
		log.Info("line server %s, http %s, rules %+v", cfg.Server.Addr, cfg.HTTP.Addr, cfg.Game.Rules())
		if err := config.Watch(configFile, func(c *config.Config) {
			log.SetLevel(c.Log.Level)
		}); err != nil {
			log.Warn("config watch disabled: %v", err)
		}
		return run(context.Background(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "", "yaml config file; defaults and RUMMIKUB_* env vars apply without one")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// sinks connects whichever round-record backends are configured. A backend
// that cannot be reached is logged and skipped.
func sinks(ctx context.Context, cfg *config.Config) record.Sink {
	var out record.Multi
	if cfg.Nats.URL != "" {
		s, err := record.NewNATSSink(cfg.Nats.URL, cfg.Nats.Subject)
		if err != nil {
			log.Warn("round events disabled: %v", err)
		} else {
			log.Info("publishing round events to %s on %s", cfg.Nats.URL, cfg.Nats.Subject)
			out = append(out, s)
		}
	}
	if cfg.Redis.Addr != "" {
		s, err := record.NewRedisSink(ctx, record.RedisConf{
			Addr:           cfg.Redis.Addr,
			Password:       cfg.Redis.Password,
			DB:             cfg.Redis.DB,
			LeaderboardKey: cfg.Redis.LeaderboardKey,
		})
		if err != nil {
			log.Warn("leaderboard disabled: %v", err)
		} else {
			log.Info("leaderboard in redis %s key %s", cfg.Redis.Addr, cfg.Redis.LeaderboardKey)
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return record.Nop{}
	}
	return out
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := sinks(ctx, cfg)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("close sinks: %v", err)
		}
	}()

	opts := []game.Option{game.WithSink(sink)}
	if cfg.Cache.MaxCost > 0 {
		c, err := cache.NewGeneralCache(cfg.Cache.MaxCost, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		if err != nil {
			return err
		}
		defer c.Close()
		opts = append(opts, game.WithRearranger(rearrange.NewMemo(c).Rearrange))
	}
	rooms := game.NewManager(cfg.Game.Rules(), opts...)
	defer rooms.Close()

	srv := server.New(rooms)
	errc := make(chan error, 2)
	go func() {
		errc <- srv.ListenAndServe(ctx, cfg.Server.Addr)
	}()

	var httpSrv *http.Server
	if cfg.HTTP.Addr != "" {
		h, err := srv.Handler()
		if err != nil {
			return err
		}
		httpSrv = &http.Server{Addr: cfg.HTTP.Addr, Handler: h}
		go func() {
			log.Info("http listening on %s, URL: http://localhost%s/debug/statsviz/", cfg.HTTP.Addr, cfg.HTTP.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	stop := func() {
		cancel()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if httpSrv != nil {
			_ = httpSrv.Shutdown(sctx)
		}
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn("shutdown: %v", err)
		}
		log.Info("server stopped")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(c)
	select {
	case err := <-errc:
		stop()
		return err
	case s := <-c:
		log.Info("received %s, shutting down", s)
		stop()
		return nil
	}
}
