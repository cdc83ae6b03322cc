// Command thief runs Thief games between computer players, optionally with
// seat 0 played from the terminal, and prints the results. With --replay it
// prints a game's archived actions instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/service/internal/config"
	"github.com/jason-s-yu/thief/service/internal/game"
	"github.com/jason-s-yu/thief/service/internal/historian"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "thief:", err)
		os.Exit(2)
	}

	log := logrus.NewEntry(cfg.NewLogger())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("Run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	if cfg.Report.Replay != "" {
		return replay(ctx, cfg, os.Stdout)
	}

	sink, err := openSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.WithError(err).Warn("Closing action sinks")
		}
	}()

	aiConfig, err := cfg.AgentConfig()
	if err != nil {
		return err
	}
	opts := game.Options{
		Rules:       cfg.HouseRules(),
		Seats:       cfg.Seats(),
		AI:          aiConfig,
		Seed:        cfg.Table.Seed,
		Series:      cfg.Table.Series,
		AutoAdvance: true,
		Historian:   sink,
		Logger:      log,
	}
	if cfg.Table.Human {
		opts.AIDelay = cfg.AI.Delay
	}
	g, err := game.NewThiefGame(opts)
	if err != nil {
		return err
	}
	defer g.Close()

	p := newPrinter(os.Stdout, cfg.Table.Human)
	rep := newReport(g.ID)
	g.BroadcastFn = p.broadcast
	g.BroadcastToPlayerFn = p.private
	g.OnGameEnd = rep.record

	if cfg.Table.Human {
		err = playInteractive(ctx, g, p, os.Stdin)
	} else {
		err = playHeadless(ctx, g)
	}
	if err != nil {
		return err
	}
	rep.finish(g.State(engine.RevealAll))
	return rep.write(os.Stdout, cfg.Report.Format)
}

// playHeadless plays every game with no delay between moves.
func playHeadless(ctx context.Context, g *game.ThiefGame) error {
	if err := g.Start(); err != nil {
		return err
	}
	for g.Series != nil && !g.Series.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.NextGame(); err != nil {
			return err
		}
	}
	return nil
}

// openSinks connects every configured action stream.
func openSinks(ctx context.Context, cfg *config.Config, log *logrus.Entry) (historian.Sink, error) {
	var sinks []historian.Sink
	fail := func(err error) (historian.Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		enc, _ := historian.ParseEncoding(cfg.Redis.Encoding)
		rp, err := historian.NewRedisPublisher(ctx, historian.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			Encoding: enc,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, rp)
		log.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
	}
	if cfg.NATS.URL != "" {
		enc, _ := historian.ParseEncoding(cfg.NATS.Encoding)
		np, err := historian.NewNATSPublisher(historian.NATSOptions{
			URL:           cfg.NATS.URL,
			Prefix:        cfg.NATS.Prefix,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Encoding:      enc,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, np)
		log.WithField("url", cfg.NATS.URL).Info("Connected to NATS")
	}
	if cfg.Postgres.DSN != "" {
		ps, err := historian.NewPostgresStore(ctx, historian.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, ps)
		log.Info("Connected to PostgreSQL")
	}
	return historian.Combine(sinks...), nil
}
