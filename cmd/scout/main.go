package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainscout/internal/config"
	"chainscout/internal/model"
	"chainscout/internal/notifier"
	"chainscout/internal/oracle"
	"chainscout/internal/report"
	"chainscout/internal/scheduler"
	"chainscout/internal/scout"
	"chainscout/internal/source"
	"chainscout/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	tokenList := flag.String("tokenList", `[["AAVE",100],["SNX",200],["REN",10000]]`,
		"JSON array of [symbol, minUnits] pairs for seed discovery")
	startTime := flag.String("startTime", "2021-01-01 00:00:00", "seed window start (YYYY-MM-DD HH:MM:SS)")
	endTime := flag.String("endTime", "2021-01-02 00:00:00", "seed window end (YYYY-MM-DD HH:MM:SS)")
	recentDays := flag.Int("recentWindowDays", 0, "recent activity window in days (0 = config default)")
	watch := flag.Bool("watch", false, "keep running and re-scan on the configured cron schedule")
	flag.Parse()

	log.Println("[INFO] chainscout starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	specs, err := model.ParseTokenList(*tokenList)
	if err != nil {
		log.Printf("[ERROR] token list: %v", err)
		os.Exit(2)
	}
	seedWindow, err := model.ParseWindow(*startTime, *endTime)
	if err != nil {
		log.Printf("[ERROR] seed window: %v", err)
		os.Exit(2)
	}
	mode, err := model.ParseCombineMode(cfg.Scout.CombineMode)
	if err != nil {
		log.Printf("[ERROR] combine mode: %v", err)
		os.Exit(2)
	}
	days := cfg.Scout.RecentWindowDays
	if *recentDays > 0 {
		days = *recentDays
	}

	// Init store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
			st = store.NewNoopStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewNoopStore()
	}

	// Init subgraph client, token directory, source, oracle
	client := source.NewClient(
		cfg.Subgraph.Endpoint,
		cfg.Subgraph.MaxRetries,
		time.Duration(cfg.Subgraph.BackoffBaseMs)*time.Millisecond,
		time.Duration(cfg.Subgraph.RequestTimeoutSec)*time.Second,
	)
	directory := source.NewGraphDirectory(client, st,
		time.Duration(cfg.Subgraph.TokenRefreshHours)*time.Hour, cfg.Subgraph.TokenPageSize)
	src := source.NewGraphSource(client, directory, cfg.Subgraph.PageSize)
	prices := oracle.NewCachedOracle(oracle.NewGraphOracle(client, directory,
		time.Duration(cfg.Scout.PriceStalenessHours)*time.Hour))

	engine := &scout.Engine{
		Resolver: &scout.Resolver{
			Evaluator:   &scout.Evaluator{Source: src},
			Concurrency: cfg.Scout.Concurrency,
		},
		Aggregator: &scout.Aggregator{
			Source:          src,
			Oracle:          prices,
			ChunkSize:       cfg.Scout.ChunkSize,
			Concurrency:     cfg.Scout.Concurrency,
			IncludeUnpriced: cfg.Scout.IncludeUnpriced,
			MinTotalUSD:     cfg.MinTotalUSDDecimal(),
		},
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)

	scan := func(ctx context.Context) error {
		recentWindow := model.TrailingWindow(time.Now(), days)
		res, err := engine.Run(ctx, specs, seedWindow, recentWindow, mode)
		if err != nil {
			return err
		}

		rep := report.FromResult(res)
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))

		if err := st.RecordRun(&store.RunRecord{
			TokenList:    *tokenList,
			SeedStart:    seedWindow.Start,
			SeedEnd:      seedWindow.End,
			RecentStart:  recentWindow.Start,
			RecentEnd:    recentWindow.End,
			CombineMode:  string(mode),
			SeedAccounts: len(res.Seeds),
			ReportJSON:   data,
		}); err != nil {
			log.Printf("[ERROR] record run: %v", err)
		}

		if tn.Enabled() {
			if err := tn.SendWithRetry(ctx, report.FormatText(rep), 3); err != nil {
				log.Printf("[ERROR] notify: %v", err)
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*watch {
		if err := scan(ctx); err != nil {
			log.Printf("[ERROR] scan: %v", err)
			if errors.Is(err, model.ErrInvalidSpec) {
				os.Exit(2)
			}
			os.Exit(1)
		}
		return
	}

	if cfg.Watch.Cron == "" {
		log.Fatal("[FATAL] watch mode requires watch.cron in config")
	}
	sched := scheduler.NewScheduler(ctx, scan)
	if err := sched.Register(cfg.Watch.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	log.Println("[INFO] chainscout is watching. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] chainscout stopped")
}
