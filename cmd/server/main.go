package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"wuphf.social/internal/catalogs"
	"wuphf.social/internal/config"
	"wuphf.social/internal/fanout"
	"wuphf.social/internal/hub"
	"wuphf.social/internal/notify"
	"wuphf.social/internal/persistence/eventlog"
	"wuphf.social/internal/store"
	"wuphf.social/internal/transport/httpapi"
	"wuphf.social/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (overrides config)")
		configPath = flag.String("config", "./configs/wuphf.yaml", "server config path")
		configDir  = flag.String("configs", "./configs", "seed/config directory")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("config not found (%s); using defaults", *configPath)
			cfg = config.Defaults()
		} else {
			logger.Fatalf("load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	seed, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load seed data: %v", err)
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "wuphf.db"), store.Options{MaxContentChars: cfg.MaxContentChars})
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := st.SeedIfEmpty(ctx, seed); err != nil {
		logger.Fatalf("seed store: %v", err)
	}

	evlog := eventlog.New(cfg.DataDir)
	defer evlog.Close()

	h := hub.New(logger, cfg.ClientQueue, evlog)
	sim := notify.NewSimulator(cfg.ChannelDelay(), cfg.PrinterDelay())
	fo := fanout.New(st, sim, h, logger, cfg.DemoStagger())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP wuphf_connected_clients Currently connected realtime clients.\n")
		fmt.Fprintf(rw, "# TYPE wuphf_connected_clients gauge\n")
		fmt.Fprintf(rw, "wuphf_connected_clients %d\n", h.Clients())

		if n, err := st.CountWuphfs(r.Context()); err == nil {
			fmt.Fprintf(rw, "# HELP wuphf_posts Stored wuphf count.\n")
			fmt.Fprintf(rw, "# TYPE wuphf_posts gauge\n")
			fmt.Fprintf(rw, "wuphf_posts %d\n", n)
		}

		counts := h.EventCounts()
		events := make([]string, 0, len(counts))
		for ev := range counts {
			events = append(events, ev)
		}
		sort.Strings(events)
		fmt.Fprintf(rw, "# HELP wuphf_events_total Broadcast events by type.\n")
		fmt.Fprintf(rw, "# TYPE wuphf_events_total counter\n")
		for _, ev := range events {
			fmt.Fprintf(rw, "wuphf_events_total{event=%q} %d\n", ev, counts[ev])
		}

		fmt.Fprintf(rw, "# HELP wuphf_events_dropped_total Events dropped on full client queues.\n")
		fmt.Fprintf(rw, "# TYPE wuphf_events_dropped_total counter\n")
		fmt.Fprintf(rw, "wuphf_events_dropped_total %d\n", h.Dropped())

		fmt.Fprintf(rw, "# HELP wuphf_eventlog_entries_total Audit log entries written since start.\n")
		fmt.Fprintf(rw, "# TYPE wuphf_eventlog_entries_total counter\n")
		fmt.Fprintf(rw, "wuphf_eventlog_entries_total %d\n", evlog.Entries())
	})

	httpapi.NewServer(fo, st, logger, cfg.RecentLimit).Register(mux)

	recentCount := func(ctx context.Context) int {
		wuphfs, err := st.RecentWuphfs(ctx, cfg.RecentLimit)
		if err != nil {
			return 0
		}
		return len(wuphfs)
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(h, logger, seed.Digest, recentCount).Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
