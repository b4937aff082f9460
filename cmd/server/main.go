package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chatventure.world/internal/persistence/gamedb"
	"chatventure.world/internal/persistence/snapshot"
	"chatventure.world/internal/sim/catalogs"
	"chatventure.world/internal/sim/tuning"
	"chatventure.world/internal/sim/world"
	"chatventure.world/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "rng seed (0 = time-based)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dbPath     = flag.String("db", "", "path to game db (default: <data>/<world>/game.db)")
		disableDB  = flag.Bool("disable_db", false, "run without persistence (state lost on exit)")

		defaultClass = flag.String("default_class", "rogue", "class for creations that name none")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	// Day-row persistence. Boot order: today's row, else yesterday's,
	// else a fresh world.
	var db *gamedb.Store
	var resume *snapshot.GameStateV1
	if !*disableDB {
		path := strings.TrimSpace(*dbPath)
		if path == "" {
			path = filepath.Join(*dataDir, *worldID, "game.db")
		}
		db, err = gamedb.Open(path)
		if err != nil {
			logger.Fatalf("open game db: %v", err)
		}
		defer db.Close()

		blob, day, ok, err := db.LoadResume(time.Now())
		if err != nil {
			logger.Fatalf("load game state: %v", err)
		}
		if ok {
			state, err := snapshot.Decode(blob)
			if err != nil {
				logger.Fatalf("decode game state %s: %v", day, err)
			}
			resume = &state
			logger.Printf("resuming from day row %s (tick %d)", day, state.Header.Tick)
		} else {
			logger.Printf("no saved state for today or yesterday; starting fresh")
		}
	}

	// Snapshot writing happens off the world loop: the loop hands over a
	// deep copy, this goroutine encodes and upserts the day row.
	sink := make(chan snapshot.GameStateV1, 2)
	go func() {
		for state := range sink {
			blob, err := snapshot.Encode(state)
			if err != nil {
				logger.Printf("encode game state: %v", err)
				continue
			}
			if db != nil {
				db.SaveDay(state.Header.DateKey, state.Header.Tick, blob)
			}
		}
	}()

	w, err := world.New(world.Config{
		ID:           *worldID,
		Seed:         *seed,
		DefaultClass: *defaultClass,
	}, cats, tune, logger, sink, resume)
	if err != nil {
		logger.Fatalf("build world: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	wsSrv := ws.NewServer(w, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP chatventure_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_tick gauge\n")
		fmt.Fprintf(rw, "chatventure_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP chatventure_world_souls Registered souls.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_souls gauge\n")
		fmt.Fprintf(rw, "chatventure_world_souls{world=%q} %d\n", *worldID, m.Souls)

		fmt.Fprintf(rw, "# HELP chatventure_world_clients Connected clients.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_clients gauge\n")
		fmt.Fprintf(rw, "chatventure_world_clients{world=%q} %d\n", *worldID, m.Clients)

		fmt.Fprintf(rw, "# HELP chatventure_world_townships Townships in the directory.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_townships gauge\n")
		fmt.Fprintf(rw, "chatventure_world_townships{world=%q} %d\n", *worldID, m.Townships)

		fmt.Fprintf(rw, "# HELP chatventure_world_chatventures Live chatventures.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_chatventures gauge\n")
		fmt.Fprintf(rw, "chatventure_world_chatventures{world=%q} %d\n", *worldID, m.Chatventures)

		fmt.Fprintf(rw, "# HELP chatventure_world_actions_total Instant actions by outcome.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_actions_total counter\n")
		fmt.Fprintf(rw, "chatventure_world_actions_total{world=%q,outcome=%q} %d\n", *worldID, "accepted", m.ActionsAccepted)
		fmt.Fprintf(rw, "chatventure_world_actions_total{world=%q,outcome=%q} %d\n", *worldID, "rejected", m.ActionsRejected)

		fmt.Fprintf(rw, "# HELP chatventure_world_step_millis Duration of the last world step.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_step_millis gauge\n")
		fmt.Fprintf(rw, "chatventure_world_step_millis{world=%q} %g\n", *worldID, m.StepMillis)

		fmt.Fprintf(rw, "# HELP chatventure_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE chatventure_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "chatventure_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "chatventure_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "chatventure_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "leave", m.QueueDepths.Leave)
	})
	mux.HandleFunc("/debug/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"world_id": *worldID,
			"metrics":  w.Metrics(),
		})
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s (world %s)", *addr, *worldID)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Printf("shutting down")

	// Final save runs through the loop before it stops, so the day row
	// holds the exact exit state.
	if db != nil {
		state := w.RequestGameState()
		if blob, err := snapshot.Encode(state); err != nil {
			logger.Printf("encode final state: %v", err)
		} else if err := db.SaveDaySync(state.Header.DateKey, state.Header.Tick, blob); err != nil {
			logger.Printf("save final state: %v", err)
		} else {
			logger.Printf("saved day row %s at tick %d", state.Header.DateKey, state.Header.Tick)
		}
	}

	w.Stop()
	close(sink)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpSrv.Shutdown(shutdownCtx)
}
