package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default: built-in)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite event store path (overrides config, empty disables)")
	replayDir := flag.String("replay-dir", "", "directory for match replays (overrides config)")
	jwtSecret := flag.String("jwt-secret", os.Getenv("PROJECTILE_SIM_JWT_SECRET"), "HMAC secret for websocket tokens")
	connect := flag.String("connect", "", "run a prediction client against ws://host/ws")
	token := flag.String("token", "", "token for -connect")
	lead := flag.Int("lead", -1, "prediction lead in ticks for -connect (default: config)")
	fire := flag.String("fire", "", "weapon the -connect client fires once per second")
	replay := flag.String("replay", "", "summarize a replay file and exit")
	issueToken := flag.String("issue-token", "", "print a token for the given player name and exit")
	flag.Parse()

	if *replay != "" {
		if err := summarize(*replay); err != nil {
			log.Fatalf("replay: %v", err)
		}
		return
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *replayDir != "" {
		cfg.ReplayDir = *replayDir
	}
	if *jwtSecret != "" {
		cfg.JWTSecret = *jwtSecret
	}
	if *lead >= 0 {
		cfg.PredictionLeadTicks = *lead
	}

	tunings, err := LoadTunings(cfg.TuningPath)
	if err != nil {
		log.Fatalf("tunings: %v", err)
	}

	if *issueToken != "" {
		auth, err := NewAuth(cfg.JWTSecret)
		if err != nil || auth == nil {
			log.Fatalf("issue-token needs a jwt secret of at least %d bytes", minSecretLen)
		}
		tok, err := auth.IssueToken(*issueToken, tokenExpiry)
		if err != nil {
			log.Fatalf("issue-token: %v", err)
		}
		os.Stdout.WriteString(tok + "\n")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *connect != "" {
		if err := runClient(ctx, cfg, tunings, *connect, *token, *fire); err != nil {
			log.Fatalf("client: %v", err)
		}
		return
	}

	if err := serve(ctx, cfg, tunings); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func serve(ctx context.Context, cfg Config, tunings *Tunings) error {
	auth, err := NewAuth(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if auth == nil {
		log.Printf("no jwt secret set, websocket connections are unauthenticated")
	}

	game := NewGameFromConfig(cfg, tunings)
	log.Printf("Match %s at %d ticks/s", game.MatchID(), game.TickRate())

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.CreateMatch(game.MatchID(), game.TickRate()); err != nil {
			return err
		}
		analytics := NewAnalytics(db)
		defer analytics.Close()
		game.SetAnalytics(analytics)
	}

	if cfg.ReplayDir != "" {
		rw, err := NewReplayWriter(cfg.ReplayDir, game.MatchID())
		if err != nil {
			return err
		}
		defer func() {
			if err := rw.Close(); err != nil {
				log.Printf("replay close: %v", err)
			}
			log.Printf("Replay written to %s (%d frames)", rw.Path(), rw.Frames())
		}()
		game.SetReplay(rw)
	}

	hub := NewHub(game, auth, db)
	server := &http.Server{Addr: cfg.Addr, Handler: SetupRoutes(hub)}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return game.Run(ctx) })
	eg.Go(func() error { return hub.Run(ctx) })
	eg.Go(func() error {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func runClient(ctx context.Context, cfg Config, tunings *Tunings, wsURL, token, weapon string) error {
	world := NewGameWorld(cfg.World, cfg.Arena.Build(), tunings, cfg.TickRate)
	pc, err := DialPredictClient(ctx, wsURL, token, world, cfg.PredictionLeadTicks)
	if err != nil {
		return err
	}
	defer pc.Close()

	if err := pc.Join(JoinMsg{Name: "predictor", X: 320, Y: 320}); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	ctx, stop := context.WithCancel(ctx)
	eg.Go(func() error {
		defer stop()
		return pc.Run(ctx)
	})
	eg.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				frames, totals := pc.Stats()
				log.Printf("frames=%d kept=%d replaced=%d added=%d pruned=%d",
					frames, totals.Kept, totals.Replaced, totals.Added, totals.Pruned)
				if weapon != "" && pc.CharacterID() != NoOwner {
					if err := pc.Fire(FireMsg{Weapon: weapon, X: 320, Y: 320, DX: 1}); err != nil {
						return err
					}
				}
			}
		}
	})
	return eg.Wait()
}

func summarize(path string) error {
	frames, err := ReadReplay(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(SummarizeReplay(frames))
}
