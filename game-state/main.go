// Game State Service
// ==================
// Owns the blackjack tables. Each table wraps one round controller and
// exposes it over HTTP with an SSE feed; the same controller can be played
// from a terminal with `game-state play`.
//
// Round events optionally flow to the PostgreSQL ledger and to Redis.

package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/emanna1/blackjack-game/internal/config"
	"github.com/emanna1/blackjack-game/internal/events"
	"github.com/emanna1/blackjack-game/internal/ledger"
	"github.com/emanna1/blackjack-game/internal/round"
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:          "game-state",
		Short:        "Single-player blackjack against an automated dealer",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()
		},
	}
	root.PersistentFlags().Int("balance", round.DefaultStartingBalance, "starting balance for new tables")
	v.BindPFlag("STARTING_BALANCE", root.PersistentFlags().Lookup("balance"))

	serve := newServeCmd(v)
	root.AddCommand(serve, newPlayCmd(v))
	root.RunE = serve.RunE
	return root
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP game-state service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("port", "3001", "HTTP listen port")
	v.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	return cmd
}

func newPlayCmd(v *viper.Viper) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			game := round.New(
				round.WithTableID("terminal"),
				round.WithBalance(cfg.StartingBalance),
				round.WithSource(rand.New(rand.NewSource(seed))),
			)
			return runPlay(cmd.InOrStdin(), cmd.OutOrStdout(), game)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "deck shuffle seed (0 = random)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	var (
		recorders []round.Recorder
		history   historySource
		counter   eventCounter
	)

	// ── Ledger (optional) ─────────────────────────────────────────────────────
	if cfg.Ledger.Enabled {
		store, err := openLedger(ctx, cfg.Ledger)
		if err != nil {
			log.Printf("[game-state] ledger unavailable, continuing without it: %v", err)
		} else {
			defer store.Close()
			recorders = append(recorders, store)
			history = store
		}
	}

	// ── Redis events (optional) ───────────────────────────────────────────────
	if cfg.Events.Enabled {
		rdb, err := events.Connect(ctx, cfg.Events.Addr)
		if err != nil {
			log.Printf("[game-state] redis unavailable, events disabled: %v", err)
		} else {
			defer rdb.Close()
			pub := events.NewPublisher(rdb, cfg.Events.Channel, cfg.Events.BalanceChannel)
			recorders = append(recorders, pub)
			counter = pub
			log.Printf("[game-state] publishing round events to %q", cfg.Events.Channel)
		}
	}

	registry := NewRegistry(tableFactory(cfg, recorders))
	registry.GetOrCreate(cfg.DefaultTableID)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: (&server{registry: registry, history: history, events: counter}).routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[game-state] starting on :%s", cfg.Port)
		log.Printf("[game-state] default table: %s", cfg.DefaultTableID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Printf("[game-state] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func openLedger(ctx context.Context, cfg config.LedgerConfig) (*ledger.Store, error) {
	store, err := ledger.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func tableFactory(cfg config.Config, recorders []round.Recorder) func(id string) *Table {
	return func(id string) *Table {
		opts := []round.Option{
			round.WithTableID(id),
			round.WithBalance(cfg.StartingBalance),
		}
		for _, r := range recorders {
			opts = append(opts, round.WithRecorder(r))
		}
		return NewTable(round.New(opts...), cfg.ResetDelay)
	}
}
