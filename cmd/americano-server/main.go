package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/NYTimes/gziphandler"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vgurov/americano/internal/adminauth"
	"github.com/vgurov/americano/internal/database"
	"github.com/vgurov/americano/internal/tourney"
	"github.com/vgurov/americano/internal/tourneyapi"
	"github.com/vgurov/americano/internal/util/signal"
	"github.com/vgurov/americano/internal/version"
	"golang.org/x/time/rate"
)

var serverCmd = &cobra.Command{
	Use:     "americano-server",
	Args:    cobra.ExactArgs(0),
	Version: version.Version,
	Short:   "Start americano tournament server",
	Long: `Americano runs ladder tournaments: bucketed team formation, four courts,
winners climb towards court 1 and losers slide towards court 4.

This command runs the API server.
`,
}

func makeLogger() *slog.Logger {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func main() {
	p := serverCmd.Flags()
	optsPath := p.StringP(
		"options", "o", "",
		"options file",
	)
	secretsPath := p.StringP(
		"secrets", "s", "",
		"secrets file",
	)
	if err := serverCmd.MarkFlagRequired("options"); err != nil {
		panic(err)
	}
	if err := serverCmd.MarkFlagRequired("secrets"); err != nil {
		panic(err)
	}

	serverCmd.RunE = func(cmd *cobra.Command, _args []string) error {
		rawSecrets, err := os.ReadFile(*secretsPath)
		if err != nil {
			rawSecrets = nil
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("read secrets: %w", err)
			}
		}
		var secrets Secrets
		if err := toml.Unmarshal(rawSecrets, &secrets); err != nil {
			return fmt.Errorf("unmarshal secrets: %w", err)
		}
		secretsChanged, err := secrets.GenerateMissing()
		if err != nil {
			return fmt.Errorf("generate secrets: %w", err)
		}
		if secretsChanged {
			buf, err := toml.Marshal(&secrets)
			if err != nil {
				return fmt.Errorf("marshal secrets: %w", err)
			}
			if err := os.WriteFile(*secretsPath, buf, 0600); err != nil {
				return fmt.Errorf("write secrets: %w", err)
			}
		}

		rawOpts, err := os.ReadFile(*optsPath)
		if err != nil {
			return fmt.Errorf("read options: %w", err)
		}
		var opts Options
		if err := toml.Unmarshal(rawOpts, &opts); err != nil {
			return fmt.Errorf("unmarshal options: %w", err)
		}
		opts.FillDefaults()
		if err := opts.MixSecrets(&secrets); err != nil {
			return fmt.Errorf("mix secrets into options: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		log := makeLogger()

		db, err := database.New(log, opts.DB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		mgr := tourney.NewManager(log, db)

		mux := http.NewServeMux()
		if err := tourneyapi.RegisterServer(mgr, mux, tourneyapi.ServerOptions{
			TokenChecker: func(token string) error {
				return adminauth.VerifyToken(token, opts.adminTokenDigest, opts.TokenHash)
			},
			PublicRate:  rate.Limit(opts.PublicRate),
			PublicBurst: opts.PublicBurst,
		}, opts.APIPrefix, log); err != nil {
			return fmt.Errorf("register server: %w", err)
		}

		servs, err := newServers(ctx, log, &opts, gziphandler.GzipHandler(mux))
		if err != nil {
			return fmt.Errorf("create servers: %w", err)
		}
		servs.Go()
		defer servs.Shutdown()

		<-ctx.Done()
		return nil
	}

	if err := serverCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
