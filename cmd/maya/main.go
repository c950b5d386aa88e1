package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/server"
	"github.com/usemaya/maya/store"
	"github.com/usemaya/maya/store/db"
)

const (
	greetingBanner = `
Maya - your personal AI assistant
`
)

var (
	rootCmd = &cobra.Command{
		Use:   "maya",
		Short: "A conversational personal assistant service",
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:    viper.GetString("mode"),
				Addr:    viper.GetString("addr"),
				Port:    viper.GetInt("port"),
				Data:    viper.GetString("data"),
				Driver:  viper.GetString("driver"),
				DSN:     viper.GetString("dsn"),
				Secret:  viper.GetString("secret"),
				Version: version,

				GeminiAPIKeys:   viper.GetString("ai-gemini-api-keys"),
				GeminiModel:     viper.GetString("ai-gemini-model"),
				OpenAIAPIKeys:   viper.GetString("ai-openai-api-keys"),
				OpenAIBaseURL:   viper.GetString("ai-openai-base-url"),
				OpenAIModel:     viper.GetString("ai-openai-model"),
				DeepSeekAPIKeys: viper.GetString("ai-deepseek-api-keys"),
				DeepSeekBaseURL: viper.GetString("ai-deepseek-base-url"),
				DeepSeekModel:   viper.GetString("ai-deepseek-model"),

				MailServer:   viper.GetString("mail-server"),
				MailPort:     viper.GetInt("mail-port"),
				MailUsername: viper.GetString("mail-username"),
				MailPassword: viper.GetString("mail-password"),
				MailFrom:     viper.GetString("mail-from"),
			}
			if err := instanceProfile.Validate(); err != nil {
				slog.Error("invalid configuration", "error", err)
				os.Exit(1)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				slog.Error("failed to create db driver", "error", err)
				os.Exit(1)
			}

			storeInstance := store.New(dbDriver, instanceProfile)
			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				slog.Error("failed to create server", "error", err)
				os.Exit(1)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				slog.Info("received signal, shutting down", "signal", sig.String())
				s.Shutdown(ctx)
				cancel()
			}()

			fmt.Printf("%s version %q, listening on %s:%d, mode %q, driver %q\n",
				greetingBanner, version, instanceProfile.Addr, instanceProfile.Port, instanceProfile.Mode, instanceProfile.Driver)

			if err := s.Start(ctx); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("failed to start server", "error", err)
					cancel()
				}
			}

			// Wait for the shutdown goroutine to finish.
			<-ctx.Done()
		},
	}

	version = "0.1.0"
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("data", "")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address for the server")
	rootCmd.PersistentFlags().Int("port", 8081, "binding port for the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("secret", "", "secret used to sign auth tokens")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("maya")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
