// Package server assembles the HTTP server: AI completion chain, intent
// classifier, conversation memory, reminder scheduler and the v1 API routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/usemaya/maya/internal/profile"
	"github.com/usemaya/maya/plugin/ai/aitime"
	"github.com/usemaya/maya/plugin/ai/generate"
	"github.com/usemaya/maya/plugin/ai/intent"
	"github.com/usemaya/maya/plugin/ai/memory"
	"github.com/usemaya/maya/plugin/ai/provider"
	"github.com/usemaya/maya/plugin/ai/reminder"
	"github.com/usemaya/maya/server/router/apiv1"
	"github.com/usemaya/maya/server/service/assistant"
	"github.com/usemaya/maya/store"
	"github.com/usemaya/maya/store/cache"
)

// Server is the main maya server.
type Server struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	cache      cache.Cache
	scheduler  *reminder.DelayScheduler
}

// NewServer wires every component from the profile and returns a server
// ready to start.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE, echo.OPTIONS},
	}))

	s := &Server{
		Secret:     profile.Secret,
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	if !profile.IsAIEnabled() {
		slog.Warn("no AI provider credentials configured, chat replies degrade to the fallback message")
	}
	generator := generate.NewGenerator(buildProviders(profile))
	classifier := intent.NewClassifier(generator)

	s.cache = cache.New(cache.Config{DefaultTTL: time.Hour})
	conversationMemory := memory.New(s.cache)

	var sender reminder.Sender
	if profile.IsMailEnabled() {
		sender = reminder.NewEmailSender(reminder.EmailConfig{
			Server:   profile.MailServer,
			Port:     profile.MailPort,
			Username: profile.MailUsername,
			Password: profile.MailPassword,
			From:     profile.MailFrom,
		})
	} else {
		slog.Warn("mail is not configured, reminders will only be logged")
		sender = reminder.NewLogSender()
	}
	s.scheduler = reminder.NewDelayScheduler(sender, reminder.DefaultSchedulerConfig())

	dispatcher := assistant.NewDispatcher(
		store,
		classifier,
		generator,
		conversationMemory,
		s.scheduler,
		aitime.NewParser(time.Local),
	)

	apiV1Service := apiv1.NewAPIV1Service(profile.Secret, profile, store, dispatcher, conversationMemory)
	apiV1Service.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "version": profile.Version})
	})

	return s, nil
}

// buildProviders assembles the fallback chain in fixed priority order:
// Gemini, then OpenAI, then DeepSeek. Providers without credentials are
// skipped.
func buildProviders(p *profile.Profile) []*generate.Provider {
	providers := []*generate.Provider{}

	if keys := p.GeminiKeys(); len(keys) > 0 {
		providers = append(providers, &generate.Provider{
			Name:    "gemini",
			Rotator: generate.NewKeyRotator(keys),
			Factory: provider.GeminiFactory(provider.GeminiConfig{
				Name:  "gemini",
				Model: p.GeminiModel,
			}),
		})
	}
	if keys := p.OpenAIKeys(); len(keys) > 0 {
		providers = append(providers, &generate.Provider{
			Name:    "openai",
			Rotator: generate.NewKeyRotator(keys),
			Factory: provider.OpenAIFactory(provider.OpenAIConfig{
				Name:    "openai",
				BaseURL: p.OpenAIBaseURL,
				Model:   p.OpenAIModel,
			}),
		})
	}
	if keys := p.DeepSeekKeys(); len(keys) > 0 {
		providers = append(providers, &generate.Provider{
			Name:    "deepseek",
			Rotator: generate.NewKeyRotator(keys),
			Factory: provider.OpenAIFactory(provider.OpenAIConfig{
				Name:    "deepseek",
				BaseURL: p.DeepSeekBaseURL,
				Model:   p.DeepSeekModel,
			}),
		})
	}
	return providers
}

// Start runs database migration and begins serving.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Store.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return s.echoServer.Start(fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port))
}

// Shutdown stops the HTTP listener, waits for in-flight reminder deliveries
// and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	s.scheduler.Stop()

	if s.cache != nil {
		_ = s.cache.Close()
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("maya stopped properly")
}
