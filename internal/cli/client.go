package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"phone-trivia/internal/app"
	"phone-trivia/internal/config"
	"phone-trivia/internal/domain"
	"phone-trivia/internal/infra/avatar"
	"phone-trivia/internal/infra/memory"
	natsbus "phone-trivia/internal/infra/nats"
	pgloader "phone-trivia/internal/infra/postgres"
	infraredis "phone-trivia/internal/infra/redis"
	"phone-trivia/internal/logging"
	transport "phone-trivia/internal/transport/http"
)

type clientFlags struct {
	participantID string
	displayName   string
	room          string
	bus           string
}

// NewClientCmd runs one headless participant driven by stdin commands.
func NewClientCmd(configPath *string) *cobra.Command {
	var flags clientFlags
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Join a room as a participant (commands: answer N, start, next, end, again, questions N, rerender, reload, quit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context(), *configPath, flags)
		},
	}
	cmd.Flags().StringVar(&flags.participantID, "id", "", "participant id (default: config or random)")
	cmd.Flags().StringVar(&flags.displayName, "name", "", "display name")
	cmd.Flags().StringVar(&flags.room, "room", "", "room to join")
	cmd.Flags().StringVar(&flags.bus, "bus", "", "bus kind: memory, redis, nats, ws")
	return cmd
}

func runClient(ctx context.Context, configPath string, flags clientFlags) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyClientFlags(&cfg, flags)
	if cfg.Client.ParticipantID == "" {
		cfg.Client.ParticipantID = uuid.NewString()
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty).With().
		Str("component", "client").
		Str("room", cfg.Bus.Room).
		Logger()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	bus, done, closeBus, err := openBus(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closeBus()

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithSurface(app.SurfaceFunc(func(v app.View) {
			log.Debug().Str("phase", string(v.Phase)).Int("answered", v.AnsweredCount).Msg("render")
		})),
	}
	if cfg.Client.BankID != "" {
		opts = append(opts, app.WithQuestionSource(app.NewBankSource(bankRepository(cfg, redisClient, pool), cfg.Client.BankID)))
	}

	instanceID := uuid.NewString()
	var refresher *infraredis.Registry
	if redisClient != nil {
		refresher = infraredis.NewRegistry(redisClient, config.Duration(cfg.Redis.TTL, 10*time.Minute))
		opts = append(opts,
			app.WithRegistry(refresher),
			app.WithScoreStore(infraredis.NewScoreStore(redisClient)),
		)
	} else {
		opts = append(opts,
			app.WithRegistry(memory.NewRegistry()),
			app.WithScoreStore(memory.NewScoreStore()),
		)
	}
	if cfg.Avatar.BaseURL != "" {
		opts = append(opts, app.WithAvatarService(avatarService(cfg)))
	}

	client := app.New(app.Config{
		ParticipantID:      cfg.Client.ParticipantID,
		DisplayName:        cfg.Client.DisplayName,
		InstanceID:         instanceID,
		FallbackDelay:      config.Duration(cfg.Client.FallbackDelay, 5*time.Second),
		RecoveryRetryDelay: config.Duration(cfg.Client.RecoveryRetryDelay, 2*time.Second),
		AvatarSize:         cfg.Avatar.Size,
	}, bus, opts...)

	views, cancelViews := client.Subscribe()
	defer cancelViews()
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Stop()
	log.Info().Str("participant_id", cfg.Client.ParticipantID).Str("bus", cfg.Bus.Kind).Msg("client started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return logViews(gctx, views, log) })
	g.Go(func() error { return readCommands(gctx, os.Stdin, client, log) })
	if done != nil {
		g.Go(func() error {
			select {
			case <-done:
				return errors.New("relay connection closed")
			case <-gctx.Done():
				return nil
			}
		})
	}
	if refresher != nil {
		g.Go(func() error {
			return keepRegistered(gctx, refresher, cfg.Client.ParticipantID, instanceID, config.Duration(cfg.Redis.TTL, 10*time.Minute), log)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	log.Info().Msg("client stopped")
	return nil
}

func applyClientFlags(cfg *config.Config, flags clientFlags) {
	if flags.participantID != "" {
		cfg.Client.ParticipantID = flags.participantID
	}
	if flags.displayName != "" {
		cfg.Client.DisplayName = flags.displayName
	}
	if flags.room != "" {
		cfg.Bus.Room = flags.room
	}
	if flags.bus != "" {
		cfg.Bus.Kind = flags.bus
	}
}

// openBus returns the configured bus, a channel closed when the transport
// drops (nil when it reconnects on its own), and a close func.
func openBus(ctx context.Context, cfg config.Config, redisClient *redis.Client, log zerolog.Logger) (app.Bus, <-chan struct{}, func(), error) {
	pid := cfg.Client.ParticipantID
	switch cfg.Bus.Kind {
	case "memory":
		bus := memory.NewBus()
		return bus, nil, func() { _ = bus.Close() }, nil
	case "redis":
		if redisClient == nil {
			return nil, nil, nil, fmt.Errorf("redis bus needs redis.addr")
		}
		bus := infraredis.NewBus(redisClient, "trivia:room:"+cfg.Bus.Room, pid, log)
		return bus, nil, func() {}, nil
	case "nats":
		natsCfg := natsbus.DefaultConfig()
		if cfg.NATS.URL != "" {
			natsCfg.URL = cfg.NATS.URL
		}
		natsCfg.Subject = "trivia." + cfg.Bus.Room
		natsCfg.MaxReconnects = cfg.NATS.MaxReconnects
		natsCfg.ReconnectWait = config.Duration(cfg.NATS.ReconnectWait, natsCfg.ReconnectWait)
		bus, err := natsbus.Connect(natsCfg, pid, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return bus, nil, func() { _ = bus.Close() }, nil
	case "ws":
		if cfg.Bus.RelayURL == "" {
			return nil, nil, nil, fmt.Errorf("ws bus needs bus.relay_url")
		}
		u, err := transport.RelayURL(cfg.Bus.RelayURL, cfg.Bus.Room, pid, transport.RoleClient)
		if err != nil {
			return nil, nil, nil, err
		}
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		bus, err := transport.Dial(dialCtx, u, pid, log)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("dial relay: %w", err)
		}
		return bus, bus.Done(), func() { _ = bus.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown bus kind %q", cfg.Bus.Kind)
	}
}

// bankRepository layers a cache over Postgres, or over the built-in sample
// banks when no database is configured.
func bankRepository(cfg config.Config, redisClient *redis.Client, pool *pgxpool.Pool) app.BankRepository {
	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}
	ttl := config.Duration(cfg.Client.BankTTL, 10*time.Minute)
	if redisClient != nil {
		return infraredis.NewQuestionCache(redisClient, loader, ttl)
	}
	return memory.NewQuestionCache(loader, ttl)
}

func avatarService(cfg config.Config) *avatar.HTTPService {
	svc := avatar.NewHTTPService(cfg.Avatar.BaseURL, config.Duration(cfg.Avatar.Timeout, 5*time.Second))
	if cfg.Avatar.APIKey != "" {
		svc.SetHeader(avatar.APIKeyHeader, cfg.Avatar.APIKey)
	}
	return svc
}

func keepRegistered(ctx context.Context, reg *infraredis.Registry, participantID, instanceID string, ttl time.Duration, log zerolog.Logger) error {
	interval := ttl / 3
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := reg.Refresh(ctx, participantID, instanceID); err != nil {
				log.Warn().Err(err).Msg("refresh instance registration")
			}
		}
	}
}

// sampleBanks is the offline question bank used when Postgres is not configured.
func sampleBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{
					ID:       "general-1",
					Prompt:   "What is 2 + 2?",
					Category: "math",
					Options: []domain.AnswerOption{
						{Text: "3"}, {Text: "4", Correct: true}, {Text: "5"}, {Text: "22"},
					},
				},
				{
					ID:       "general-2",
					Prompt:   "Which planet is known as the Red Planet?",
					Category: "science",
					Options: []domain.AnswerOption{
						{Text: "Venus"}, {Text: "Jupiter"}, {Text: "Mars", Correct: true}, {Text: "Mercury"},
					},
				},
				{
					ID:       "general-3",
					Prompt:   "How many continents are there?",
					Category: "geography",
					Options: []domain.AnswerOption{
						{Text: "5"}, {Text: "6"}, {Text: "7", Correct: true}, {Text: "8"},
					},
				},
			},
		},
	}
}
