package bootstrap

import (
	"context"
	"log"

	"contact-assistant-be/internal/config"
	"contact-assistant-be/internal/constant"
	"contact-assistant-be/internal/controller"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/pkg/serverutils"
	"contact-assistant-be/internal/repository/memory"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/internal/service"
	"contact-assistant-be/internal/websocket"
	"contact-assistant-be/pkg/crm"
	"contact-assistant-be/pkg/crm/hubspot"
	"contact-assistant-be/pkg/crm/salesforce"
	"contact-assistant-be/pkg/events"
	"contact-assistant-be/pkg/grounding/bundle"
	"contact-assistant-be/pkg/grounding/evidence"
	"contact-assistant-be/pkg/grounding/resolver"
	"contact-assistant-be/pkg/grounding/title"
	"contact-assistant-be/pkg/llm"
	"contact-assistant-be/pkg/llm/factory"
	"contact-assistant-be/pkg/metrics"

	pktNats "contact-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	CrmController  controller.ICrmController

	// Background Services (Exposed for main.go to run)
	TitleService service.ITitleService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())
	groundingLogger := logger.NewIsolatedLogger(cfg.App.GroundingLogPath)

	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() {
		_ = groundingLogger.Sync()
		_ = sysLogger.Sync()
	})

	// 2. Job queue for title generation
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Model provider
	baseProvider, err := factory.NewLLMProvider(ctx, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.APIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	llmProvider := llm.NewResilient(baseProvider, cfg.LLM.Timeout, cfg.LLM.MaxRetries,
		llm.WithAttemptObserver(metrics.RecordModelAttempt),
	)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)

	// 4. Grounding pipeline
	fieldTables, err := crm.LoadFieldTables()
	if err != nil {
		log.Fatalf("[FATAL] Failed to load CRM field tables: %v", err)
	}
	gatherer := crm.NewGatherer(uowFactory, groundingLogger, crmProviders(cfg, fieldTables)...)
	finder := evidence.NewFinder(uowFactory, evidence.Limits{
		Confirmed: cfg.Context.ConfirmedLimit,
		Heuristic: cfg.Context.HeuristicLimit,
		Recent:    cfg.Context.RecentLimit,
	}, groundingLogger)
	assembler := bundle.NewAssembler(resolver.NewResolver(uowFactory, groundingLogger), finder, gatherer)
	log.Printf("[INFO] CRM providers in priority order: %v", gatherer.Providers())

	// 5. Infrastructure
	eventPublisher := c.connectNats(ctx, cfg, sysLogger)

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(connectRedis(ctx, cfg), wsLogger)
	go wsHub.Run(ctx)
	c.WebSocketHub = wsHub

	// 6. Services
	titleJobs := memory.NewTitleJobRepository(2 * cfg.Title.Timeout)
	generator := title.NewGenerator(llmProvider, cfg.LLM.TitleModel, cfg.Title.MaxQuestionLength)

	c.TitleService = service.NewTitleService(
		pubSub,
		cfg.Title.Topic,
		uowFactory,
		generator,
		titleJobs,
		wsHub,
		eventPublisher,
		sysLogger,
		cfg.Title.Timeout,
		cfg.Title.Workers,
	)
	chatService := service.NewChatService(
		uowFactory,
		assembler,
		llmProvider,
		service.NewPublisherService(cfg.Title.Topic, pubSub),
		titleJobs,
		eventPublisher,
		sysLogger,
		cfg.Context.HistoryLimit,
	)

	// 7. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.ChatController = controller.NewChatController(chatService, wsHub, auth)
	c.CrmController = controller.NewCrmController(cfg.CRM.Providers, fieldTables, auth)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func crmProviders(cfg *config.Config, tables crm.FieldTables) []crm.Provider {
	var providers []crm.Provider
	for _, name := range cfg.CRM.Providers {
		table, ok := tables.For(name)
		if !ok {
			log.Printf("[WARN] No field table for CRM provider %q, skipping", name)
			continue
		}
		switch name {
		case hubspot.ProviderName:
			providers = append(providers, hubspot.NewClient(cfg.CRM.HubspotBaseURL, table, cfg.CRM.Timeout))
		case salesforce.ProviderName:
			providers = append(providers, salesforce.NewClient(cfg.CRM.SalesforceAPIVersion, table, cfg.CRM.Timeout))
		default:
			log.Printf("[WARN] Unknown CRM provider %q, skipping", name)
		}
	}
	return providers
}

// connectNats returns a no-op publisher when NATS is unreachable.
func (c *Container) connectNats(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) events.Publisher {
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		return events.Nop{}
	}
	c.closers = append(c.closers, natsPub.Close)

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		return natsPub
	}
	c.closers = append(c.closers, natsSub.Close)

	audit := func(ctx context.Context, event events.Event) error {
		sysLogger.Info(constant.EventsLogModule, event.EventType(), event.Payload())
		return nil
	}
	if err := natsSub.Subscribe(ctx, ">", "contact-assistant-audit", audit); err != nil {
		log.Printf("[WARN] Failed to subscribe to events: %v", err)
	}
	return natsPub
}

// connectRedis returns nil when Redis is unreachable; the hub then runs
// single-instance.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
