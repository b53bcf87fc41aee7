package app

import (
	"context"
	"log"
	"time"

	"fundStatApp/config"
	"fundStatApp/internal/app/dto"
	"fundStatApp/internal/domain/repository"
	"fundStatApp/internal/domain/service"
	ws "fundStatApp/internal/handlers/websocket"
	redisrepo "fundStatApp/internal/infrastructure/cache"
	"fundStatApp/internal/infrastructure/pinning"
	"fundStatApp/internal/infrastructure/queue"
	chrepo "fundStatApp/internal/infrastructure/storage"
	"fundStatApp/internal/infrastructure/subgraph"
)

// Processor defines the common interface for event processors
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config          *config.Config
	TrendingService *service.TrendingService
	TrendingView    *service.TrendingView
	HoldingsService *service.HoldingsService
	StatsService    *service.WindowedPayStats
	Broadcaster     *ws.WebSocketBroadcaster
	EventProcessor  Processor
	KafkaConsumer   *queue.KafkaConsumer
	KafkaProducer   *queue.KafkaProducer
	EventCh         chan *dto.PayEventDTO
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	log.Println("Configuration loaded")

	// Subgraph querier
	client := subgraph.NewClient(cfg.SubgraphURL, cfg.SubgraphPageSize)
	querier := subgraph.NewQuerier(client)
	log.Println("Subgraph querier initialized")

	// Remote trending cache: pinning API by default, Redis as the
	// self-hosted alternative.
	redisRepo := redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var trendingCache repository.TrendingCache
	switch cfg.TrendingCacheBackend {
	case "redis":
		trendingCache = redisRepo
		log.Println("Using Redis trending cache")
	default:
		trendingCache = pinning.NewClient(cfg.PinningAPIURL, cfg.GatewayURL)
		log.Println("Using pinning-service trending cache")
	}

	// Durable analytics storage (optional).
	var persistence repository.EventPersistence
	chConfig := chrepo.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	}
	clickhouseRepo, err := chrepo.NewClickHouseRepository(chConfig)
	if err != nil {
		log.Printf("Warning: Failed to connect to ClickHouse: %v. Continuing without persistence.", err)
	} else {
		persistence = clickhouseRepo
		log.Println("ClickHouse persistent storage initialized")
	}

	// Domain services
	ttl := time.Duration(cfg.TrendingCacheTTLMinutes) * time.Minute
	app.TrendingService = service.NewTrendingService(
		querier, trendingCache, persistence, cfg.TrendingCacheName, ttl, nil,
	)
	app.HoldingsService = service.NewHoldingsService(querier)
	app.StatsService = service.NewWindowedPayStats(ctx, redisRepo, persistence, nil)
	log.Println("Domain services initialized")

	app.Broadcaster = ws.NewWebSocketBroadcaster()

	// Shared trending view for push consumers: refreshed on the cache
	// cadence with the current ranking pushed to WebSocket clients.
	app.TrendingView = service.NewTrendingView(ctx, app.TrendingService, 10, 7)
	go pushTrending(ctx, app.TrendingView, app.Broadcaster, ttl)

	// Event feed: Kafka when configured, direct channel otherwise.
	kafkaConfig := queue.KafkaConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		BatchSize:     cfg.KafkaBatchSize,
		BatchTimeout:  cfg.KafkaBatchTimeout,
	}
	app.KafkaConsumer = queue.NewKafkaConsumer(kafkaConfig)

	if app.KafkaConsumer != nil {
		log.Println("Using Kafka for event consumption...")

		eventCh, err := app.KafkaConsumer.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		app.EventCh = forwardEvents(eventCh)
		app.EventProcessor = NewEventProcessor(app.EventCh, app.StatsService, app.Broadcaster)
		app.KafkaProducer = queue.NewKafkaProducer(kafkaConfig)
		log.Println("Kafka consumer and producer initialized")
	} else {
		log.Println("Kafka not configured, using direct channel...")
		app.EventCh = make(chan *dto.PayEventDTO, cfg.EventBufferSize)
		app.EventProcessor = NewEventProcessor(app.EventCh, app.StatsService, app.Broadcaster)
	}

	return app, nil
}

// pushTrending broadcasts the view's latest ranking on every interval and
// kicks off the next refresh. The first broadcast happens one interval in,
// once the initial load has settled.
func pushTrending(ctx context.Context, view *service.TrendingView, b *ws.WebSocketBroadcaster, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if data, loading := view.Snapshot(); !loading && data != nil {
				b.BroadcastTrending(data)
			}
			view.Refresh()
		}
	}
}

// forwardEvents adapts the consumer's receive-only channel to the
// processor's channel type.
func forwardEvents(in <-chan *dto.PayEventDTO) chan *dto.PayEventDTO {
	out := make(chan *dto.PayEventDTO)
	go func() {
		for ev := range in {
			if ev != nil {
				out <- ev
			}
		}
		close(out)
	}()
	return out
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.KafkaConsumer != nil {
		log.Println("Closing Kafka consumer...")
		if err := a.KafkaConsumer.Close(); err != nil {
			log.Printf("Error closing Kafka consumer: %v", err)
		}
	}
	if a.KafkaProducer != nil {
		log.Println("Closing Kafka producer...")
		if err := a.KafkaProducer.Close(); err != nil {
			log.Printf("Error closing Kafka producer: %v", err)
		}
	}
}
