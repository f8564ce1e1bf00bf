package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/aws"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/config"
	"github.com/imrishuroy/go-storefront/internal/content"
	"github.com/imrishuroy/go-storefront/internal/handlers"
	"github.com/imrishuroy/go-storefront/internal/idempotency"
	"github.com/imrishuroy/go-storefront/internal/inventory"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/metrics"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/reviews"
	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/users"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	clients, err := aws.NewAWSClients(context.Background(), aws.Settings{
		Region:           cfg.AWS.Region,
		EndpointOverride: cfg.AWS.EndpointOverride,
		MaxAttempts:      cfg.AWS.MaxAttempts,
	})
	if err != nil {
		zl.Fatal("failed to init aws clients", zap.Error(err))
	}

	r := setupRouter(cfg, clients, zl)

	// if RUN_LOCAL is set, serve HTTP directly for development.
	if cfg.Server.RunLocal {
		addr := ":" + cfg.Server.Port
		zl.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			zl.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func setupRouter(cfg *config.Config, clients *aws.AWSClients, zl *zap.Logger) *gin.Engine {
	db := clients.DynamoDB
	seq := store.NewSequence(db, cfg.Tables.Counters)
	v := validation.New()

	productStore := catalog.NewProductStore(db, cfg.Tables.Products, seq)
	categoryStore := catalog.NewCategoryStore(db, cfg.Tables.Categories, seq)
	idemStore := idempotency.NewStore(db, cfg.Tables.Idempotency, cfg.Idempotency.TTL)
	orderStore := orders.NewStore(db, cfg.Tables.Orders, cfg.Tables.OrdersUserIndex, seq, productStore, idemStore)

	var publisher orders.EventPublisher = orders.NopPublisher{}
	if cfg.Queue.OrdersURL != "" {
		publisher = orders.NewQueuePublisher(aws.NewPublisher(clients.SQS, cfg.Queue.OrdersURL))
	} else {
		zl.Warn("ORDERS_QUEUE_URL not set; order events are dropped")
	}

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	catalogSvc := catalog.NewService(productStore, categoryStore, v, zl)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return handlers.NewRouter(handlers.Config{
		Orders: orders.NewService(orderStore, inventory.NewChecker(catalogSvc), catalogSvc, publisher, v, zl,
			orders.Options{StrictTransitions: cfg.Orders.StrictTransitions}),
		Reviews: reviews.NewService(orderStore, productStore, v, zl),
		Catalog: catalogSvc,
		Users:   users.NewService(users.NewStore(db, cfg.Tables.Users, cfg.Tables.UsersNameIndex, seq), issuer, v, zl),
		Content: content.NewService(
			content.NewBannerStore(db, cfg.Tables.Banners, seq),
			content.NewTestimonialStore(db, cfg.Tables.Testimonials, seq),
			v, zl,
		),
		Idempotency: idemStore,
		Issuer:      issuer,
		Metrics:     metrics.New(cfg.Metrics.Prefix, reg),
		Logger:      zl,
	})
}
