package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apihttp "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/observability"
	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/notifications"
	"orderflow/internal/adapters/out/policy"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/notificationrepo"
	"orderflow/internal/adapters/out/postgres/userrepo"
	"orderflow/internal/adapters/out/rabbitmq"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"
	platform "orderflow/internal/platform/observability"

	"github.com/labstack/echo/v4"
)

const instrumentationName = "orderflow/workflow"

type CompositionRoot struct {
	configs     Config
	logger      *slog.Logger
	instruments *platform.Instruments

	registry *order.Registry
	policy   *policy.StaticPolicy
	gate     *services.AuthorizationGate

	uowFactory ports.UnitOfWorkFactory
	users      ports.UserDirectory
	sink       ports.NotificationSink
	publisher  ports.EventPublisher

	closers []func(context.Context) error
}

// NewCompositionRoot wires storage, notification transport and the capability
// policy. PostgreSQL is used when DB_HOST is set and RabbitMQ when RABBITMQ_URL is
// set; otherwise the in-memory store and the in-process dispatcher take their place.
func NewCompositionRoot(ctx context.Context, configs Config, instruments *platform.Instruments) (*CompositionRoot, error) {
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}

	c := &CompositionRoot{
		configs:     configs,
		logger:      logger,
		instruments: instruments,
		registry:    order.DefaultRegistry(),
	}

	if err := c.initPolicy(); err != nil {
		return nil, err
	}

	admins, err := parseAdminIDs(configs.AdminIDs)
	if err != nil {
		return nil, err
	}

	if err = c.initStorage(ctx, admins); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	if err = c.initPublisher(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}

	return c, nil
}

func (c *CompositionRoot) initPolicy() error {
	var err error
	if c.configs.CapabilityPolicyFile != "" {
		c.policy, err = policy.NewStaticPolicy(c.configs.CapabilityPolicyFile)
	} else {
		c.policy, err = policy.NewDefaultPolicy()
	}
	if err != nil {
		return fmt.Errorf("capability policy: %w", err)
	}
	c.gate = services.NewAuthorizationGate(c.policy)
	return nil
}

func parseAdminIDs(raw []string) ([]actor.Actor, error) {
	admins := make([]actor.Actor, 0, len(raw))
	for _, s := range raw {
		id, err := kernel.UUIDFromString(s)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS: %w", err)
		}
		admin, err := actor.NewActor(id, actor.RoleAdmin, nil)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS: %w", err)
		}
		admins = append(admins, admin)
	}
	return admins, nil
}

func (c *CompositionRoot) initStorage(ctx context.Context, admins []actor.Actor) error {
	if len(admins) == 0 {
		c.logger.Warn("ADMIN_IDS is not set, payment notifications go to administrators already in the user directory")
	}

	if !c.configs.UsesDatabase() {
		c.logger.Warn("DB_HOST is not set, orders are kept in memory")
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
		c.users = memory.NewUserDirectory(admins...)
		c.sink = memory.NewNotificationLog()
		return nil
	}

	db, err := postgres.Connect(postgres.ConnectionConfig{
		Host:     c.configs.DBHost,
		Port:     c.configs.DBPort,
		User:     c.configs.DBUser,
		Password: c.configs.DBPassword,
		DBName:   c.configs.DBName,
		SSLMode:  c.configs.DBSslMode,
	}, c.logger)
	if err != nil {
		return err
	}
	c.closers = append(c.closers, func(context.Context) error {
		sqlDB, sqlErr := db.DB()
		if sqlErr != nil {
			return sqlErr
		}
		return sqlDB.Close()
	})
	if err = postgres.Migrate(db); err != nil {
		return err
	}

	users := userrepo.NewGormUserDirectory(db)
	for _, admin := range admins {
		if err = users.Save(ctx, admin); err != nil {
			return fmt.Errorf("seed administrator %s: %w", admin.ID, err)
		}
	}

	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	c.users = users
	c.sink = notificationrepo.NewGormNotificationSink(db, kernel.SystemClock)
	return nil
}

// initPublisher starts the queue that takes events off the request path.
// Events go to RabbitMQ when it is configured and to the notification sink
// otherwise.
func (c *CompositionRoot) initPublisher(ctx context.Context) error {
	opts := []notifications.Option{
		notifications.WithWorkers(c.configs.NotificationWorkers),
		notifications.WithQueueSize(c.configs.NotificationQueueSize),
		notifications.WithLogger(c.logger),
	}

	var dispatcher *notifications.AsyncDispatcher
	if c.configs.RabbitMQURL != "" {
		client, err := rabbitmq.Dial(ctx, c.configs.RabbitMQURL, rabbitmq.Topology{
			Exchange: c.configs.NotificationExchange,
			Queue:    c.configs.NotificationQueue,
		}, c.logger)
		if err != nil {
			return err
		}
		c.closers = append([]func(context.Context) error{func(context.Context) error { return client.Close() }}, c.closers...)
		dispatcher = notifications.NewAsyncForwarder(
			rabbitmq.NewPublisher(client, client.Topology().Exchange, kernel.SystemClock), opts...)
	} else {
		dispatcher = notifications.NewAsyncDispatcher(c.sink, opts...)
	}

	dispatcher.Start()
	c.publisher = dispatcher
	// The dispatcher drains before the transport and storage close.
	c.closers = append([]func(context.Context) error{dispatcher.Close}, c.closers...)
	return nil
}

// NotificationSink returns the sink in-process notifications are delivered to.
func (c *CompositionRoot) NotificationSink() ports.NotificationSink {
	return c.sink
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.WorkflowUoWFactory = FuncWorkflowUoWFactory(func() commands.WorkflowUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.gate, kernel.SystemClock)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusHandler {
	var f commands.WorkflowUoWFactory = FuncWorkflowUoWFactory(func() commands.WorkflowUoW {
		return c.uowFactory.Create()
	})
	handler := commands.NewUpdateOrderStatusCommandHandler(
		f,
		c.registry,
		services.NewTransitionValidator(c.registry),
		c.gate,
		c.publisher,
		c.users,
		commands.WithLogger(c.logger),
	)
	return observability.NewUpdateOrderStatusHandler(handler,
		observability.WithLogger(c.logger),
		observability.WithTracer(c.instruments.Tracer(instrumentationName)),
		observability.WithMeter(c.instruments.Meter(instrumentationName)),
	)
}

func (c *CompositionRoot) CreateGetStatusHistoryQueryHandler() queries.GetStatusHistoryQueryHandler {
	return queries.NewGetStatusHistoryQueryHandler(c.readFactory(), c.registry, c.gate)
}

func (c *CompositionRoot) CreateGetWorkflowInfoQueryHandler() queries.GetWorkflowInfoQueryHandler {
	return queries.NewGetWorkflowInfoQueryHandler(c.readFactory(), c.registry, c.gate)
}

func (c *CompositionRoot) CreateGetStatusSummaryQueryHandler() queries.GetStatusSummaryQueryHandler {
	return queries.NewGetStatusSummaryQueryHandler(c.readFactory(), c.registry)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	var syncer jobs.PolicySyncer
	if c.configs.CapabilityPolicyFile != "" {
		syncer = c.policy
	}
	return jobs.NewJobManager(
		c.CreateGetStatusSummaryQueryHandler(),
		c.configs.StatusReportSchedule,
		syncer,
		c.logger,
	)
}

// CreateRouter builds the echo instance with every API route registered.
func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	if c.configs.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	document, err := apihttp.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}

	server := apihttp.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateUpdateOrderStatusCommandHandler(),
		c.CreateGetStatusHistoryQueryHandler(),
		c.CreateGetWorkflowInfoQueryHandler(),
		document,
		c.logger,
	)
	return apihttp.NewRouter(server, apihttp.RouterConfig{
		JWTSecret: []byte(c.configs.JWTSecret),
		Document:  document,
		Logger:    c.logger,
	}), nil
}

// Close releases the notification transport and the database pool, in that order.
func (c *CompositionRoot) Close(ctx context.Context) error {
	var err error
	for _, closeFn := range c.closers {
		err = errors.Join(err, closeFn(ctx))
	}
	c.closers = nil
	return err
}

func (c *CompositionRoot) readFactory() queries.ReadUoWFactory {
	return FuncReadUoWFactory(func() queries.ReadUoW {
		return c.uowFactory.Create()
	})
}

type FuncWorkflowUoWFactory func() commands.WorkflowUoW

func (f FuncWorkflowUoWFactory) Create() commands.WorkflowUoW {
	return f()
}

type FuncReadUoWFactory func() queries.ReadUoW

func (f FuncReadUoWFactory) Create() queries.ReadUoW {
	return f()
}
