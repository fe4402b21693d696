package main

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"

	"novacart/pkg/domain/service"
	"novacart/pkg/infrastructure/amqp"
	"novacart/pkg/infrastructure/auth"
	"novacart/pkg/infrastructure/mysql"
	"novacart/pkg/infrastructure/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	app := &cli.App{
		Name:  appID,
		Usage: "storefront backend: catalog, orders, notifications",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: migrate,
			},
			{
				Name:  "create-admin",
				Usage: "create an admin account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"NOVACART_ADMIN_PASSWORD"}},
				},
				Action: createAdmin,
			},
			{
				Name:   "dashboard",
				Usage:  "print sales statistics",
				Action: dashboard,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("novacart failed")
	}
}

type container struct {
	connector  *mysql.Connector
	dispatcher service.EventDispatcher
	closers    []func() error

	users         service.UserService
	auth          service.AuthService
	products      service.ProductService
	orders        service.OrderService
	notifications service.NotificationService
	dashboard     service.DashboardService
}

func newContainer(cfg *config, logger log.FieldLogger) (*container, error) {
	c := &container{connector: mysql.NewConnector(cfg.mysqlConfig())}
	c.closers = append(c.closers, c.connector.Close)

	if cfg.AMQPURL != "" {
		dispatcher, err := amqp.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.dispatcher = dispatcher
		c.closers = append(c.closers, dispatcher.Close)
	} else {
		c.dispatcher = amqp.NewLogDispatcher(logger)
	}

	userRepo := mysql.NewUserRepository(c.connector)
	productRepo := mysql.NewProductRepository(c.connector)
	orderRepo := mysql.NewOrderRepository(c.connector)
	notificationRepo := mysql.NewNotificationRepository(c.connector)

	passwords := auth.NewPasswordManager(bcrypt.DefaultCost)
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	c.users = service.NewUserService(userRepo, passwords, c.dispatcher, logger)
	c.auth = service.NewAuthService(userRepo, passwords, tokens, tokens)
	c.products = service.NewProductService(productRepo, c.dispatcher, logger)
	c.notifications = service.NewNotificationService(notificationRepo, userRepo)
	c.orders = service.NewOrderService(orderRepo, productRepo, userRepo, c.notifications, c.dispatcher, logger)
	c.dashboard = service.NewDashboardService(orderRepo, productRepo)
	return c, nil
}

func (c *container) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if cerr := c.closers[i](); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func setup() (*config, *log.Logger, error) {
	cfg, err := parseEnv()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func serve(_ *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if cfg.TokenSecret == "" {
		return errors.New("NOVACART_TOKEN_SECRET is required")
	}

	c, err := newContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	router := transport.Router(transport.Services{
		Auth:          c.auth,
		Users:         c.users,
		Products:      c.products,
		Orders:        c.orders,
		Notifications: c.notifications,
		Dashboard:     c.dashboard,
	}, transport.CookieOptions{Secure: cfg.CookieSecure, TTL: cfg.TokenTTL}, logger)

	killSignalChan := getKillSignalChan()
	logger.WithField("url", cfg.HTTPAddress).Info("Starting server")
	srv := startServer(cfg.HTTPAddress, router, logger)

	var healthSrv *healthServer
	if cfg.GRPCHealthAddress != "" {
		healthSrv, err = startHealthServer(cfg.GRPCHealthAddress, c.connector, logger)
		if err != nil {
			return err
		}
		defer healthSrv.Stop()
	}

	waitForKillSignalChan(killSignalChan, logger)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func migrate(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	connector := mysql.NewConnector(cfg.mysqlConfig())
	defer connector.Close()
	return mysql.Migrate(c.Context, connector, logger)
}

func createAdmin(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	deps, err := newContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	admin, err := deps.users.CreateAdmin(c.Context, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{"id": admin.ID, "email": admin.Email}).Info("admin created")
	return nil
}

func dashboard(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	deps, err := newContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	stats, err := deps.dashboard.Stats(c.Context, time.Now())
	if err != nil {
		return err
	}
	return printDashboard(c.App.Writer, stats)
}
