package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"novacart/pkg/infrastructure/mysql"
)

const appID = "novacart"

type config struct {
	HTTPAddress       string `envconfig:"http_address" default:":8080"`
	GRPCHealthAddress string `envconfig:"grpc_health_address"`

	DBUser            string        `envconfig:"db_user" default:"novacart"`
	DBPassword        string        `envconfig:"db_password"`
	DBHost            string        `envconfig:"db_host" default:"localhost"`
	DBPort            string        `envconfig:"db_port" default:"3306"`
	DBName            string        `envconfig:"db_name" default:"novacart"`
	DBMaxOpenConns    int           `envconfig:"db_max_open_conns" default:"20"`
	DBMaxIdleConns    int           `envconfig:"db_max_idle_conns" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"db_conn_max_lifetime" default:"5m"`

	TokenSecret string        `envconfig:"token_secret"`
	TokenTTL    time.Duration `envconfig:"token_ttl" default:"168h"`

	AMQPURL      string `envconfig:"amqp_url"`
	AMQPExchange string `envconfig:"amqp_exchange" default:"novacart.events"`

	LogLevel     string `envconfig:"log_level" default:"info"`
	CookieSecure bool   `envconfig:"cookie_secure"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	return c, nil
}

func (c *config) mysqlConfig() mysql.Config {
	return mysql.Config{
		User:            c.DBUser,
		Password:        c.DBPassword,
		Host:            c.DBHost,
		Port:            c.DBPort,
		Database:        c.DBName,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}

func newLogger(c *config) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger, nil
}
