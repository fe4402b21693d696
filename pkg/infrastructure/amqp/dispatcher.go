package amqp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/service"
)

const publishTimeout = 5 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dispatcher publishes domain events as JSON to a topic exchange, routed by event type.
type Dispatcher struct {
	exchange string
	logger   logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel channel
}

func Dial(url, exchange string, logger logrus.FieldLogger) (*Dispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open amqp channel")
	}
	err = ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}

	d := newDispatcher(ch, exchange, logger)
	d.conn = conn
	return d, nil
}

func newDispatcher(ch channel, exchange string, logger logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		exchange: exchange,
		logger:   logger,
		channel:  ch,
	}
}

func (d *Dispatcher) Dispatch(event service.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "encode %s", event.Type())
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	err = d.channel.PublishWithContext(ctx, d.exchange, event.Type(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         event.Type(),
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", event.Type())
	}
	d.logger.WithField("event", event.Type()).Debug("event published")
	return nil
}

func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.channel.Close()
	if d.conn != nil {
		if cerr := d.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogDispatcher stands in for the broker when none is configured.
type LogDispatcher struct {
	logger logrus.FieldLogger
}

func NewLogDispatcher(logger logrus.FieldLogger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(event service.Event) error {
	d.logger.WithFields(logrus.Fields{
		"event":   event.Type(),
		"payload": event,
	}).Info("domain event")
	return nil
}
