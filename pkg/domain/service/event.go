package service

import (
	"github.com/sirupsen/logrus"
)

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}

// dispatchEvent publishes event and only logs failures; events never affect the outcome
// of the operation that raised them.
func dispatchEvent(logger logrus.FieldLogger, dispatcher EventDispatcher, event Event) {
	if err := dispatcher.Dispatch(event); err != nil {
		logger.WithError(err).WithField("event", event.Type()).Error("failed to dispatch event")
	}
}
