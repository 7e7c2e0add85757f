package tasks

import (
	"fmt"

	"parcel-tracker/internal/core/config"
)

// New builds the queue selected by cfg.Driver.
func New(cfg config.TasksConfig) (Queue, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryQueue(cfg.Workers, cfg.Buffer, cfg.Timeout), nil
	case "nats":
		return NewNATSQueue(cfg.NATSURL, cfg.Timeout)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.RabbitMQURL, cfg.Workers, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown task queue driver: %s", cfg.Driver)
	}
}
