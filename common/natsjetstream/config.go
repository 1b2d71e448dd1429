package natsjetstream

import "time"

type Config struct {
	URL           string
	Name          string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

type ConsumerConfig struct {
	StreamName string
	// Durable consumers survive restarts; leave empty for an ephemeral
	// per-process consumer.
	Durable        string
	FilterSubjects []string
	AckPolicy      string
	DeliverPolicy  string
	AckWait        time.Duration
	MaxDeliver     int
	MaxAckPending  int
}
