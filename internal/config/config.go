package config

import (
	"log"

	"github.com/spf13/viper"
)

type Database struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"ssl-mode"`
}

type KafkaWriter struct {
	BatchSize      int `mapstructure:"batch-size"`
	BatchTimeoutMs int `mapstructure:"batch-timeout-ms"`
}

type KafkaBroker struct {
	URL string `mapstructure:"url"`
}

type KafkaTopic struct {
	PaymentEvents string `mapstructure:"payment-events"`
}

type KafkaReader struct {
	GroupID string `mapstructure:"group-id"`
}

type Kafka struct {
	Writer KafkaWriter `mapstructure:"writer"`
	Broker KafkaBroker `mapstructure:"broker"`
	Topic  KafkaTopic  `mapstructure:"topic"`
	Reader KafkaReader `mapstructure:"reader"`
}

type EventProducer struct {
	PollingIntervalMs  int `mapstructure:"polling-interval-ms"`
	FetchSize          int `mapstructure:"fetch-size"`
	RescheduleDelayMs  int `mapstructure:"reschedule-delay-ms"`
	MaxPublishAttempts int `mapstructure:"max-publish-attempts"`
}

type Processing struct {
	Parallelism      int    `mapstructure:"parallelism"`
	WorkDurationMs   int    `mapstructure:"work-duration-ms"`
	WebhookURL       string `mapstructure:"webhook-url"`
	WebhookTimeoutMs int    `mapstructure:"webhook-timeout-ms"`
	IntakeEnabled    bool   `mapstructure:"intake-enabled"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Database   Database      `mapstructure:"database"`
	Kafka      Kafka         `mapstructure:"kafka"`
	Producer   EventProducer `mapstructure:"producer"`
	Processing Processing    `mapstructure:"processing"`
	Server     Server        `mapstructure:"server"`
	Metrics    Metrics       `mapstructure:"metrics"`
	Logs       Logs          `mapstructure:"logs"`
}

// LoadConfig reads <name>.yaml from path. Each service keeps its own file,
// so name is the service name.
func LoadConfig(path, name string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(name)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func MustLoadConfig(path, name string) *Config {
	config, err := LoadConfig(path, name)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}
