package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=30m"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	CensoredFilepath     string        `env:"CENSORED_FILEPATH"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=32"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=250ms"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
