// sds011ctl wakes an SDS011 sensor, applies the configured report
// mode and work period, and prints one sample.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	sds011 "github.com/zing-dev/sds011-sdk"
)

type config struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
	Period  int           `mapstructure:"period"`
	Passive bool          `mapstructure:"passive"`
	Trace   bool          `mapstructure:"trace"`
}

func load() (config, error) {
	viper.SetConfigName("sds011ctl")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/sds011")
	viper.SetEnvPrefix("sds011")
	viper.AutomaticEnv()
	viper.SetDefault("address", "/dev/ttyUSB0")
	viper.SetDefault("timeout", "5s")
	viper.SetDefault("period", 0)
	viper.SetDefault("passive", true)

	var cfg config
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}
	err := viper.Unmarshal(&cfg)
	return cfg, err
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	cfg, err := load()
	if err != nil {
		sugar.Fatalf("load config: %v", err)
	}

	handler := sds011.NewClientHandler(cfg.Address)
	if cfg.Timeout > 0 {
		handler.Timeout = cfg.Timeout
	}
	if cfg.Trace {
		handler.Logger = sugar
	}
	if err := handler.Connect(); err != nil {
		sugar.Fatalf("connect %s: %v", cfg.Address, err)
	}
	defer func() { _ = handler.Close() }()

	client := sds011.NewClient(handler)

	firmware, err := client.Firmware()
	if err != nil {
		sugar.Fatalf("firmware: %v", err)
	}
	sugar.Infow("sensor found",
		"device", fmt.Sprintf("%04X", client.DeviceID()),
		"firmware", firmware.Date(),
	)

	if err := client.SetActive(true); err != nil {
		sugar.Fatalf("wake sensor: %v", err)
	}
	if cfg.Passive {
		if err := client.SetMode(sds011.ModePassive); err != nil {
			sugar.Fatalf("set mode: %v", err)
		}
	}
	if err := client.SetPeriod(cfg.Period); err != nil {
		sugar.Fatalf("set period: %v", err)
	}

	sample, err := client.Query()
	if errors.Is(err, sds011.ErrTimeout) {
		sugar.Fatal("no sample; sensor may be sleeping between work periods, try again later")
	}
	if err != nil {
		sugar.Fatalf("query: %v", err)
	}
	sugar.Infow("sample",
		"pm2.5", sample.PM25,
		"pm10", sample.PM10,
		"checksum_ok", sample.ChecksumOK(),
	)
}
