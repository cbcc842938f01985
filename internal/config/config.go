// Package config loads daemon settings from defaults, an optional YAML file,
// WEATHER_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/gpio"
	"github.com/sweeney/weather-station/internal/logger"
	"github.com/sweeney/weather-station/internal/mqtt"
	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/sensor"
	"github.com/sweeney/weather-station/internal/web"
)

// Config is the complete daemon configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Status  StatusConfig  `mapstructure:"status"`
	Sample  SampleConfig  `mapstructure:"sample"`
	Nav     NavConfig     `mapstructure:"nav"`
	Chart   ChartConfig   `mapstructure:"chart"`
	GPIO    GPIOConfig    `mapstructure:"gpio"`
	Sensor  SensorConfig  `mapstructure:"sensor"`
	Matrix  MatrixConfig  `mapstructure:"matrix"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	Network NetworkConfig `mapstructure:"network"`
	Log     LogConfig     `mapstructure:"log"`

	Simulate    bool `mapstructure:"simulate"`
	PrintSample bool `mapstructure:"print_sample"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	RecvBuffer   int           `mapstructure:"recv_buffer"`
	MaxBody      int           `mapstructure:"max_body"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StatusConfig configures the read-only status server. An empty Addr disables it.
type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

type SampleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type NavConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type ChartConfig struct {
	Points int `mapstructure:"points"`
}

type GPIOConfig struct {
	Chip     string `mapstructure:"chip"`
	ButtonA  int    `mapstructure:"button_a"`
	ButtonB  int    `mapstructure:"button_b"`
	LEDGreen int    `mapstructure:"led_green"`
	LEDRed   int    `mapstructure:"led_red"`
	Buzzer   int    `mapstructure:"buzzer"`
}

type SensorConfig struct {
	AHT20Bus   string `mapstructure:"aht20_bus"`
	BMP280Bus  string `mapstructure:"bmp280_bus"`
	BMP280Addr int    `mapstructure:"bmp280_addr"`
}

type MatrixConfig struct {
	SPI    string `mapstructure:"spi"`
	Pixels int    `mapstructure:"pixels"`
}

// MQTTConfig configures telemetry. An empty Broker disables it.
type MQTTConfig struct {
	Broker     string        `mapstructure:"broker"`
	ClientID   string        `mapstructure:"client_id"`
	Heartbeat  time.Duration `mapstructure:"heartbeat"`
	BufferSize int           `mapstructure:"buffer"`
}

// NetworkConfig bounds the wait for a usable network at startup.
// Zero skips the wait.
type NetworkConfig struct {
	Wait time.Duration `mapstructure:"wait"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"http.addr":          ":80",
	"http.recv_buffer":   web.DefaultRecvBuffer,
	"http.max_body":      web.DefaultMaxBody,
	"http.read_timeout":  web.DefaultReadTimeout,
	"http.write_timeout": web.DefaultWriteTimeout,
	"status.addr":        ":8080",
	"sample.interval":    2 * time.Second,
	"nav.debounce":       nav.DefaultDebounce,
	"chart.points":       web.DefaultChartPoints,
	"gpio.chip":          "gpiochip0",
	"gpio.button_a":      gpio.DefaultButtonA,
	"gpio.button_b":      gpio.DefaultButtonB,
	"gpio.led_green":     gpio.DefaultLEDGreen,
	"gpio.led_red":       gpio.DefaultLEDRed,
	"gpio.buzzer":        gpio.DefaultBuzzer,
	"sensor.aht20_bus":   "",
	"sensor.bmp280_bus":  "",
	"sensor.bmp280_addr": sensor.BMP280Addr,
	"matrix.spi":         "",
	"matrix.pixels":      25,
	"mqtt.broker":        "",
	"mqtt.client_id":     "weather-station",
	"mqtt.heartbeat":     15 * time.Minute,
	"mqtt.buffer":        mqtt.DefaultBufferSize,
	"network.wait":       30 * time.Second,
	"log.level":          "info",
	"simulate":           false,
	"print_sample":       false,
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"http":         "http.addr",
	"status-http":  "status.addr",
	"sample":       "sample.interval",
	"debounce":     "nav.debounce",
	"broker":       "mqtt.broker",
	"heartbeat":    "mqtt.heartbeat",
	"log-level":    "log.level",
	"simulate":     "simulate",
	"print-sample": "print_sample",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("weather-station", pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("http", defaults["http.addr"].(string), "Station HTTP address")
	fs.String("status-http", defaults["status.addr"].(string), `Status server address ("" to disable)`)
	fs.Duration("sample", defaults["sample.interval"].(time.Duration), "Sensor sampling interval")
	fs.Duration("debounce", defaults["nav.debounce"].(time.Duration), "Button debounce window")
	fs.String("broker", "", `MQTT broker address, e.g. tcp://192.168.1.200:1883 ("" to disable)`)
	fs.Duration("heartbeat", defaults["mqtt.heartbeat"].(time.Duration), "Heartbeat interval (0 to disable)")
	fs.String("log-level", "info", "Log level: "+strings.Join(logger.Levels, "|"))
	fs.Bool("simulate", false, "Run with a simulated sensor and a logging indicator")
	fs.Bool("print-sample", false, "Print one calibrated sample and exit")
	return fs
}

// Load parses args (without the program name) and merges all sources.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("WEATHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errors.Wrapf(errors.ErrBindFlags, err, "flag %s", name)
		}
	}

	explicit, _ := fs.GetString("config")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("weather-station")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/weather-station")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicit != "" {
			return nil, errors.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrReadConfig, err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	return newFlagSet().FlagUsages()
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		ok   bool
	}{
		{"sample.interval", c.Sample.Interval > 0},
		{"http.read_timeout", c.HTTP.ReadTimeout > 0},
		{"http.write_timeout", c.HTTP.WriteTimeout > 0},
		{"http.recv_buffer", c.HTTP.RecvBuffer > 0},
		{"http.max_body", c.HTTP.MaxBody > 0},
		{"chart.points", c.Chart.Points > 0},
		{"matrix.pixels", c.Matrix.Pixels > 0},
	}
	for _, p := range positive {
		if !p.ok {
			return errors.Newf(errors.ErrInvalidConfig, "%s must be positive", p.name)
		}
	}

	nonNegative := []struct {
		name string
		d    time.Duration
	}{
		{"nav.debounce", c.Nav.Debounce},
		{"mqtt.heartbeat", c.MQTT.Heartbeat},
		{"network.wait", c.Network.Wait},
	}
	for _, n := range nonNegative {
		if n.d < 0 {
			return errors.Newf(errors.ErrInvalidConfig, "%s must not be negative", n.name)
		}
	}

	if c.HTTP.Addr == "" {
		return errors.Newf(errors.ErrInvalidConfig, "http.addr is required")
	}
	if c.Sensor.BMP280Addr <= 0 || c.Sensor.BMP280Addr > 0x7f {
		return errors.Newf(errors.ErrInvalidConfig, "sensor.bmp280_addr %#x is not a 7-bit address", c.Sensor.BMP280Addr)
	}
	if c.GPIO.ButtonA == c.GPIO.ButtonB {
		return errors.Newf(errors.ErrInvalidConfig, "gpio.button_a and gpio.button_b are both %d", c.GPIO.ButtonA)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrInvalidConfig, err)
	}
	return nil
}
