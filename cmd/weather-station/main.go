// Command weather-station samples an AHT20/BMP280 pair, raises a matrix
// alert when readings leave their configured bands, and serves a small web
// UI whose page follows two GPIO navigation buttons.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/sweeney/weather-station/internal/config"
	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/gpio"
	"github.com/sweeney/weather-station/internal/indicator"
	"github.com/sweeney/weather-station/internal/logger"
	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/mqtt"
	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/sensor"
	"github.com/sweeney/weather-station/internal/status"
	"github.com/sweeney/weather-station/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			fmt.Fprintf(os.Stderr, "Usage of weather-station:\n%s", config.Usage())
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(2)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	log := logger.New(os.Stderr, level, logger.IsService())

	if err := run(cfg, log); err != nil {
		logger.WithCode(log.Error(), err).Msg("fatal")
		os.Exit(1)
	}
}

// hardware is what run needs from the board.
type hardware struct {
	reader  sensor.Reader
	bridge  indicator.Bridge
	buttons gpio.Buttons
}

func (h *hardware) Close() {
	if h.buttons != nil {
		h.buttons.Close()
	}
	if h.bridge != nil {
		h.bridge.Close()
	}
	if h.reader != nil {
		h.reader.Close()
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	navigator := nav.New(cfg.Nav.Debounce)

	hw := &hardware{}
	defer hw.Close()
	if cfg.Simulate {
		hw.reader = sensor.NewSimulatedReader(time.Now)
		hw.bridge = indicator.NewLogBridge(logger.Component(log, "indicator"))
		go readKeys(os.Stdin, navigator, time.Now)
	} else if err := openHardware(cfg, navigator, hw, log); err != nil {
		return err
	}

	if cfg.PrintSample {
		return printSample(os.Stdout, hw.reader)
	}

	if err := indicator.Connecting(hw.bridge); err != nil {
		log.Warn().Err(err).Msg("indicator update failed")
	}
	if !waitForNetwork(hasIPv4, cfg.Network.Wait, networkPollInterval, time.Sleep) {
		<-indicator.ConnectFailed(hw.bridge)
		return errors.Newf(errors.ErrTransport, "no network after %v", cfg.Network.Wait)
	}
	indicator.Connected(hw.bridge)

	store := logic.NewStore()
	pages, err := web.NewPages(cfg.Chart.Points, cfg.HTTP.MaxBody)
	if err != nil {
		return err
	}
	dispatcher := web.NewDispatcher(store, navigator, pages, logger.Component(log, "dispatch"))

	tracker := status.NewTracker(time.Now(), status.Config{
		SampleMs:    cfg.Sample.Interval.Milliseconds(),
		DebounceMs:  cfg.Nav.Debounce.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Simulated:   cfg.Simulate,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		rp := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BufferSize: cfg.MQTT.BufferSize,
		}, logger.Component(log, "mqtt"))
		publisher, mqttStatus = rp, rp
	}
	defer publisher.Close()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.SystemStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.SystemStartup, ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		logger.WithCode(log.Warn(), err).Msg("failed to publish startup event")
	}

	// A failed bind leaves the station sampling without its web UI.
	var txs <-chan *web.Transaction
	srv, err := web.Listen(cfg.HTTP.Addr, web.ServerConfig{
		RecvBuffer:   cfg.HTTP.RecvBuffer,
		MaxBody:      cfg.HTTP.MaxBody,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, logger.Component(log, "http"))
	if err != nil {
		logger.WithCode(log.Error(), err).Str("addr", cfg.HTTP.Addr).Msg("web server unavailable")
	} else {
		txs = srv.Transactions()
		go srv.Serve()
		defer srv.Close()
		log.Info().Stringer("addr", srv.Addr()).Msg("web server listening")
	}

	if cfg.Status.Addr != "" {
		ss := web.NewStatusServer(cfg.Status.Addr, tracker, logger.Component(log, "status"))
		go func() {
			if err := ss.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Msg("status server error")
			}
		}()
		defer ss.Shutdown(context.Background())
	}

	log.Info().
		Dur("sample", cfg.Sample.Interval).
		Dur("debounce", cfg.Nav.Debounce).
		Str("broker", cfg.MQTT.Broker).
		Dur("heartbeat", cfg.MQTT.Heartbeat).
		Bool("simulate", cfg.Simulate).
		Str("config", cfg.File).
		Msg("started")

	ticker := time.NewTicker(cfg.Sample.Interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	st := &station{
		store:      store,
		nav:        navigator,
		dispatcher: dispatcher,
		reader:     hw.reader,
		bridge:     hw.bridge,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		log:        logger.Component(log, "station"),
		now:        time.Now,
		heartbeat:  cfg.MQTT.Heartbeat,
	}
	return st.run(ticker.C, txs, sigCh)
}

// openHardware brings up the sensors, the matrix, the LEDs, the buzzer and
// the buttons. On error, whatever was opened is left on hw for Close.
func openHardware(cfg *config.Config, navigator *nav.Navigator, hw *hardware, log zerolog.Logger) error {
	reader, err := sensor.Open(sensor.PeriphConfig{
		AHTBus:  cfg.Sensor.AHT20Bus,
		BMPBus:  cfg.Sensor.BMP280Bus,
		BMPAddr: uint16(cfg.Sensor.BMP280Addr),
	}, logger.Component(log, "sensor"))
	if err != nil {
		return err
	}
	hw.reader = reader

	if cfg.PrintSample {
		return nil
	}

	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return errors.Wrap(errors.ErrInitHardware, err)
	}
	var pins []*gpio.OutputPin
	fail := func(err error) error {
		for _, p := range pins {
			p.Close()
		}
		chip.Close()
		return errors.Wrap(errors.ErrInitHardware, err)
	}
	for _, offset := range []int{cfg.GPIO.LEDRed, cfg.GPIO.LEDGreen, cfg.GPIO.Buzzer} {
		p, err := chip.Output(offset)
		if err != nil {
			return fail(err)
		}
		pins = append(pins, p)
	}

	matrix, err := indicator.OpenMatrix(cfg.Matrix.SPI, cfg.Matrix.Pixels)
	if err != nil {
		return fail(err)
	}
	hw.bridge = indicator.NewDevice(matrix, matrix.Pixels(), pins[0], pins[1], pins[2],
		logger.Component(log, "buzzer"), matrix, chip)

	buttons, err := chip.WatchButtons(cfg.GPIO.ButtonA, cfg.GPIO.ButtonB, func(b nav.Button, atMs int64) {
		// Runs on the gpiocdev event goroutine; nav is lock-free.
		navigator.OnButtonEdge(b, atMs)
	})
	if err != nil {
		return errors.Wrap(errors.ErrInitHardware, err)
	}
	hw.buttons = buttons
	return nil
}

// printSample reads and calibrates one sample with default offsets.
func printSample(w io.Writer, r sensor.Reader) error {
	s, err := r.Read()
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		return err
	}
	store := logic.NewStore()
	store.ApplyCycle(s.Raw())
	rd := store.Readings()
	fmt.Fprintf(w, "temperatura: %.1f C, umidade: %.1f %%, pressao: %.2f kPa, altitude: %.0f m\n",
		rd[logic.Temperature], rd[logic.Humidity], rd[logic.Pressure], rd[logic.Altitude])
	return nil
}
