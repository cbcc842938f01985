package main

import (
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/indicator"
	"github.com/sweeney/weather-station/internal/logger"
	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/mqtt"
	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/sensor"
	"github.com/sweeney/weather-station/internal/status"
	"github.com/sweeney/weather-station/internal/web"
)

// station is the control loop's state. Everything here is touched only by
// the goroutine running run, except nav, whose methods are safe to call from
// the button event goroutine.
type station struct {
	store      *logic.Store
	nav        *nav.Navigator
	dispatcher *web.Dispatcher
	reader     sensor.Reader
	bridge     indicator.Bridge
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	log        zerolog.Logger
	now        func() time.Time
	heartbeat  time.Duration

	counts        status.Counts
	lastHeartbeat time.Time
}

// run services ticks, transactions and signals until a signal arrives.
// A nil txs channel means the transport is down; sampling continues.
func (s *station) run(tick <-chan time.Time, txs <-chan *web.Transaction, sig <-chan os.Signal) error {
	s.lastHeartbeat = s.now()

	for {
		select {
		case sg := <-sig:
			s.shutdown(sg)
			return nil

		case tx := <-txs:
			s.serve(tx)

		case <-tick:
			t := s.now()
			s.sample(t)
			s.checkHeartbeat(t)
		}
		s.tracker.SetPage(s.nav.CurrentPage())
	}
}

// serve dispatches one transaction to completion.
func (s *station) serve(tx *web.Transaction) {
	resp := s.dispatcher.Dispatch(tx.Raw)
	s.counts.Transactions++
	tx.Respond(resp)
	s.tracker.SetCounts(s.counts)
	s.log.Debug().Str("tx", tx.ID.String()).Stringer("kind", resp.Kind).Int("bytes", len(resp.Body)).Msg("dispatched")
}

// sample runs one acquisition cycle: read, calibrate, evaluate, indicate,
// publish. A failed read skips the cycle and leaves the readings untouched.
func (s *station) sample(t time.Time) {
	smp, err := s.reader.Read()
	if err == nil {
		err = smp.Validate()
	}
	if err != nil {
		s.counts.SensorErrors++
		s.tracker.SetCounts(s.counts)
		logger.WithCode(s.log.Warn(), err).Msg("sensor read failed, cycle skipped")
		return
	}

	was := s.store.Alert()
	alert := s.store.ApplyCycle(smp.Raw())
	readings := s.store.Readings()
	s.counts.Samples++

	if err := indicator.ShowAlert(s.bridge, alert); err != nil {
		s.log.Warn().Err(err).Msg("indicator update failed")
	}

	s.publish(mqtt.ReadingEvent{Timestamp: t, Type: mqtt.EventSample, Readings: readings, Alert: alert})

	if alert != was {
		typ := mqtt.EventAlertOff
		if alert {
			typ = mqtt.EventAlertOn
			s.counts.AlertOn++
		} else {
			s.counts.AlertOff++
		}
		s.log.Info().
			Str("event", string(typ)).
			Float64("temperatura", readings[logic.Temperature]).
			Float64("umidade", readings[logic.Humidity]).
			Msg("alert changed")
		s.publish(mqtt.ReadingEvent{Timestamp: t, Type: typ, Readings: readings, Alert: alert})
	}

	s.tracker.Update(readings, alert, s.counts, t)
	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}
	s.log.Debug().
		Float64("temperatura", readings[logic.Temperature]).
		Float64("umidade", readings[logic.Humidity]).
		Float64("pressao", readings[logic.Pressure]).
		Float64("altitude", readings[logic.Altitude]).
		Bool("alert", alert).
		Msg("sample")
}

func (s *station) publish(ev mqtt.ReadingEvent) {
	if err := s.publisher.Publish(ev); err != nil {
		// Don't crash on publish failure
		logger.WithCode(s.log.Warn(), err).Str("event", string(ev.Type)).Msg("publish error")
	}
}

func (s *station) checkHeartbeat(t time.Time) {
	if s.heartbeat <= 0 || t.Sub(s.lastHeartbeat) < s.heartbeat {
		return
	}
	s.lastHeartbeat = t

	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}
	if net := readNetworkInfo(); net != nil {
		s.tracker.SetNetwork(net)
	}
	snap := s.tracker.Snapshot()
	s.log.Info().
		Dur("uptime", snap.Uptime()).
		Int("samples", s.counts.Samples).
		Int("sensor_errors", s.counts.SensorErrors).
		Int("transactions", s.counts.Transactions).
		Msg("heartbeat")

	ev := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      mqtt.SystemHeartbeat,
		RawPayload: status.FormatStatusEvent(snap, mqtt.SystemHeartbeat, ""),
	}
	if err := s.publisher.PublishSystem(ev); err != nil {
		logger.WithCode(s.log.Warn(), err).Msg("heartbeat publish error")
	}
}

func (s *station) shutdown(sg os.Signal) {
	s.log.Info().Stringer("signal", sg).Msg("shutting down")

	signalName := "UNKNOWN"
	if sg == syscall.SIGINT {
		signalName = "SIGINT"
	} else if sg == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	if s.mqttStatus != nil {
		s.tracker.SetMQTTConnected(s.mqttStatus.IsConnected())
	}
	snap := s.tracker.Snapshot()
	ev := mqtt.SystemEvent{
		Timestamp:  s.now(),
		Event:      mqtt.SystemShutdown,
		Reason:     signalName,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.SystemShutdown, signalName),
	}
	if err := s.publisher.PublishSystem(ev); err != nil {
		logger.WithCode(s.log.Warn(), err).Msg("failed to publish shutdown event")
	}
}
