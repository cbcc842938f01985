package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/indicator"
	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/mqtt"
	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/sensor"
	"github.com/sweeney/weather-station/internal/status"
	"github.com/sweeney/weather-station/internal/web"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "ethernet")
	t.Setenv(envNetworkIP, "")
	t.Setenv(envNetworkWifiSSID, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Type != "ethernet" || info.Status != "connected" {
		t.Errorf("got %+v", info)
	}
	if info.IP != "" || info.SSID != "" {
		t.Errorf("unset fields should be empty, got IP=%q SSID=%q", info.IP, info.SSID)
	}
}

func TestWaitForNetwork(t *testing.T) {
	tests := []struct {
		name      string
		upAfter   int // probe succeeds from this call on; -1 never
		wait      time.Duration
		want      bool
		wantSleep int
	}{
		{"up immediately", 0, 5 * time.Second, true, 0},
		{"up after two polls", 2, 5 * time.Second, true, 2},
		{"never up", -1, 3 * time.Second, false, 3},
		{"zero wait skips probe", -1, 0, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, sleeps := 0, 0
			probe := func() bool {
				ok := tt.upAfter >= 0 && calls >= tt.upAfter
				calls++
				return ok
			}
			got := waitForNetwork(probe, tt.wait, time.Second, func(time.Duration) { sleeps++ })
			if got != tt.want {
				t.Errorf("waitForNetwork = %v, want %v", got, tt.want)
			}
			if sleeps != tt.wantSleep {
				t.Errorf("slept %d times, want %d", sleeps, tt.wantSleep)
			}
		})
	}
}

func TestReadKeys(t *testing.T) {
	n := nav.New(500 * time.Millisecond)
	clock := fakeClock(time.UnixMilli(10_000), time.Second)

	readKeys(strings.NewReader("b\nB\nx\n\na\n"), n, clock)

	if got := n.CurrentPage(); got != "/config" {
		t.Errorf("CurrentPage = %q, want /config", got)
	}
	target, ok := n.PollTarget()
	if !ok || target != "/config" {
		t.Errorf("PollTarget = %q, %v; want /config, true", target, ok)
	}
}

func TestPrintSample(t *testing.T) {
	var buf bytes.Buffer
	err := printSample(&buf, sensor.NewFakeReader(sensor.Sample{TemperatureC: 21.5, HumidityPct: 64, PressurePa: 100000}))
	if err != nil {
		t.Fatalf("printSample: %v", err)
	}
	want := "temperatura: 21.5 C, umidade: 64.0 %, pressao: 100.00 kPa, altitude: 111 m\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	if err := printSample(&buf, sensor.NewFakeReader(sensor.Sample{TemperatureC: math.NaN(), PressurePa: 1})); err == nil {
		t.Error("expected error for invalid sample")
	}
}

// --- station loop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

var (
	normal = sensor.Sample{TemperatureC: 25, HumidityPct: 70, PressurePa: 91500}
	hot    = sensor.Sample{TemperatureC: 45, HumidityPct: 70, PressurePa: 91500}
)

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
type faultReader struct {
	inner      *sensor.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (sensor.Sample, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return sensor.Sample{}, errors.New("i2c fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

type harness struct {
	st      *station
	pub     *mqtt.FakePublisher
	bridge  *indicator.Fake
	tracker *status.Tracker
	nav     *nav.Navigator

	tick  chan time.Time
	txs   chan *web.Transaction
	sig   chan os.Signal
	errCh chan error
}

func newHarness(t *testing.T, reader sensor.Reader, heartbeat time.Duration, clock func() time.Time) *harness {
	t.Helper()
	pages, err := web.NewPages(web.DefaultChartPoints, web.DefaultMaxBody)
	if err != nil {
		t.Fatalf("NewPages: %v", err)
	}
	store := logic.NewStore()
	n := nav.New(0)
	h := &harness{
		pub:     mqtt.NewFakePublisher(),
		bridge:  indicator.NewFake(),
		tracker: status.NewTracker(clock(), status.Config{}),
		nav:     n,
		tick:    make(chan time.Time),
		txs:     make(chan *web.Transaction),
		sig:     make(chan os.Signal, 1),
		errCh:   make(chan error, 1),
	}
	h.st = &station{
		store:      store,
		nav:        n,
		dispatcher: web.NewDispatcher(store, n, pages, zerolog.Nop()),
		reader:     reader,
		bridge:     h.bridge,
		publisher:  h.pub,
		mqttStatus: h.pub,
		tracker:    h.tracker,
		log:        zerolog.Nop(),
		now:        clock,
		heartbeat:  heartbeat,
	}
	return h
}

func (h *harness) start() {
	go func() {
		h.errCh <- h.st.run(h.tick, h.txs, h.sig)
	}()
}

func (h *harness) ticks(n int) {
	for i := 0; i < n; i++ {
		h.tick <- time.Time{}
	}
}

func (h *harness) request(raw string) web.Response {
	tx := web.NewTransaction([]byte(raw), time.Now())
	h.txs <- tx
	return <-tx.Reply()
}

func (h *harness) stop(t *testing.T, s os.Signal) {
	t.Helper()
	h.sig <- s
	if err := <-h.errCh; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}

func epoch() func() time.Time {
	return fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
}

func TestStationSamplesEachTick(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal), 0, epoch())
	h.start()
	h.ticks(3)
	h.stop(t, syscall.SIGTERM)

	samples := h.pub.EventsOfType(mqtt.EventSample)
	if len(samples) != 3 {
		t.Fatalf("expected 3 SAMPLE events, got %d", len(samples))
	}
	if n := len(h.pub.EventsOfType(mqtt.EventAlertOn)); n != 0 {
		t.Errorf("expected no ALERT_ON, got %d", n)
	}
	if got := samples[0].Readings[logic.Temperature]; got != 25 {
		t.Errorf("temperature: got %v, want 25", got)
	}

	renders := h.bridge.Renders()
	if len(renders) != 3 {
		t.Fatalf("expected a render per sample, got %d", len(renders))
	}
	for _, r := range renders {
		if r.Pattern != indicator.PatternEmpty {
			t.Errorf("render: got %v, want empty", r.Pattern)
		}
	}

	snap := h.tracker.Snapshot()
	if snap.Counts.Samples != 3 {
		t.Errorf("Samples: got %d, want 3", snap.Counts.Samples)
	}
	if !snap.Ready() {
		t.Error("tracker should be ready after a sample")
	}
}

func TestStationAlertTransitions(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal, hot, hot, normal), 0, epoch())
	h.start()
	h.ticks(4)
	h.stop(t, syscall.SIGTERM)

	on := h.pub.EventsOfType(mqtt.EventAlertOn)
	off := h.pub.EventsOfType(mqtt.EventAlertOff)
	if len(on) != 1 || len(off) != 1 {
		t.Fatalf("expected 1 ALERT_ON and 1 ALERT_OFF, got %d and %d", len(on), len(off))
	}
	if !on[0].Alert || on[0].Readings[logic.Temperature] != 45 {
		t.Errorf("ALERT_ON event: %+v", on[0])
	}
	if off[0].Alert {
		t.Error("ALERT_OFF event should carry alert=false")
	}

	want := []indicator.Pattern{indicator.PatternEmpty, indicator.PatternAlert, indicator.PatternAlert, indicator.PatternEmpty}
	renders := h.bridge.Renders()
	if len(renders) != len(want) {
		t.Fatalf("renders: got %d, want %d", len(renders), len(want))
	}
	for i, p := range want {
		if renders[i].Pattern != p {
			t.Errorf("render %d: got %v, want %v", i, renders[i].Pattern, p)
		}
	}
	if renders[1].Color != indicator.Yellow {
		t.Errorf("alert colour: got %v, want yellow", renders[1].Color)
	}

	c := h.tracker.Snapshot().Counts
	if c.AlertOn != 1 || c.AlertOff != 1 {
		t.Errorf("counts: %+v", c)
	}
}

func TestStationSensorErrorSkipsCycle(t *testing.T) {
	reader := &faultReader{
		inner:      sensor.NewFakeReader(normal, hot),
		faultStart: 1,
		faultEnd:   3,
	}
	h := newHarness(t, reader, 0, epoch())
	h.start()
	h.ticks(3)

	// The failed cycles left the first sample in place.
	resp := h.request("GET /estado HTTP/1.1\r\n\r\n")
	if !bytes.Contains(resp.Body, []byte(`"temperatura":25.00`)) {
		t.Errorf("readings after failed cycles: %s", resp.Body)
	}

	h.ticks(1)
	h.stop(t, syscall.SIGTERM)

	if n := len(h.pub.EventsOfType(mqtt.EventSample)); n != 2 {
		t.Errorf("expected 2 SAMPLE events, got %d", n)
	}
	c := h.tracker.Snapshot().Counts
	if c.SensorErrors != 2 || c.Samples != 2 {
		t.Errorf("counts: %+v", c)
	}
	if n := len(h.pub.EventsOfType(mqtt.EventAlertOn)); n != 1 {
		t.Errorf("recovery should raise the alert, got %d ALERT_ON", n)
	}
}

func TestStationRejectsInvalidSample(t *testing.T) {
	bad := sensor.Sample{TemperatureC: math.NaN(), HumidityPct: 70, PressurePa: 91500}
	h := newHarness(t, sensor.NewFakeReader(bad), 0, epoch())
	h.start()
	h.ticks(2)
	h.stop(t, syscall.SIGTERM)

	if len(h.pub.Events) != 0 {
		t.Errorf("expected no readings events, got %d", len(h.pub.Events))
	}
	if len(h.bridge.Renders()) != 0 {
		t.Error("indicator should not change on a skipped cycle")
	}
	if c := h.tracker.Snapshot().Counts; c.SensorErrors != 2 {
		t.Errorf("SensorErrors: got %d, want 2", c.SensorErrors)
	}
}

func TestStationServesTransactions(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal), 0, epoch())
	h.start()
	h.ticks(1)

	resp := h.request("POST /config HTTP/1.1\r\nContent-Length: 13\r\n\r\ntemp_offset=2")
	if resp.Kind != web.KindEmpty {
		t.Errorf("config update: got %v, want empty", resp.Kind)
	}

	resp = h.request("GET /getconfig HTTP/1.1\r\n\r\n")
	if !bytes.HasPrefix(resp.Body, []byte(`{"temp_offset":2.00,`)) {
		t.Errorf("getconfig: %s", resp.Body)
	}

	h.ticks(1)
	resp = h.request("GET /estado HTTP/1.1\r\n\r\n")
	if resp.Kind != web.KindJSON {
		t.Errorf("estado: got %v, want json", resp.Kind)
	}
	if !bytes.Contains(resp.Body, []byte(`"temperatura":27.00`)) {
		t.Errorf("offset not applied on the next cycle: %s", resp.Body)
	}

	resp = h.request("GET /nowhere HTTP/1.1\r\n\r\n")
	if resp.Kind != web.KindHTML {
		t.Errorf("unknown route: got %v, want html", resp.Kind)
	}

	h.stop(t, syscall.SIGTERM)

	if c := h.tracker.Snapshot().Counts; c.Transactions != 4 {
		t.Errorf("Transactions: got %d, want 4", c.Transactions)
	}
}

func TestStationNavigation(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal), 0, epoch())
	h.start()

	h.nav.OnButtonEdge(nav.ButtonB, 1000)
	resp := h.request("GET /navigate HTTP/1.1\r\n\r\n")
	if string(resp.Body) != `{"goto":"/config"}` {
		t.Errorf("first poll: %s", resp.Body)
	}
	resp = h.request("GET /navigate HTTP/1.1\r\n\r\n")
	if string(resp.Body) != `{"goto":null}` {
		t.Errorf("second poll: %s", resp.Body)
	}

	h.stop(t, syscall.SIGTERM)

	if page := h.tracker.Snapshot().Page; page != "/config" {
		t.Errorf("tracked page: got %q, want /config", page)
	}
}

func TestStationWithoutTransport(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal), 0, epoch())
	go func() {
		h.errCh <- h.st.run(h.tick, nil, h.sig)
	}()
	h.ticks(2)
	h.stop(t, syscall.SIGINT)

	if n := len(h.pub.EventsOfType(mqtt.EventSample)); n != 2 {
		t.Errorf("expected 2 SAMPLE events, got %d", n)
	}
}

func TestStationHeartbeat(t *testing.T) {
	// Clock: run start at t0, then one call per tick 30s apart.
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 30*time.Second)
	h := newHarness(t, sensor.NewFakeReader(normal), time.Minute, clock)
	h.pub.Connected = true
	h.start()
	h.ticks(5)
	h.stop(t, syscall.SIGTERM)

	var beats int
	for _, ev := range h.pub.SystemEvents {
		if ev.Event == mqtt.SystemHeartbeat {
			beats++
			if len(ev.RawPayload) == 0 {
				t.Error("heartbeat should carry a status snapshot")
			}
		}
	}
	if beats != 2 {
		t.Errorf("expected 2 heartbeats, got %d", beats)
	}
	if !h.tracker.Snapshot().MQTTConnected {
		t.Error("tracker should reflect the MQTT connection")
	}
}

func TestStationHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "10.0.0.7")

	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Minute)
	h := newHarness(t, sensor.NewFakeReader(normal), time.Minute, clock)
	h.start()
	h.ticks(2)
	h.stop(t, syscall.SIGTERM)

	if len(h.pub.SystemEvents) < 2 || h.pub.SystemEvents[0].Event != mqtt.SystemHeartbeat {
		t.Fatalf("expected a heartbeat first, got %+v", h.pub.SystemEvents)
	}
	if !bytes.Contains(h.pub.SystemEvents[0].RawPayload, []byte("10.0.0.7")) {
		t.Errorf("heartbeat payload missing network info: %s", h.pub.SystemEvents[0].RawPayload)
	}
}

func TestStationHeartbeatDisabled(t *testing.T) {
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	h := newHarness(t, sensor.NewFakeReader(normal), 0, clock)
	h.start()
	h.ticks(3)
	h.stop(t, syscall.SIGTERM)

	if len(h.pub.SystemEvents) != 1 || h.pub.SystemEvents[0].Event != mqtt.SystemShutdown {
		t.Errorf("expected only SHUTDOWN, got %+v", h.pub.SystemEvents)
	}
}

func TestStationPublishError(t *testing.T) {
	h := newHarness(t, sensor.NewFakeReader(normal, hot), 0, epoch())
	h.pub.PublishError = errors.New("broker down")
	h.start()
	h.ticks(2)
	h.stop(t, syscall.SIGTERM)

	snap := h.tracker.Snapshot()
	if snap.Counts.Samples != 2 || !snap.Alert {
		t.Errorf("loop should carry on after publish errors: %+v", snap.Counts)
	}
	if last, ok := h.bridge.LastRender(); !ok || last.Pattern != indicator.PatternAlert {
		t.Errorf("last render: %+v, %v", last, ok)
	}
}

func TestStationShutdownSignals(t *testing.T) {
	for _, tt := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, sensor.NewFakeReader(normal), 0, epoch())
			h.start()
			h.ticks(1)
			h.stop(t, tt.sig)

			if len(h.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
			}
			ev := h.pub.SystemEvents[0]
			if ev.Event != mqtt.SystemShutdown || ev.Reason != tt.want || !ev.Retained {
				t.Errorf("shutdown event: %+v", ev)
			}
			if !bytes.Contains(ev.RawPayload, []byte(tt.want)) {
				t.Errorf("payload should name the signal: %s", ev.RawPayload)
			}
		})
	}
}
