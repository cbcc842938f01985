package internal

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/gpio"
	"github.com/sweeney/weather-station/internal/indicator"
	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/mqtt"
	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/sensor"
	"github.com/sweeney/weather-station/internal/status"
	"github.com/sweeney/weather-station/internal/web"
)

// node wires the real packages together the way the daemon does, with fakes
// at the hardware and broker edges. One goroutine owns the store and runs
// both sampling and dispatch.
type node struct {
	reader    *sensor.FakeReader
	bridge    *indicator.Fake
	publisher *mqtt.FakePublisher
	buttons   *gpio.FakeButtons
	tracker   *status.Tracker
	srv       *web.Server

	sample chan chan struct{}
	stop   chan struct{}
	wg     sync.WaitGroup
}

func startNode(t *testing.T, samples ...sensor.Sample) *node {
	t.Helper()

	pages, err := web.NewPages(web.DefaultChartPoints, web.DefaultMaxBody)
	if err != nil {
		t.Fatalf("NewPages: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	store := logic.NewStore()
	navigator := nav.New(nav.DefaultDebounce)
	n := &node{
		reader:    sensor.NewFakeReader(samples...),
		bridge:    indicator.NewFake(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(time.Now(), status.Config{}),
		srv:       web.NewServer(ln, web.ServerConfig{}, zerolog.Nop()),
		sample:    make(chan chan struct{}),
		stop:      make(chan struct{}),
	}
	n.buttons = gpio.NewFakeButtons(func(b nav.Button, atMs int64) {
		navigator.OnButtonEdge(b, atMs)
	})
	dispatcher := web.NewDispatcher(store, navigator, pages, zerolog.Nop())

	n.wg.Add(2)
	go func() {
		defer n.wg.Done()
		n.srv.Serve()
	}()
	go func() {
		defer n.wg.Done()
		var counts status.Counts
		for {
			select {
			case <-n.stop:
				return
			case tx := <-n.srv.Transactions():
				tx.Respond(dispatcher.Dispatch(tx.Raw))
				counts.Transactions++
			case done := <-n.sample:
				s, err := n.reader.Read()
				if err == nil {
					was := store.Alert()
					alert := store.ApplyCycle(s.Raw())
					indicator.ShowAlert(n.bridge, alert)
					ev := mqtt.ReadingEvent{Timestamp: time.Now(), Type: mqtt.EventSample, Readings: store.Readings(), Alert: alert}
					n.publisher.Publish(ev)
					if alert != was {
						ev.Type = mqtt.EventAlertOff
						if alert {
							ev.Type = mqtt.EventAlertOn
						}
						n.publisher.Publish(ev)
					}
					counts.Samples++
					n.tracker.Update(store.Readings(), alert, counts, time.Now())
				}
				close(done)
			}
			n.tracker.SetPage(navigator.CurrentPage())
		}
	}()

	t.Cleanup(func() {
		close(n.stop)
		n.srv.Close()
		n.buttons.Close()
		n.wg.Wait()
	})
	return n
}

// tick runs one sampling cycle and waits for it to finish.
func (n *node) tick() {
	done := make(chan struct{})
	n.sample <- done
	<-done
}

func (n *node) url(path string) string {
	return "http://" + n.srv.Addr().String() + path
}

func (n *node) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(n.url(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp, string(body)
}

func (n *node) getJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	resp, body := n.get(t, path)
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("%s Content-Type: got %q", path, ct)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("%s: invalid JSON %q: %v", path, body, err)
	}
	return out
}

var (
	mild = sensor.Sample{TemperatureC: 22, HumidityPct: 70, PressurePa: 91500}
	dry  = sensor.Sample{TemperatureC: 22, HumidityPct: 40, PressurePa: 91500}
)

func TestIntegrationReadingsOverHTTP(t *testing.T) {
	n := startNode(t, mild)
	n.tick()

	got := n.getJSON(t, "/estado")
	if got["temperatura"] != 22.0 || got["umidade"] != 70.0 {
		t.Errorf("readings: %v", got)
	}
	if got["pressao"] != 91.5 {
		t.Errorf("pressao: got %v, want 91.5", got["pressao"])
	}
	if len(n.publisher.EventsOfType(mqtt.EventSample)) != 1 {
		t.Errorf("expected one SAMPLE event")
	}
}

func TestIntegrationConfigChangeRaisesAlert(t *testing.T) {
	n := startNode(t, mild)
	n.tick()
	if last, _ := n.bridge.LastRender(); last.Pattern != indicator.PatternEmpty {
		t.Fatalf("expected no alert at defaults, got %v", last.Pattern)
	}

	form := url.Values{"temp_max": {"20"}}
	resp, err := http.Post(n.url("/config"), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST /config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength != 0 {
		t.Errorf("config update: status %d, length %d", resp.StatusCode, resp.ContentLength)
	}

	cfg := n.getJSON(t, "/getconfig")
	if cfg["temp_max"] != 20.0 || cfg["temp_min"] != 10.0 {
		t.Errorf("getconfig: %v", cfg)
	}

	n.tick()
	last, _ := n.bridge.LastRender()
	if last.Pattern != indicator.PatternAlert || last.Color != indicator.Yellow {
		t.Errorf("expected yellow alert, got %+v", last)
	}
	if len(n.publisher.EventsOfType(mqtt.EventAlertOn)) != 1 {
		t.Error("expected ALERT_ON after the band was narrowed")
	}
	if !n.tracker.Snapshot().Alert {
		t.Error("tracker should report the alert")
	}
}

func TestIntegrationHumidityAlertClears(t *testing.T) {
	n := startNode(t, dry, mild)
	n.tick()
	n.tick()

	on := n.publisher.EventsOfType(mqtt.EventAlertOn)
	off := n.publisher.EventsOfType(mqtt.EventAlertOff)
	if len(on) != 1 || len(off) != 1 {
		t.Fatalf("expected one ALERT_ON and one ALERT_OFF, got %d and %d", len(on), len(off))
	}
	payload, err := mqtt.FormatPayload(on[0])
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	if !strings.Contains(string(payload), `"event":"ALERT_ON"`) {
		t.Errorf("payload: %s", payload)
	}
}

func TestIntegrationButtonsDriveNavigation(t *testing.T) {
	n := startNode(t, mild)

	if got := n.getJSON(t, "/navigate"); got["goto"] != nil {
		t.Fatalf("expected no target before any press, got %v", got)
	}

	n.buttons.Press(nav.ButtonB, 1_000)
	n.buttons.Press(nav.ButtonB, 1_100) // inside the debounce window
	n.buttons.Press(nav.ButtonB, 2_000)

	if got := n.getJSON(t, "/navigate"); got["goto"] != "/temperatura" {
		t.Errorf("navigate: got %v, want /temperatura", got["goto"])
	}
	if got := n.getJSON(t, "/navigate"); got["goto"] != nil {
		t.Errorf("target should be delivered once, got %v", got["goto"])
	}

	n.buttons.Press(nav.ButtonA, 3_000)
	n.buttons.Press(nav.ButtonA, 4_000)
	n.buttons.Press(nav.ButtonA, 5_000)
	if got := n.getJSON(t, "/navigate"); got["goto"] != "/altitude" {
		t.Errorf("navigate after wrap: got %v, want /altitude", got["goto"])
	}

	resp, body := n.get(t, "/altitude")
	if resp.Header.Get("Content-Type") != "text/html" || !strings.Contains(body, "</html>") {
		t.Errorf("page /altitude: %q", resp.Header.Get("Content-Type"))
	}

	n.tick()
	if page := n.tracker.Snapshot().Page; page != "/altitude" {
		t.Errorf("tracked page: got %q", page)
	}
}

func TestIntegrationUnknownPathServesHome(t *testing.T) {
	n := startNode(t, mild)
	_, home := n.get(t, "/")
	_, other := n.get(t, "/favicon.ico")
	if home != other {
		t.Error("unmatched paths should get the home page")
	}
}
