package web

import (
	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/nav"
)

// TargetPoller hands out the page the navigation buttons selected, once.
type TargetPoller interface {
	PollTarget() (string, bool)
}

// Handler serves one matched route.
type Handler func(req Request) Response

type route struct {
	method string
	path   string
}

// Dispatcher maps a raw request to a Response. Routes are matched on the
// exact method and request target; anything unmatched, including malformed
// requests, gets the home page.
//
// Handlers read and mutate the Store directly, so Dispatch must only be
// called from the goroutine that owns the Store.
type Dispatcher struct {
	store  *logic.Store
	nav    TargetPoller
	pages  *Pages
	log    zerolog.Logger
	routes map[route]Handler
}

// NewDispatcher builds the route table.
func NewDispatcher(store *logic.Store, targets TargetPoller, pages *Pages, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		store: store,
		nav:   targets,
		pages: pages,
		log:   log,
	}
	d.routes = map[route]Handler{
		{"GET", "/navigate"}:  d.handleNavigate,
		{"POST", "/config"}:   d.handleConfigUpdate,
		{"GET", "/getconfig"}: d.handleGetConfig,
		{"GET", "/estado"}:    d.handleReadings,
	}
	for _, p := range pageRoutes() {
		d.routes[route{"GET", p}] = d.handlePage(p)
	}
	return d
}

func pageRoutes() []string {
	return nav.Pages()[1:]
}

// Dispatch parses raw and runs the matching handler.
func (d *Dispatcher) Dispatch(raw []byte) Response {
	req, err := ParseRequest(raw)
	if err != nil {
		d.log.Debug().Err(err).Msg("malformed request, serving home page")
		return HTML(d.pages.Home())
	}
	return d.Handle(req)
}

// Handle runs the handler for an already parsed request.
func (d *Dispatcher) Handle(req Request) Response {
	h, ok := d.routes[route{req.Method, req.Target}]
	if !ok {
		d.log.Debug().Str("method", req.Method).Str("target", req.Target).Msg("no route, serving home page")
		return HTML(d.pages.Home())
	}
	return h(req)
}

func (d *Dispatcher) handleNavigate(Request) Response {
	target, ok := d.nav.PollTarget()
	if ok {
		d.log.Debug().Str("goto", target).Msg("navigation target delivered")
	}
	return JSON(formatNavigate(target, ok))
}

func (d *Dispatcher) handleConfigUpdate(req Request) Response {
	for _, f := range parseForm(req.Body) {
		key, ok := logic.ParseConfigKey(f.Key)
		if !ok {
			d.log.Debug().Str("key", f.Key).Msg("ignoring unknown config key")
			continue
		}
		v := parseFloatPrefix(f.Value)
		d.store.UpdateConfig(key.Metric, key.Field, v)
		d.log.Info().Str("key", key.String()).Float64("value", v).Msg("config updated")
	}
	return Empty()
}

func (d *Dispatcher) handleGetConfig(Request) Response {
	return JSON(formatConfig(d.store.Configs()))
}

func (d *Dispatcher) handleReadings(Request) Response {
	return JSON(formatReadings(d.store.Readings()))
}

func (d *Dispatcher) handlePage(path string) Handler {
	body, _ := d.pages.Get(path)
	return func(Request) Response {
		return HTML(body)
	}
}
