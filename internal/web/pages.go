package web

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/logic"
	"github.com/sweeney/weather-station/internal/nav"
)

// DefaultChartPoints is the rolling window of the chart pages.
const DefaultChartPoints = 20

// Pages holds every station page, rendered once at startup.
type Pages struct {
	byRoute map[string][]byte
}

type navLink struct {
	Route string
	Title string
}

type chartInfo struct {
	Key    string
	Prefix string
	Title  string
	Label  string
	Color  string
	Fill   string
	Points int
}

type formGroup struct {
	Title string
	Keys  []formKey
}

type formKey struct {
	Name  string
	Label string
}

type pageData struct {
	Title string
	Links []navLink
	Body  string
	Chart chartInfo
	Form  []formGroup
}

type metricInfo struct {
	route string
	title string
	unit  string
	color string
	fill  string
}

var metricPages = [logic.NumMetrics]metricInfo{
	logic.Temperature: {"/temperatura", "Temperature", "°C", "rgb(255,99,132)", "rgba(255,99,132,0.2)"},
	logic.Humidity:    {"/umidade", "Humidity", "%", "rgb(54,162,235)", "rgba(54,162,235,0.2)"},
	logic.Pressure:    {"/pressao", "Pressure", "kPa", "rgb(75,192,192)", "rgba(75,192,192,0.2)"},
	logic.Altitude:    {"/altitude", "Altitude", "m", "rgb(153,102,255)", "rgba(153,102,255,0.2)"},
}

var fieldLabels = [logic.NumFields]string{
	logic.Offset: "Offset",
	logic.Min:    "Minimum",
	logic.Max:    "Maximum",
}

// A page is the concatenation of head, nav, one body and footer.
var pageTmpl = template.Must(template.New("page").Parse(headTmpl + navTmpl + homeTmpl + configTmpl + chartTmpl + footerTmpl))

const headTmpl = `{{define "head" -}}
<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Weather Station - {{.Title}}</title>
<link href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css" rel="stylesheet">
<script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chartjs-plugin-annotation@3.0.1/dist/chartjs-plugin-annotation.min.js"></script>
<style>
body { background-color: #f0f2f5; }
.card p { font-size: 2.5rem; font-weight: 300; margin-bottom: 0; }
.form-grid-item { display: flex; flex-direction: column; text-align: left; }
</style>
<script>
function checkNavigation(){fetch('/navigate').then(r=>r.json()).then(d=>{if(d&&d.goto&&window.location.pathname!==d.goto){window.location.href=d.goto;}}).catch(e=>{});}
setInterval(checkNavigation,1200);
</script>
</head><body class="text-center">
{{end}}`

const navTmpl = `{{define "nav" -}}
<nav class="navbar navbar-expand-lg navbar-light bg-white shadow-sm mb-4"><div class="container-fluid">
<a class="navbar-brand" href="/">Weather Station</a>
<button class="navbar-toggler" type="button" data-bs-toggle="collapse" data-bs-target="#navbarNav"><span class="navbar-toggler-icon"></span></button>
<div class="collapse navbar-collapse" id="navbarNav"><ul class="navbar-nav me-auto mb-2 mb-lg-0">
{{range .Links}}<li class="nav-item"><a class="nav-link" href="{{.Route}}">{{.Title}}</a></li>
{{end}}</ul></div></div></nav>
{{end}}`

const homeTmpl = `{{define "home" -}}
<main class="container"><h1>Dashboard</h1>
<div class="row g-4 justify-content-center mt-3">
<div class="col-12 col-md-6 col-lg-3"><div class="card shadow-sm"><div class="card-body"><h2>Temperature</h2><p><span id="temperatura">--</span> °C</p></div></div></div>
<div class="col-12 col-md-6 col-lg-3"><div class="card shadow-sm"><div class="card-body"><h2>Humidity</h2><p><span id="umidade">--</span> %</p></div></div></div>
<div class="col-12 col-md-6 col-lg-3"><div class="card shadow-sm"><div class="card-body"><h2>Pressure</h2><p><span id="pressao">--</span> kPa</p></div></div></div>
<div class="col-12 col-md-6 col-lg-3"><div class="card shadow-sm"><div class="card-body"><h2>Altitude</h2><p><span id="altitude">--</span> m</p></div></div></div>
</div></main>
<script>
function refresh(){fetch('/estado').then(r=>r.json()).then(d=>{
document.getElementById('temperatura').innerText=d.temperatura.toFixed(2);
document.getElementById('umidade').innerText=d.umidade.toFixed(2);
document.getElementById('pressao').innerText=d.pressao.toFixed(3);
document.getElementById('altitude').innerText=d.altitude.toFixed(2);
}).catch(e=>console.error(e));}
setInterval(refresh,2000);window.onload=refresh;
</script>
{{end}}`

const configTmpl = `{{define "config" -}}
<main class="container d-flex justify-content-center"><div class="card shadow-sm" style="max-width: 800px; flex-grow: 1;"><div class="card-body">
<h2 class="card-title">Limits and Calibration</h2>
<form id="configForm" class="mt-4">
{{range .Form}}<h4>{{.Title}}</h4><div class="row g-3 align-items-center mb-3">
{{range .Keys}}<div class="col-md-4 form-grid-item"><label for="{{.Name}}" class="form-label">{{.Label}}</label><input type="number" step="any" id="{{.Name}}" name="{{.Name}}" class="form-control"></div>
{{end}}</div><hr>
{{end}}<button type="submit" class="btn btn-primary mt-3">Save</button>
<p id="saveStatus" class="mt-2" style="color:green; font-weight:bold;"></p>
</form></div></div></main>
<script>
window.onload=()=>{fetch('/getconfig').then(r=>r.json()).then(d=>{for(const key in d){let el=document.getElementById(key);if(el)el.value=d[key];}}).catch(e=>console.error(e));};
document.getElementById('configForm').addEventListener('submit',e=>{
e.preventDefault();const status=document.getElementById('saveStatus');status.textContent='Saving...';
fetch('/config',{method:'POST',body:new URLSearchParams(new FormData(e.target))})
.then(res=>{status.textContent=res.ok?'Saved.':'Save failed.';setTimeout(()=>status.textContent='',3000);})
.catch(e=>{console.error(e);status.textContent='Connection error.';});
});
</script>
{{end}}`

const chartTmpl = `{{define "chart" -}}
<h1>{{.Chart.Title}}</h1>
<div class="container"><div class="card"><canvas id="chart"></canvas></div></div>
<script>
let chart;
function createChart(limits){
const lo=limits['{{.Chart.Prefix}}_min'],hi=limits['{{.Chart.Prefix}}_max'];
chart=new Chart(document.getElementById('chart').getContext('2d'),{type:'line',
data:{labels:[],datasets:[{label:'{{.Chart.Label}}',data:[],borderColor:'{{.Chart.Color}}',backgroundColor:'{{.Chart.Fill}}',borderWidth:2,fill:true,tension:0.1}]},
options:{plugins:{annotation:{annotations:{
min:{type:'line',yMin:lo,yMax:lo,borderColor:'red',borderWidth:2,borderDash:[6,6],label:{content:'Min: '+lo,enabled:true,position:'start'}},
max:{type:'line',yMin:hi,yMax:hi,borderColor:'green',borderWidth:2,borderDash:[6,6],label:{content:'Max: '+hi,enabled:true,position:'start'}}
}}}}});
}
function addPoint(v){if(!chart)return;chart.data.labels.push(new Date().toLocaleTimeString());chart.data.datasets[0].data.push(v);
if(chart.data.labels.length>{{.Chart.Points}}){chart.data.labels.shift();chart.data.datasets[0].data.shift();}chart.update('none');}
function refresh(){fetch('/estado').then(r=>r.json()).then(d=>addPoint(d['{{.Chart.Key}}'])).catch(e=>console.error(e));}
window.onload=()=>{fetch('/getconfig').then(r=>r.json()).then(l=>{createChart(l);refresh();setInterval(refresh,2000);}).catch(e=>console.error(e));};
</script>
{{end}}`

const footerTmpl = `{{define "footer" -}}
<script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"></script>
</body></html>
{{end}}`

// NewPages renders every page. It fails with ErrOversized when a page does
// not fit in maxBody bytes (maxBody <= 0 disables the check).
func NewPages(chartPoints, maxBody int) (*Pages, error) {
	if chartPoints <= 0 {
		chartPoints = DefaultChartPoints
	}

	links := []navLink{{Route: "/", Title: "Home"}, {Route: "/config", Title: "Settings"}}
	for _, m := range logic.Metrics {
		links = append(links, navLink{Route: metricPages[m].route, Title: metricPages[m].title})
	}

	var form []formGroup
	for _, m := range logic.Metrics {
		g := formGroup{Title: fmt.Sprintf("%s (%s)", metricPages[m].title, metricPages[m].unit)}
		for _, f := range logic.Fields {
			k := logic.ConfigKey{Metric: m, Field: f}
			g.Keys = append(g.Keys, formKey{Name: k.String(), Label: fieldLabels[f]})
		}
		form = append(form, g)
	}

	data := map[string]pageData{
		"/":       {Title: "Home", Body: "home"},
		"/config": {Title: "Settings", Body: "config", Form: form},
	}
	for _, m := range logic.Metrics {
		info := metricPages[m]
		data[info.route] = pageData{
			Title: info.title,
			Body:  "chart",
			Chart: chartInfo{
				Key:    m.ReadingKey(),
				Prefix: m.ConfigPrefix(),
				Title:  info.title,
				Label:  fmt.Sprintf("%s (%s)", info.title, info.unit),
				Color:  info.color,
				Fill:   info.fill,
				Points: chartPoints,
			},
		}
	}

	p := &Pages{byRoute: make(map[string][]byte, len(data))}
	for _, route := range nav.Pages() {
		d, ok := data[route]
		if !ok {
			return nil, errors.Newf(errors.ErrRenderPage, "no template for page %s", route)
		}
		d.Links = links
		body, err := renderPage(pageTmpl, route, d)
		if err != nil {
			return nil, err
		}
		if maxBody > 0 && len(body) > maxBody {
			return nil, errors.Newf(errors.ErrOversized, "page %s is %d bytes, limit %d", route, len(body), maxBody)
		}
		p.byRoute[route] = body
	}
	return p, nil
}

// renderPage executes head, nav, the page body and footer in order.
func renderPage(tmpl *template.Template, route string, d pageData) ([]byte, error) {
	var buf bytes.Buffer
	for _, part := range []string{"head", "nav", d.Body, "footer"} {
		if err := tmpl.ExecuteTemplate(&buf, part, d); err != nil {
			return nil, errors.Wrapf(errors.ErrRenderPage, err, "page %s", route)
		}
	}
	return buf.Bytes(), nil
}

// Get returns the rendered page for a route.
func (p *Pages) Get(route string) ([]byte, bool) {
	b, ok := p.byRoute[route]
	return b, ok
}

// Home returns the rendered home page.
func (p *Pages) Home() []byte {
	return p.byRoute["/"]
}
