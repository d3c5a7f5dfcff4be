package api

import (
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/Roelanb/pixelveil/internal/ledger"
)

var baseTpl = template.Must(template.New("base").Parse(`
<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Ubuntu, Cantarell, Noto Sans, Arial, sans-serif; margin: 0; background: #0b0f14; color: #e6edf3; }
header, footer { padding: 12px 16px; background: #111827; border-bottom: 1px solid #1f2937; }
footer { border-top: 1px solid #1f2937; border-bottom: none; color: #9ca3af; }
.container { padding: 16px; max-width: 1024px; margin: 0 auto; }
h1, h2, h3 { margin: 0 0 12px 0; }
.card { background: #111827; border: 1px solid #1f2937; border-radius: 8px; padding: 12px; margin-bottom: 16px; }
table { width: 100%; border-collapse: collapse; font-size: 14px; }
th, td { border-bottom: 1px solid #1f2937; padding: 8px; text-align: left; vertical-align: top; }
th { color: #9ca3af; font-weight: 600; }
code, pre { background: #0b1220; border: 1px solid #1f2937; border-radius: 6px; padding: 8px; display: block; overflow-x: auto; }
input[type="text"], input[type="password"], textarea { width: 100%; background: #0b1220; border: 1px solid #1f2937; color: #e6edf3; border-radius: 6px; padding: 8px; box-sizing: border-box; margin-top: 8px; }
button, .btn { background: #2563eb; color: white; border: 0; padding: 8px 12px; border-radius: 6px; cursor: pointer; margin-top: 8px; }
button:disabled { opacity: .6; cursor: wait; }
button.secondary { background: #374151; }
.badge { display: inline-block; padding: 2px 8px; border-radius: 999px; font-size: 12px; }
.badge.ok { background: #065f46; color: #d1fae5; }
.badge.rejected { background: #78350f; color: #fef3c7; }
.badge.failed { background: #7f1d1d; color: #fee2e2; }
a.nav { color: #93c5fd; text-decoration: none; margin-right: 12px; }
a.nav:hover { text-decoration: underline; }
.tabs button { background: #374151; }
.tabs button.active { background: #2563eb; }
.panel { display: none; }
.panel.active { display: block; }
.drop-zone { border: 2px dashed #374151; border-radius: 8px; padding: 24px; text-align: center; cursor: pointer; color: #9ca3af; }
.drop-zone.dragover { border-color: #2563eb; background: #0b1220; }
.capacity { margin-top: 8px; }
.capacity .track { background: #0b1220; border-radius: 999px; height: 8px; overflow: hidden; }
.capacity .fill { height: 8px; width: 0; }
.fill.success { background: #10b981; }
.fill.warning { background: #f59e0b; }
.fill.danger { background: #ef4444; }
.status { min-height: 20px; margin-top: 8px; }
.status.success { color: #6ee7b7; }
.status.error { color: #fca5a5; }
.status.info { color: #93c5fd; }
.hidden { display: none; }
</style>
</head>
<body data-origin="{{.Origin}}">
<header>
  <div class="container">
    <h1 style="display:inline-block;margin-right:16px;">{{.Title}}</h1>
    <nav style="display:inline-block">
      <a class="nav" href="/">Hide &amp; Reveal</a>
      <a class="nav" href="/activity">Activity</a>
      <a class="nav" href="/settings">Settings</a>
    </nav>
  </div>
</header>
<main class="container">
  {{ template "content" . }}
</main>
<footer>
  <div class="container">
    {{.Title}} v{{.Version}}
  </div>
</footer>
<script>
async function api(path, opts) {
  const res = await fetch(path, opts || {});
  if (!res.ok) throw new Error(await res.text());
  return res;
}
async function reloadConfig(ev) {
  ev && ev.preventDefault && ev.preventDefault();
  try {
    await api('/reload', { method: 'POST' });
    alert('Reload requested');
  } catch (e) {
    alert('Reload failed: ' + e.message);
  }
}
</script>
</body>
</html>
`))

var indexTpl = template.Must(template.Must(baseTpl.Clone()).New("content").Parse(`
<div class="tabs">
  <button id="tab-encode" class="active" data-tab="encode">Hide Message</button>
  <button id="tab-decode" data-tab="decode">Reveal Message</button>
</div>

<section id="panel-encode" class="panel card active">
  <h2>Hide a message</h2>
  <div id="drop-encode" class="drop-zone">Drop an image here or click to browse</div>
  <input id="file-encode" type="file" accept="image/*" class="hidden">
  <div id="info-encode" class="file-info"></div>
  <textarea id="message" rows="5" placeholder="Your secret message"></textarea>
  <div id="capacity" class="capacity hidden">
    <div class="track"><div id="capacity-fill" class="fill success"></div></div>
    <small id="capacity-text"></small>
  </div>
  <input id="password-encode" type="password" placeholder="Password (optional)">
  <button id="btn-encode">Hide Message &amp; Download</button>
  <div id="status-encode" class="status"></div>

  <div id="share" class="card hidden" style="margin-top:16px">
    <h3>Share</h3>
    <button id="btn-qr" class="secondary">QR code</button>
    <button id="btn-email" class="secondary">Email</button>
    <button id="btn-whatsapp" class="secondary">WhatsApp</button>
    <div id="status-share" class="status"></div>
    <div id="qr" class="hidden"><img id="qr-img" alt="QR code"></div>
  </div>
</section>

<section id="panel-decode" class="panel card">
  <h2>Reveal a message</h2>
  <div id="drop-decode" class="drop-zone">Drop an image here or click to browse</div>
  <input id="file-decode" type="file" accept="image/*" class="hidden">
  <div id="info-decode" class="file-info"></div>
  <input id="password-decode" type="password" placeholder="Password (if any)">
  <button id="btn-decode">Reveal Message</button>
  <div id="status-decode" class="status"></div>
  <div id="result" class="hidden">
    <h3>Hidden message</h3>
    <pre id="result-text"></pre>
  </div>
</section>

{{if .HasAssets}}
<script src="/assets/wasm_exec.js"></script>
<script>
const go = new Go();
WebAssembly.instantiateStreaming(fetch('/assets/pixelveil.wasm'), go.importObject)
  .then(res => go.run(res.instance))
  .catch(err => { document.getElementById('status-encode').textContent = 'Failed to load client: ' + err; });
</script>
{{else}}
<p id="no-client" class="status info">The browser client is not built (go generate ./internal/api). The pixelveil CLI works without it.</p>
{{end}}
`))

var activityTpl = template.Must(template.Must(baseTpl.Clone()).New("content").Parse(`
<div class="card">
  <h2>Totals</h2>
  <p>All-time calls: <strong id="total">{{.Stats.Total}}</strong>, retained: {{.Stats.Stored}}</p>
  <table id="totals">
    <thead><tr><th>Operation</th><th>ok</th><th>rejected</th><th>failed</th></tr></thead>
    <tbody>
      {{range .Totals}}
      <tr><td>{{.Op}}</td><td>{{.OK}}</td><td>{{.Rejected}}</td><td>{{.Failed}}</td></tr>
      {{end}}
    </tbody>
  </table>
</div>
<div class="card">
  <h2>Recent calls</h2>
  <table id="records">
    <thead><tr><th>When</th><th>Op</th><th>Status</th><th>File</th><th>Size</th><th>Capacity</th><th>Payload</th><th>ms</th></tr></thead>
    <tbody>
      {{range .Records}}
      <tr>
        <td>{{.CreatedAt.Format "2006-01-02 15:04:05"}}</td>
        <td>{{.Op}}</td>
        <td><span class="badge {{.Status}}">{{.Status}}</span>{{if .Error}} <small>{{.Error}}</small>{{end}}</td>
        <td><code>{{.FileName}}</code></td>
        <td>{{if .Width}}{{.Width}}x{{.Height}}{{end}}</td>
        <td>{{if .Capacity}}{{.Capacity}}{{end}}</td>
        <td>{{if .PayloadBytes}}{{.PayloadBytes}}{{if .Encrypted}} (sealed){{end}}{{end}}</td>
        <td>{{.DurationMs}}</td>
      </tr>
      {{else}}
      <tr><td colspan="8">No activity yet</td></tr>
      {{end}}
    </tbody>
  </table>
</div>
`))

var settingsTpl = template.Must(template.Must(baseTpl.Clone()).New("content").Parse(`
<div class="card">
  <h2>Edit Configuration (raw JSON)</h2>
  <form onsubmit="saveConfig(event)">
    <textarea id="cfg" rows="20">{{.ConfigJSON}}</textarea>
    <div>
      <button type="submit">Apply</button>
      <button type="button" class="secondary" onclick="reloadConfig(event)">Reload from disk</button>
    </div>
  </form>
  <p style="color:#9ca3af;margin-top:8px">POSTs the JSON body to /config (server validates, saves and applies).</p>
</div>
<script>
async function saveConfig(ev) {
  ev.preventDefault();
  try {
    await api('/config', { method: 'POST', headers: {'Content-Type': 'application/json'}, body: document.getElementById('cfg').value });
    alert('Config applied');
  } catch (e) {
    alert('Apply failed: ' + e.message);
  }
}
</script>
`))

type pageData struct {
	Title      string
	Origin     string
	Version    string
	HasAssets  bool
	Records    []ledger.Record
	Stats      ledger.Stats
	Totals     []opTotals
	ConfigJSON string
}

type opTotals struct {
	Op                   ledger.Op
	OK, Rejected, Failed int
}

func totals(st ledger.Stats) []opTotals {
	var out []opTotals
	for _, op := range []ledger.Op{ledger.OpCapacity, ledger.OpEncode, ledger.OpDecode, ledger.OpQR} {
		by, ok := st.ByOp[op]
		if !ok {
			continue
		}
		out = append(out, opTotals{
			Op:       op,
			OK:       by[ledger.StatusOK],
			Rejected: by[ledger.StatusRejected],
			Failed:   by[ledger.StatusFailed],
		})
	}
	return out
}

func (s *Server) page() pageData {
	cfg := s.current()
	return pageData{
		Title:     cfg.title,
		Origin:    cfg.origin,
		Version:   Version,
		HasAssets: cfg.hasClient,
	}
}

func (s *Server) render(w http.ResponseWriter, tpl *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.ExecuteTemplate(w, "base", data); err != nil {
		s.log.Errorw("render page failed", "error", err)
	}
}

// mountUI registers the server-rendered pages and the client assets.
func (s *Server) mountUI() {
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.render(w, indexTpl, s.page())
	})

	s.router.Get("/activity", func(w http.ResponseWriter, r *http.Request) {
		data := s.page()
		act, err := s.loadActivity(activityLimit(r))
		if err != nil {
			s.log.Errorw("load activity failed", "error", err)
		}
		data.Records, data.Stats = act.Records, act.Stats
		data.Totals = totals(act.Stats)
		s.render(w, activityTpl, data)
	})

	s.router.Get("/settings", func(w http.ResponseWriter, r *http.Request) {
		data := s.page()
		data.ConfigJSON = "{}"
		if s.ctrl != nil {
			if b, err := json.MarshalIndent(s.ctrl.GetConfig(), "", "  "); err == nil {
				data.ConfigJSON = strings.TrimSpace(string(b))
			}
		}
		s.render(w, settingsTpl, data)
	})

	s.router.Get("/assets/*", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/assets/")
		assets := s.current().assets
		if st, err := fs.Stat(assets, name); err != nil || st.IsDir() {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		http.StripPrefix("/assets/", http.FileServer(http.FS(assets))).ServeHTTP(w, r)
	})
}
