package web

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"
	"github.com/ankit-chaubey/picscrub/core"
)

const pageTitle = "picscrub — remove image metadata locally"

type optionLabel struct {
	Key   core.OptionKey `json:"key"`
	Label string         `json:"label"`
}

// IndexPage renders the single-page UI. Job state arrives over /ws.
func IndexPage() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		labels := make([]optionLabel, 0, len(core.OptionKeys))
		for _, k := range core.OptionKeys {
			labels = append(labels, optionLabel{Key: k, Label: core.OptionLabels[k]})
		}
		labelJSON, err := json.Marshal(labels)
		if err != nil {
			return err
		}

		parts := []string{
			pageHead,
			"<title>", templ.EscapeString(pageTitle), "</title>\n",
			pageStyle,
			"</head>\n",
			pageBody,
			"<script>const OPTION_LABELS = ", string(labelJSON), ";</script>\n",
			pageScript,
			"</body>\n</html>\n",
		}
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
`

const pageStyle = `<style>
body { font-family: system-ui, sans-serif; margin: 0 auto; max-width: 880px; padding: 1.5rem; color: #1f2328; }
#drop { border: 2px dashed #8c959f; border-radius: 8px; padding: 2rem; text-align: center; cursor: pointer; }
#drop.over { background: #f6f8fa; }
#error { display: none; background: #ffebe9; border: 1px solid #ff8182; padding: .5rem .75rem; border-radius: 6px; margin: 1rem 0; }
.toolbar { display: flex; gap: .5rem; margin: 1rem 0; align-items: center; }
.job { display: grid; grid-template-columns: 96px 1fr; gap: 1rem; border: 1px solid #d0d7de; border-radius: 8px; padding: .75rem; margin-bottom: .75rem; }
.job img { width: 96px; height: 96px; object-fit: cover; border-radius: 4px; background: #f6f8fa; }
.state { font-size: .8rem; padding: .1rem .4rem; border-radius: 4px; background: #eaeef2; }
.state.processed { background: #dafbe1; }
.state.processing { background: #fff8c5; }
.risk-high { color: #cf222e; } .risk-medium { color: #bc4c00; } .risk-low { color: #57606a; }
table { border-collapse: collapse; font-size: .85rem; } td { padding: .1rem .5rem; vertical-align: top; }
.muted { color: #57606a; font-size: .85rem; }
</style>
`

const pageBody = `<body>
<h1>picscrub</h1>
<p class="muted">Files are processed by this program on your machine. Nothing is uploaded anywhere else.</p>
<div id="drop">Drop images here or click to choose<input id="pick" type="file" multiple hidden
 accept="image/jpeg,image/png,image/webp,image/gif,image/svg+xml,image/tiff,image/heic,image/heif,.dng,.cr2,.cr3,.nef,.arw,.orf,.rw2,.raf,.pef,.srw"></div>
<div id="error"></div>
<div class="toolbar">
 <button id="run-all">Clean all</button>
 <button id="reset">Start over</button>
 <span id="counts" class="muted"></span>
</div>
<div id="jobs"></div>
`

const pageScript = `<script>
const jobs = new Map();
const order = [];
const detail = new Map();
const delivered = new Set();

const $ = (s) => document.querySelector(s);
const esc = (s) => String(s ?? "").replace(/[&<>"']/g, (c) => ({"&":"&amp;","<":"&lt;",">":"&gt;","\"":"&quot;","'":"&#39;"}[c]));

function showError(msg) {
  const el = $("#error");
  el.textContent = msg || "";
  el.style.display = msg ? "block" : "none";
}

function save(url) {
  if (!url || delivered.has(url)) return;
  delivered.add(url);
  const a = document.createElement("a");
  a.href = url;
  a.download = "";
  document.body.appendChild(a);
  a.click();
  a.remove();
}

async function api(method, url, body) {
  const init = { method };
  if (body instanceof FormData) init.body = body;
  else if (body !== undefined) { init.body = JSON.stringify(body); init.headers = { "Content-Type": "application/json" }; }
  const res = await fetch(url, init);
  const text = await res.text();
  const data = text ? JSON.parse(text) : null;
  if (!res.ok && data && data.error) showError(data.error);
  return data;
}

function upsert(job, quiet) {
  if (!jobs.has(job.id)) order.push(job.id);
  jobs.set(job.id, job);
  if (job.metadata) detail.set(job.id, job.metadata);
  if (job.state !== "processed" || !job.download_url) return;
  if (quiet) delivered.add(job.download_url);
  else save(job.download_url);
}

function drop(id) {
  jobs.delete(id);
  detail.delete(id);
  const i = order.indexOf(id);
  if (i >= 0) order.splice(i, 1);
}

function renderMeta(job) {
  if (job.meta === "loading") return '<p class="muted">Reading metadata…</p>';
  const m = detail.get(job.id);
  if (!m || (m.fields.length === 0 && m.all.length === 0)) return '<p class="muted">No metadata found</p>';
  let html = "<table>";
  for (const f of m.fields) html += '<tr><td>' + esc(f.label) + '</td><td class="risk-' + esc(f.risk) + '">' + esc(f.value) + '</td></tr>';
  html += "</table>";
  if (m.show_all) {
    html += "<details><summary>All " + m.all.length + " tags</summary><table>";
    for (const t of m.all) html += "<tr><td>" + esc(t.key) + "</td><td>" + esc(t.value) + "</td></tr>";
    html += "</table></details>";
  }
  return html;
}

function renderOptions(job) {
  if (job.state !== "pending" || job.applicable.length === 0) return "";
  return OPTION_LABELS.filter((o) => job.applicable.includes(o.key)).map((o) =>
    '<label><input type="checkbox" data-job="' + esc(job.id) + '" data-key="' + esc(o.key) + '"' +
    (job.options && job.options[o.key] ? " checked" : "") + "> " + esc(o.label) + "</label> ").join("");
}

function renderResult(job) {
  const r = job.result;
  if (!r) return "";
  return '<p class="muted">' + esc(r.original_format) + " → " + esc(r.output_format) + ", " +
    esc(r.original_size_text) + " → " + esc(r.cleaned_size_text) +
    (r.removed.length ? "<br>Removed: " + esc(r.removed.join(", ")) : "") + "</p>";
}

function render() {
  const counts = { pending: 0, processing: 0, processed: 0 };
  $("#jobs").innerHTML = order.map((id) => {
    const j = jobs.get(id);
    counts[j.state]++;
    return '<div class="job"><img alt="" src="' + esc(j.preview_url) + '"><div>' +
      "<strong>" + esc(j.name) + '</strong> <span class="muted">' + esc(j.size_text) + '</span> ' +
      '<span class="state ' + esc(j.state) + '">' + esc(j.state) + "</span>" +
      renderMeta(j) + renderOptions(j) + renderResult(j) + "<div>" +
      (j.state === "pending" ? '<button data-act="run" data-job="' + esc(j.id) + '">Clean</button> ' : "") +
      (j.state === "processed" ? '<button data-act="download" data-job="' + esc(j.id) + '">Download again</button> ' : "") +
      '<a href="/jobs/' + esc(j.id) + '/report.xlsx">Report</a> ' +
      '<button data-act="remove" data-job="' + esc(j.id) + '">Remove</button></div></div></div>';
  }).join("");
  $("#counts").textContent = order.length ? counts.processed + " of " + order.length + " cleaned" : "";
}

async function loadDetail(id) {
  const j = await api("GET", "/jobs/" + id);
  if (j && j.metadata) { detail.set(id, j.metadata); render(); }
}

function connect() {
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = (msg) => {
    const evt = JSON.parse(msg.data);
    switch (evt.type) {
    case "snapshot":
      jobs.clear(); order.length = 0;
      evt.jobs.forEach((j) => upsert(j, true));
      evt.jobs.filter((j) => j.meta === "loaded").forEach((j) => loadDetail(j.id));
      showError(evt.error);
      break;
    case "added": case "updated": upsert(evt.job); break;
    case "removed": drop(evt.job_id); break;
    case "reset": jobs.clear(); detail.clear(); order.length = 0; showError(""); break;
    case "error": showError(evt.error); break;
    }
    render();
  };
  ws.onclose = () => setTimeout(connect, 1000);
}

async function addFiles(list) {
  if (!list.length) return;
  showError("");
  const fd = new FormData();
  for (const f of list) fd.append("files", f, f.name);
  const res = await api("POST", "/jobs", fd);
  if (res && res.rejected && res.rejected.length) showError("Unsupported: " + res.rejected.join(", "));
}

const dropEl = $("#drop");
dropEl.addEventListener("click", () => $("#pick").click());
$("#pick").addEventListener("change", (e) => { addFiles(e.target.files); e.target.value = ""; });
dropEl.addEventListener("dragover", (e) => { e.preventDefault(); dropEl.classList.add("over"); });
dropEl.addEventListener("dragleave", () => dropEl.classList.remove("over"));
dropEl.addEventListener("drop", (e) => { e.preventDefault(); dropEl.classList.remove("over"); addFiles(e.dataTransfer.files); });

$("#run-all").addEventListener("click", () => api("POST", "/jobs/run"));
$("#reset").addEventListener("click", () => api("POST", "/reset"));
$("#jobs").addEventListener("click", async (e) => {
  const b = e.target.closest("button[data-act]");
  if (!b) return;
  const id = b.dataset.job;
  if (b.dataset.act === "run") api("POST", "/jobs/" + id + "/run");
  if (b.dataset.act === "remove") api("DELETE", "/jobs/" + id);
  if (b.dataset.act === "download") { const d = await api("POST", "/jobs/" + id + "/download"); if (d) save(d.url); }
});
$("#jobs").addEventListener("change", (e) => {
  const c = e.target.closest("input[data-key]");
  if (c) api("PUT", "/jobs/" + c.dataset.job + "/options", { [c.dataset.key]: c.checked });
});

connect();
</script>
`
