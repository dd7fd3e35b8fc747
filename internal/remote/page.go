package remote

import (
	"html/template"
	"net/http"
)

// The follower page mirrors the presenter: it listens on /ws, fetches the
// current slide fragment and sends navigation commands back.
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; flex-direction: column; height: 100vh; }
main { flex: 1; overflow: auto; padding: 2rem; }
footer { display: flex; gap: 1rem; align-items: center; justify-content: center; padding: .75rem; border-top: 1px solid #ddd; }
progress { width: 12rem; }
button:disabled { opacity: .4; }
.error { color: #b00; }
</style>
</head>
<body>
<main id="slide"><p>Waiting for the presenter&hellip;</p></main>
<footer>
  <button id="prev" disabled>&#9664; prev</button>
  <span id="counter">- / {{.Total}}</span>
  <button id="next" disabled>next &#9654;</button>
  <progress id="progress" max="100" value="0"></progress>
  <button id="fullscreen">&#x26F6;</button>
</footer>
<script>
(function () {
  var shown = 0;
  var slide = document.getElementById("slide");
  function send(command, extra) {
    fetch("api/" + command, { method: "POST", body: extra ? JSON.stringify(extra) : null });
  }
  function load(n) {
    fetch("slides/" + n).then(function (r) {
      return r.text().then(function (t) { return { ok: r.ok, text: t }; });
    }).then(function (res) {
      if (res.ok) { slide.innerHTML = res.text; }
      else { slide.innerHTML = '<p class="error">Slide ' + n + ' could not be loaded.</p>'; }
    });
  }
  function apply(s) {
    document.getElementById("counter").textContent = s.counter;
    document.getElementById("progress").value = s.progress;
    document.getElementById("prev").disabled = s.prev_disabled;
    document.getElementById("next").disabled = s.next_disabled;
    if (!s.loading && s.current !== shown) { shown = s.current; load(shown); }
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (ev) { apply(JSON.parse(ev.data)); };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  document.getElementById("prev").onclick = function () { send("prev"); };
  document.getElementById("next").onclick = function () { send("next"); };
  document.getElementById("fullscreen").onclick = function () { send("fullscreen"); };
  connect();
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title string
	Total int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Title: s.deck.Title, Total: s.deck.Total()}); err != nil {
		s.logger.Error("rendering follower page", "err", err)
	}
}
