package dashboard

import "html/template"

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html>
<head>
<title>iptvscan</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
.cards { display: flex; gap: 1em; flex-wrap: wrap; }
.card { border: 1px solid #ccc; border-radius: 6px; padding: 1em; min-width: 9em; }
.card .num { font-size: 1.8em; font-weight: bold; }
.dead .num { color: #b00; }
small { color: #777; }
</style>
</head>
<body>
<h1>iptvscan summary</h1>
<small>generated {{.GeneratedAt}}</small>
<div class="cards">
  <div class="card"><div class="num">{{.ChannelCount}}</div>channels</div>
  <div class="card"><div class="num">{{.MatchedCount}}</div>matched to guide</div>
  <div class="card"><div class="num">{{.GuideEntries}}</div>guide entries ({{.GuideSources}} sources)</div>
  <div class="card"><div class="num">{{.AliveURLs}}</div>alive URLs</div>
  <div class="card dead"><div class="num">{{.DeadURLs}}</div>dead URLs</div>
</div>
{{if .Groups}}
<h2>Channels by group</h2>
<table>
<tr><th>Group</th><th>Count</th></tr>
{{range .Groups}}<tr><td>{{.Key}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}
{{if .Languages}}
<h2>Channels by language</h2>
<table>
<tr><th>Language</th><th>Count</th></tr>
{{range .Languages}}<tr><td>{{.Key}}</td><td>{{.Count}}</td></tr>
{{end}}</table>
{{end}}
<p>
<a href="/channels.json">channels.json</a> ·
<a href="/guide.json">guide.json</a> ·
<a href="/dead_links.json">dead_links.json</a> ·
<a href="/metrics">metrics</a>
</p>
</body>
</html>
`))
