package page

const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="Cache-Control" content="no-cache, no-store, must-revalidate">
<meta http-equiv="Pragma" content="no-cache">
<meta http-equiv="Expires" content="0">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{- if gt .Page.Refresh 0}}
<meta http-equiv="refresh" content="{{.Page.Refresh}}">
{{- end}}
<title>{{.Page.Title}}</title>
<style>
  body  { font-family: verdana, arial; text-align: center; margin: 0 auto; padding-top: 30px; }
  img   { width: auto; max-width: 60%; height: auto; }
  input { font-size: 150%; }
  a     { font-size: 200%; }
</style>
</head>
<body>
<h1>{{.Site.Name}}</h1>
<p>{{.Site.Comment}}</p>
{{.Page.Body}}
</body>
</html>
`

const bodyTemplates = `
{{define "index"}}
<h2>Do not forget to close the shutter after use</h2>
<a href="page2">Open the shutter</a><br><br><br>
<a href="siteinfo">Set site info</a><br>
{{end}}

{{define "index-open"}}
<h2>The shutter was left open</h2>
<p>The shutter was not closed after the previous visit. This lets dirt reach the camera lens.</p>
<h2>Please do not forget to close the shutter after use!</h2>
<a href="page2">View the camera</a><br><br><br><br>
<a href="siteinfo">Set site info</a><br>
{{end}}

{{define "opened"}}
<img src="" id="photo">
<br>
<a href="page3">Close the shutter</a>
<script>
  window.onload = document.getElementById("photo").src = window.location.protocol + "//" + window.location.hostname + ":81/stream";
</script>
{{end}}

{{define "closed"}}
<h2>The shutter is closed. You can safely disconnect the battery.</h2>
<a href="page2">Back to the camera</a><br><br><br>
<a href="siteinfo">Set site info</a><br>
{{end}}

{{define "siteinfo"}}
<form action="/siteinfo2" method="get">
  <label for="sitename">Site name:</label><br>
  <input type="text" id="sitename" name="sitename" value="{{.Name}}"><br><br>
  <label for="comment">Comment:</label><br>
  <input type="text" id="comment" name="comment" value="{{.Comment}}"><br><br>
  <button type="submit" name="Exit" value="OK">OK</button>
  <button type="submit" name="Exit" value="Cancel">Cancel</button>
</form>
{{end}}

{{define "adjust"}}
<form action="/adjust2" method="get">
  <h3>Shutter adjustment</h3>
  <h5>{{.Status}}</h5>
  <label for="openpos">Open position (0..180):</label>
  <input type="number" id="openpos" name="openpos" min="0" max="180" value="{{.OpenPosition}}">
  <label for="openpos">degrees</label><br>
  <label for="clpos">Closed position (0..180):</label>
  <input type="number" id="clpos" name="clpos" min="0" max="180" value="{{.ClosedPosition}}">
  <label for="clpos">degrees</label><br><br>
  <button type="submit" name="Open" value="Open">Open</button>
  <button type="submit" name="Close" value="Close">Close</button><br><br>
  <label for="speed">Speed (1..400):</label>
  <input type="number" id="speed" name="speed" min="1" max="400" value="{{.Speed}}">
  <label for="speed">deg/sec</label><br><br>
  <p>Total shutter moves so far: {{.MoveCount}}</p>
  <label for="ntimes">Move the shutter</label>
  <input type="number" id="ntimes" name="ntimes" min="0" max="1000" value="{{.MovesLeft}}">
  <label for="ntimes">times</label><br><br>
  <button type="submit" name="Exit" value="start">Start moves</button>
  <button type="submit" name="Exit" value="confirm">OK</button>
  <button type="submit" name="Exit" value="cancel">Cancel</button>
</form>
{{end}}
`
