package handlers

import (
	"html/template"
	"net/http"
)

const (
	openAPIPath        = "/api/docs/openapi.json"
	swaggerDistBase    = "https://unpkg.com/swagger-ui-dist@5.10.0"
	swaggerPageTitle   = "Climate Dashboard API Documentation"
	swaggerContentType = "text/html; charset=utf-8"
)

type swaggerPage struct {
	Title   string
	DistURL string
	SpecURL string
}

var swaggerTemplate = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.DistURL}}/swagger-ui.css">
<style>body { margin: 0; }</style>
</head>
<body>
<div id="swagger-ui"></div>
<script src="{{.DistURL}}/swagger-ui-bundle.js"></script>
<script>
window.onload = function() {
  window.ui = SwaggerUIBundle({
    url: {{.SpecURL}},
    dom_id: "#swagger-ui",
    deepLinking: true,
    presets: [SwaggerUIBundle.presets.apis]
  });
};
</script>
</body>
</html>`))

// SwaggerUI serves the interactive documentation page for the OpenAPI document
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", swaggerContentType)
	page := swaggerPage{Title: swaggerPageTitle, DistURL: swaggerDistBase, SpecURL: openAPIPath}
	if err := swaggerTemplate.Execute(w, page); err != nil {
		http.Error(w, "failed to render documentation", http.StatusInternalServerError)
	}
}
