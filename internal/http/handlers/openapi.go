package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync"
)

// OpenAPIPath serves the embedded document describing the import,
// transform, credit and library routes. The docs page loads it from here.
const OpenAPIPath = "/v1/openapi.json"

//go:embed openapi.json
var openAPISpec []byte

const redocHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>%s</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body {
        margin: 0;
        padding: 0;
      }
      redoc {
        display: block;
        height: 100vh;
      }
    </style>
  </head>
  <body>
    <redoc spec-url="%s"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// docsPage renders the Redoc page once, titled after the document's info block.
var docsPage = sync.OnceValue(func() []byte {
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	title := "API Docs"
	if err := json.Unmarshal(openAPISpec, &doc); err == nil && doc.Info.Title != "" {
		title = fmt.Sprintf("%s %s Docs", doc.Info.Title, doc.Info.Version)
	}
	return []byte(fmt.Sprintf(redocHTML, html.EscapeString(title), OpenAPIPath))
})

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsPage())
}
