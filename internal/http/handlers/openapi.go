package handlers

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strings"
)

//go:embed openapi.json
var openAPIDocument []byte

// apiRoute is one operation listed on the docs page.
type apiRoute struct {
	Method  string
	Path    string
	Summary string
}

type apiDocs struct {
	Title   string
	Version string
	ETag    string
	Routes  []apiRoute
	page    []byte
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}} {{.Version}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <noscript>
      <h1>{{.Title}}</h1>
      <ul>{{range .Routes}}
        <li><code>{{.Method}} {{.Path}}</code> {{.Summary}}</li>{{end}}
      </ul>
    </noscript>
    <redoc spec-url="/v1/openapi.json"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

// docs is built once from the embedded document; a broken document fails at
// startup rather than on the first request.
var docs = mustLoadDocs(openAPIDocument)

func mustLoadDocs(raw []byte) apiDocs {
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]map[string]struct {
			Summary string `json:"summary"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic("handlers: invalid openapi.json: " + err.Error())
	}
	sum := sha256.Sum256(raw)
	d := apiDocs{
		Title:   doc.Info.Title,
		Version: doc.Info.Version,
		ETag:    `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
	for path, ops := range doc.Paths {
		for method, op := range ops {
			d.Routes = append(d.Routes, apiRoute{Method: strings.ToUpper(method), Path: path, Summary: op.Summary})
		}
	}
	sort.Slice(d.Routes, func(i, j int) bool {
		if d.Routes[i].Path != d.Routes[j].Path {
			return d.Routes[i].Path < d.Routes[j].Path
		}
		return d.Routes[i].Method < d.Routes[j].Method
	})
	var page bytes.Buffer
	if err := docsTemplate.Execute(&page, d); err != nil {
		panic("handlers: render docs page: " + err.Error())
	}
	d.page = page.Bytes()
	return d
}

// OpenAPIJSON serves the embedded document with an ETag so clients can cache it.
func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", docs.ETag)
	if r.Header.Get("If-None-Match") == docs.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docs.page)
}
