package session

import (
	"bytes"
	"encoding/base64"
	"html/template"

	"github.com/joeycumines/go-browsersession/engine"
)

var errorPageTemplate = template.Must(template.New(`error`).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body class="error-{{.Class}}">
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<p><code>{{.URI}}</code></p>
{{- if .Code}}
<p>Error code {{.Code}}</p>
{{- end}}
</body></html>
`))

type errorPageData struct {
	Title       string
	Description string
	Class       string
	URI         string
	Code        int
}

// ErrorPageURI renders a page describing a failed load of uri, returned as a
// data URI for the engine to display in its place.
func ErrorPageURI(uri string, err engine.WebRequestError) string {
	data := errorPageData{URI: uri, Code: err.Code}
	switch err.Category {
	case engine.ErrorCategorySecurity:
		data.Class, data.Title, data.Description = `security`, `Secure Connection Failed`,
			`The page you are trying to view cannot be shown because the authenticity of the received data could not be verified.`
	case engine.ErrorCategoryNetwork:
		data.Class, data.Title, data.Description = `network`, `Unable to Connect`,
			`The site could be temporarily unavailable or too busy. Try again in a few moments.`
	case engine.ErrorCategoryContent:
		data.Class, data.Title, data.Description = `content`, `Content Error`,
			`The page you are trying to view cannot be shown because of an error in the data transmission.`
	case engine.ErrorCategoryURI:
		data.Class, data.Title, data.Description = `uri`, `Invalid Address`,
			`The address is not valid, or uses a protocol that is not supported.`
	case engine.ErrorCategoryProxy:
		data.Class, data.Title, data.Description = `proxy`, `Proxy Server Refused Connection`,
			`The browser is configured to use a proxy server that is refusing connections.`
	case engine.ErrorCategorySafeBrowsing:
		data.Class, data.Title, data.Description = `safebrowsing`, `Deceptive Site`,
			`This page has been reported as unsafe, and was blocked.`
	default:
		data.Class, data.Title, data.Description = `unknown`, `Problem Loading Page`,
			`An unknown error occurred while loading the page.`
	}
	var b bytes.Buffer
	if err := errorPageTemplate.Execute(&b, data); err != nil {
		// the template is static, and the data plain strings
		panic(err)
	}
	return `data:text/html;base64,` + base64.StdEncoding.EncodeToString(b.Bytes())
}
