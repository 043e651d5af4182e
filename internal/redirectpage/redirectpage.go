// Package redirectpage renders the static page served for a redirect.
package redirectpage

import (
	"bytes"
	"fmt"
	"html/template"
)

var page = template.Must(template.New("redirect").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta http-equiv="refresh" content="0; URL={{.Target}}">
  <link rel="canonical" href="{{.Target}}">
  <title>Redirecting...</title>
  <style>
    body { font-family: Arial, sans-serif; text-align: center; padding: 50px; background: #f5f5f5; }
    .container { max-width: 600px; margin: 0 auto; background: #fff; padding: 30px; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    h1 { color: #333; }
    p { color: #666; }
    a { color: #0066cc; text-decoration: none; }
    .footer { margin-top: 30px; font-size: 12px; color: #999; }
  </style>
</head>
<body>
  <div class="container">
    <h1>Redirecting...</h1>
    <p>If you are not redirected automatically, <a href="{{.Target}}">click here</a>.</p>
    <div class="footer">Powered by {{.Domain}}</div>
  </div>
</body>
</html>
`))

// Renderer builds redirect pages branded with the platform domain.
type Renderer struct {
	domain string
}

func NewRenderer(domain string) *Renderer {
	return &Renderer{domain: domain}
}

// Render returns the page for target. The output depends only on target.
func (r *Renderer) Render(target string) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, struct{ Target, Domain string }{target, r.domain}); err != nil {
		return nil, fmt.Errorf("render redirect page: %w", err)
	}
	return buf.Bytes(), nil
}
