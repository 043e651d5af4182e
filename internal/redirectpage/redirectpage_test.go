package redirectpage

import (
	"html"
	"strings"
	"testing"
)

func TestRenderEmbedsTarget(t *testing.T) {
	r := NewRenderer("sriox.com")
	page, err := r.Render("https://example.com/new-home")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	html := string(page)

	for _, want := range []string{
		`content="0; URL=https://example.com/new-home"`,
		`<link rel="canonical" href="https://example.com/new-home">`,
		`<a href="https://example.com/new-home">click here</a>`,
		"Powered by sriox.com",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("sriox.com")
	a, _ := r.Render("https://example.com/a")
	b, _ := r.Render("https://example.com/a")
	if string(a) != string(b) {
		t.Fatal("same target must render the same page")
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	r := NewRenderer("sriox.com")
	page, err := r.Render(`https://example.com/"><script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(string(page), "<script>") {
		t.Fatal("target must be escaped")
	}
}

func TestRenderQueryStringTarget(t *testing.T) {
	const target = "https://example.com/search?q=a&lang=en"
	r := NewRenderer("sriox.com")
	page, err := r.Render(target)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	// & is written as &amp; in attributes; browsers read back the exact URL.
	decoded := html.UnescapeString(string(page))
	for _, want := range []string{
		`content="0; URL=` + target + `"`,
		`<link rel="canonical" href="` + target + `">`,
		`<a href="` + target + `">click here</a>`,
	} {
		if !strings.Contains(decoded, want) {
			t.Errorf("decoded page is missing %q", want)
		}
	}
}
