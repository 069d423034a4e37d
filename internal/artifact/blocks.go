package artifact

import (
	"net/url"
	"strings"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/spf13/cast"
	"golang.org/x/net/html"
)

func prop(b dsl.Block, key string) string {
	v, ok := b.Props[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

func appendText(parent *html.Node, tag, class, s string) {
	if s == "" {
		return
	}
	var el *html.Node
	if class != "" {
		el = element(tag, attr("class", class))
	} else {
		el = element(tag)
	}
	el.AppendChild(text(s))
	parent.AppendChild(el)
}

func renderHero(el *html.Node, b dsl.Block, r *Renderer) error {
	appendText(el, "p", "kicker", prop(b, "kicker"))
	appendText(el, "h1", "", prop(b, "title"))
	appendText(el, "p", "subtitle", prop(b, "subtitle"))
	return r.appendMarkdown(el, prop(b, "content"))
}

func renderSection(el *html.Node, b dsl.Block, r *Renderer) error {
	appendText(el, "h2", "", prop(b, "heading"))
	appendText(el, "p", "subtitle", prop(b, "subtitle"))
	return r.appendMarkdown(el, prop(b, "content"))
}

func renderCTA(el *html.Node, b dsl.Block, r *Renderer) error {
	label := prop(b, "label")
	if label == "" {
		label = "Learn more"
	}
	a := element("a", attr("class", "button"), attr("href", safeHref(prop(b, "href"))))
	a.AppendChild(text(label))
	el.AppendChild(a)
	appendText(el, "p", "note", prop(b, "note"))
	return nil
}

func renderQuote(el *html.Node, b dsl.Block, r *Renderer) error {
	q := element("blockquote")
	if err := r.appendMarkdown(q, prop(b, "content")); err != nil {
		return err
	}
	el.AppendChild(q)
	appendText(el, "cite", "", prop(b, "author"))
	return nil
}

func renderImage(el *html.Node, b dsl.Block, r *Renderer) error {
	src := safeHref(prop(b, "src"))
	if src == "#" {
		return nil
	}
	el.AppendChild(element("img", attr("src", src), attr("alt", prop(b, "alt")), attr("loading", "lazy")))
	appendText(el, "p", "caption", prop(b, "caption"))
	return nil
}

func renderContainer(el *html.Node, b dsl.Block, r *Renderer) error {
	appendText(el, "h2", "", prop(b, "heading"))
	return nil
}

func renderPlaceholder(el *html.Node, b dsl.Block, r *Renderer) error {
	for i, a := range el.Attr {
		if a.Key == "class" {
			el.Attr[i].Val = a.Val + " block-unknown"
		}
	}
	appendText(el, "p", "placeholder", `Unsupported block type "`+b.Type+`"`)
	return nil
}

// safeHref allows relative links, fragments and http(s)/mailto URLs.
func safeHref(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "#"
	}
	if strings.HasPrefix(raw, "//") {
		return "#"
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "#") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto":
		return raw
	}
	return "#"
}
