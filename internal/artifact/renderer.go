// Package artifact renders a page document and its theme into one
// self-contained HTML file.
package artifact

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/site-studio/engine/internal/dsl"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockRenderer fills the element created for one block. Children of the
// block are appended by the Renderer afterwards.
type BlockRenderer interface {
	Render(el *html.Node, b dsl.Block, r *Renderer) error
}

// BlockRendererFunc adapts a function to BlockRenderer.
type BlockRendererFunc func(el *html.Node, b dsl.Block, r *Renderer) error

func (f BlockRendererFunc) Render(el *html.Node, b dsl.Block, r *Renderer) error { return f(el, b, r) }

// Options tune a render.
type Options struct {
	// Editable marks every block as selectable for the visual editor.
	Editable bool
	Lang     string
}

// Renderer turns documents into HTML using a registry of block renderers.
// Unknown block types render as a visible placeholder.
type Renderer struct {
	blocks   map[string]BlockRenderer
	markdown goldmark.Markdown
}

func NewRenderer() *Renderer {
	r := &Renderer{
		blocks:   make(map[string]BlockRenderer),
		markdown: goldmark.New(),
	}

	r.Register("Hero", BlockRendererFunc(renderHero))
	r.Register("Section", BlockRendererFunc(renderSection))
	r.Register("PressReleaseBody", BlockRendererFunc(renderSection))
	r.Register("Text", BlockRendererFunc(renderSection))
	r.Register("CTA", BlockRendererFunc(renderCTA))
	r.Register("Quote", BlockRendererFunc(renderQuote))
	r.Register("Image", BlockRendererFunc(renderImage))
	r.Register("Grid", BlockRendererFunc(renderContainer))
	r.Register("Columns", BlockRendererFunc(renderContainer))
	r.Register("Card", BlockRendererFunc(renderSection))

	return r
}

// Register adds or replaces the renderer for a block type.
func (r *Renderer) Register(blockType string, br BlockRenderer) {
	r.blocks[blockType] = br
}

// Supports reports whether a block type has a dedicated renderer.
func (r *Renderer) Supports(blockType string) bool {
	_, ok := r.blocks[blockType]
	return ok
}

// Render produces the complete HTML document.
func (r *Renderer) Render(doc dsl.Document, theme dsl.ThemeTokens, opts Options) (string, error) {
	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}

	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	htmlEl := element("html", attr("lang", lang))
	root.AppendChild(htmlEl)

	head := element("head")
	head.AppendChild(element("meta", attr("charset", "utf-8")))
	head.AppendChild(element("meta", attr("name", "viewport"), attr("content", "width=device-width, initial-scale=1")))
	title := element("title")
	title.AppendChild(text(doc.PageMeta.Title))
	head.AppendChild(title)
	if doc.PageMeta.Description != nil {
		head.AppendChild(element("meta", attr("name", "description"), attr("content", *doc.PageMeta.Description)))
	}
	style := element("style")
	style.AppendChild(text(themeCSS(theme)))
	head.AppendChild(style)
	htmlEl.AppendChild(head)

	body := element("body")
	page := element("main", attr("class", "page"), attr("data-page-slug", doc.PageMeta.Slug))
	for _, b := range doc.Blocks {
		n, err := r.renderBlock(b, opts)
		if err != nil {
			return "", err
		}
		page.AppendChild(n)
	}
	body.AppendChild(page)
	htmlEl.AppendChild(body)

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) renderBlock(b dsl.Block, opts Options) (*html.Node, error) {
	tag := "section"
	if b.Type == "CTA" || b.Type == "Card" || b.Type == "Quote" || b.Type == "Image" {
		tag = "div"
	}
	el := element(tag,
		attr("class", blockClasses(b)),
		attr("data-block-id", b.ID),
		attr("data-block-type", b.Type),
	)
	for _, k := range sortedKeys(b.StyleTokens) {
		// html.Render escapes values but writes keys verbatim.
		name := cssIdent(k)
		if name == "" {
			continue
		}
		el.Attr = append(el.Attr, attr("data-style-"+name, b.StyleTokens[k]))
	}
	if opts.Editable {
		el.Attr = append(el.Attr, attr("data-editable", "true"), attr("tabindex", "0"))
	}

	br, ok := r.blocks[b.Type]
	if !ok {
		br = BlockRendererFunc(renderPlaceholder)
	}
	if err := br.Render(el, b, r); err != nil {
		return nil, fmt.Errorf("render block %s (%s): %w", b.ID, b.Type, err)
	}

	for _, c := range b.Children {
		cn, err := r.renderBlock(c, opts)
		if err != nil {
			return nil, err
		}
		el.AppendChild(cn)
	}
	return el, nil
}

// appendMarkdown renders markdown source and appends the resulting nodes.
// Raw HTML inside the source is dropped by goldmark's default settings.
func (r *Renderer) appendMarkdown(parent *html.Node, src string) error {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return fmt.Errorf("markdown: %w", err)
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(&buf, ctx)
	if err != nil {
		return fmt.Errorf("parse markdown output: %w", err)
	}
	wrap := element("div", attr("class", "prose"))
	for _, n := range nodes {
		wrap.AppendChild(n)
	}
	parent.AppendChild(wrap)
	return nil
}

func blockClasses(b dsl.Block) string {
	classes := []string{"block", "block-" + strings.ToLower(b.Type)}
	if bg := b.StyleTokens["background"]; bg != "" {
		classes = append(classes, "bg-"+cssIdent(bg))
	}
	if al := b.StyleTokens["align"]; al != "" {
		classes = append(classes, "align-"+cssIdent(al))
	}
	return strings.Join(classes, " ")
}

// themeCSS exposes every token as a custom property, e.g. --colors-primary.
func themeCSS(t dsl.ThemeTokens) string {
	var sb strings.Builder
	sb.WriteString(":root{")
	groups := t.Groups()
	for _, g := range sortedKeys(groups) {
		for _, k := range sortedKeys(groups[g]) {
			fmt.Fprintf(&sb, "--%s-%s:%s;", g, cssIdent(k), cssValue(groups[g][k]))
		}
	}
	sb.WriteString("}\n")
	sb.WriteString(baseCSS)
	return sb.String()
}

const baseCSS = `body{margin:0;background:var(--colors-background);color:var(--colors-text);font-family:var(--typography-bodyfont);line-height:var(--typography-bodylineheight)}
h1,h2,h3{font-family:var(--typography-headingfont);font-weight:var(--typography-headingweight);letter-spacing:var(--typography-headingtracking)}
.page{max-width:var(--spacing-contentmax);margin:0 auto}
.block{padding:var(--spacing-sectiony) var(--spacing-sectionx)}
.block-card,.block-quote{background:var(--colors-card);border-radius:var(--radius-card);box-shadow:var(--shadow-card)}
.bg-gradient-primary{background:linear-gradient(135deg,var(--colors-surface),var(--colors-primary))}
.bg-gradient-secondary{background:linear-gradient(135deg,var(--colors-surface),var(--colors-secondary))}
.button{display:inline-block;border-radius:var(--radius-button);background:var(--colors-primary);color:var(--colors-background);padding:.75rem 1.25rem;transition:all var(--motion-normal) var(--motion-easing)}
.block-unknown{border:1px dashed var(--colors-accent);color:var(--colors-textmuted)}
`

func cssIdent(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// cssValue drops characters that could end the declaration or the style element.
func cssValue(s string) string {
	return strings.NewReplacer("<", "", ">", "", ";", "", "{", "", "}", "").Replace(s)
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(k, v string) html.Attribute {
	return html.Attribute{Key: k, Val: v}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
