package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// HTML indexes for directories

// listDirectory answers a GET request for a directory with a page linking to
// each of its entries.
func (s *server) listDirectory(req *Request, target resolvedTarget) *Response {
	entries, err := os.ReadDir(target.Path)
	if err != nil {
		log.Printf("Forbidden: cannot read directory %s: %v", target.Path, err)
		return errorResponse(http.StatusForbidden)
	}

	c := collate.New(language.Und)
	sort.Slice(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name(), entries[j].Name()) < 0
	})

	buf := new(bytes.Buffer)
	if err := html.Render(buf, listingPage(req.Path, entries)); err != nil {
		log.Printf("Error rendering listing for %s: %v", target.Path, err)
		return errorResponse(http.StatusInternalServerError)
	}

	resp := newResponse(http.StatusOK)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = buf.Bytes()
	s.compress(req, resp)
	return resp
}

// linkPrefix returns what must be prepended to an entry name so that the
// link is correct relative to the page at reqPath. A directory requested
// without a trailing slash ("docs") resolves relative links against its
// parent, so its own name has to be included.
func linkPrefix(reqPath string) string {
	rel := cleanRelative(reqPath)
	if rel == "" || strings.HasSuffix(reqPath, "/") {
		return ""
	}
	return path.Base(rel) + "/"
}

func listingPage(reqPath string, entries []os.DirEntry) *html.Node {
	title := "Index of /" + cleanRelative(reqPath)
	prefix := linkPrefix(reqPath)

	parent := "../"
	if prefix != "" {
		parent = "./"
	}

	list := element(atom.Ul)
	list.AppendChild(listItem(parent, "../", ""))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		list.AppendChild(listItem(href(prefix+name), name, entryTitle(e)))
	}

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(withText(element(atom.Title), title))

	body := element(atom.Body)
	body.AppendChild(withText(element(atom.H1), title))
	body.AppendChild(list)

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)
	return doc
}

func element(a atom.Atom, attr ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attr,
	}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	return n
}

func listItem(link, text, title string) *html.Node {
	attr := []html.Attribute{{Key: "href", Val: link}}
	if title != "" {
		attr = append(attr, html.Attribute{Key: "title", Val: title})
	}
	li := element(atom.Li)
	li.AppendChild(withText(element(atom.A, attr...), text))
	return li
}

// href escapes a relative path for use in a link. url.URL takes care of
// names whose first segment contains a colon.
func href(p string) string {
	return (&url.URL{Path: p}).String()
}

func entryTitle(e os.DirEntry) string {
	info, err := e.Info()
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return fmt.Sprintf("directory, modified %s", humanize.Time(info.ModTime()))
	}
	return fmt.Sprintf("%s, modified %s", humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
}
