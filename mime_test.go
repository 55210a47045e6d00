package main

import "testing"

func TestContentTypeFor(t *testing.T) {
	for _, c := range []struct {
		name string
		want string
	}{
		{"index.html", "text/html; charset=utf-8"},
		{"/srv/www/site.css", "text/css; charset=utf-8"},
		{"app.js", "text/javascript; charset=utf-8"},
		{"logo.png", "image/png"},
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"notes.txt", "text/plain; charset=utf-8"},
		{"bundle.zip", "application/zip"},
		{"INDEX.HTML", "application/octet-stream"},
		{"page.htm", "application/octet-stream"},
		{"archive.tar.gz", "application/octet-stream"},
		{"html", "application/octet-stream"},
		{"Makefile", "application/octet-stream"},
	} {
		if got := contentTypeFor(c.name); got != c.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
