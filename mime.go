package main

import "strings"

const defaultContentType = "application/octet-stream"

// contentTypes maps file suffixes to the Content-Type sent with them.
// Matching is case-sensitive, and there is no content sniffing.
var contentTypes = []struct {
	suffix      string
	contentType string
}{
	{".html", "text/html; charset=utf-8"},
	{".css", "text/css; charset=utf-8"},
	{".js", "text/javascript; charset=utf-8"},
	{".png", "image/png"},
	{".jpg", "image/jpeg"},
	{".jpeg", "image/jpeg"},
	{".txt", "text/plain; charset=utf-8"},
	{".zip", "application/zip"},
}

// contentTypeFor returns the Content-Type for a file, based on its name.
func contentTypeFor(name string) string {
	for _, ct := range contentTypes {
		if strings.HasSuffix(name, ct.suffix) {
			return ct.contentType
		}
	}
	return defaultContentType
}
