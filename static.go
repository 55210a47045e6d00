package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/golang/gddo/httputil"
	"github.com/golang/gddo/httputil/header"
	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/xxh3"
)

// Responses smaller than this are never compressed.
const minCompressSize = 1000

// serveStatic answers a GET request for target.
func (s *server) serveStatic(req *Request, target resolvedTarget) *Response {
	switch target.Kind {
	case Missing:
		return errorResponse(http.StatusNotFound)
	case Forbidden:
		log.Printf("Refusing to serve %s: not a regular file inside the root folder", target.Path)
		return errorResponse(http.StatusForbidden)
	case Directory:
		return s.listDirectory(req, target)
	}

	content, err := os.ReadFile(target.Path)
	if err != nil {
		log.Printf("Forbidden: cannot read file %s: %v", target.Path, err)
		return errorResponse(http.StatusForbidden)
	}

	tag := etag(content)
	if matched, ok := etagMatches(req, tag); ok {
		resp := newResponse(http.StatusNotModified)
		resp.Header.Set("ETag", matched)
		return resp
	}

	resp := newResponse(http.StatusOK)
	resp.Header.Set("Content-Type", contentTypeFor(target.Path))
	resp.Header.Set("ETag", tag)
	resp.Body = content
	s.compress(req, resp)
	return resp
}

// etag returns a strong entity tag for content.
func etag(content []byte) string {
	return fmt.Sprintf(`"%016x"`, xxh3.Hash(content))
}

// encodedETag returns the entity tag for the representation of content
// with tag that is compressed with encoding.
func encodedETag(tag, encoding string) string {
	return strings.TrimSuffix(tag, `"`) + "-" + encoding + `"`
}

// etagMatches reports whether req's If-None-Match header lists tag, or the
// tag of one of its compressed representations. It returns the tag that
// matched.
func etagMatches(req *Request, tag string) (string, bool) {
	for _, v := range header.ParseList(req.httpHeader(), "If-None-Match") {
		if v == "*" {
			return tag, true
		}
		v = strings.TrimPrefix(v, "W/")
		if v == tag || v == encodedETag(tag, "br") || v == encodedETag(tag, "gzip") {
			return v, true
		}
	}
	return "", false
}

// compress replaces resp's body with a compressed version, if the client
// accepts one and compression is enabled.
func (s *server) compress(req *Request, resp *Response) {
	if !s.conf.Compress || len(resp.Body) <= minCompressSize {
		return
	}
	resp.Header.Add("Vary", "Accept-Encoding")

	encoding := httputil.NegotiateContentEncoding(&http.Request{Header: req.httpHeader()}, []string{"br", "gzip"})
	buf := new(bytes.Buffer)
	var compressor io.WriteCloser
	var err error
	switch encoding {
	case "br":
		compressor = brotli.NewWriterOptions(buf, brotli.WriterOptions{Quality: s.conf.BrotliLevel})
	case "gzip":
		compressor, err = gzip.NewWriterLevel(buf, s.conf.GZIPLevel)
		if err != nil {
			log.Println("Error creating gzip compressor:", err)
			return
		}
	default:
		return
	}

	compressor.Write(resp.Body)
	if err := compressor.Close(); err != nil {
		log.Printf("Error compressing response with %s: %v", encoding, err)
		return
	}
	resp.Body = buf.Bytes()
	resp.Header.Set("Content-Encoding", encoding)
	if tag := resp.Header.Get("ETag"); tag != "" {
		resp.Header.Set("ETag", encodedETag(tag, encoding))
	}
}
