package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// support for running "tinyhttpd -test 'GET /index.html' PORT ROOT"

// maxTestBodyPrint is the largest body runRequestTest prints in full.
const maxTestBodyPrint = 4096

// runRequestTest prints debugging information about how the server would
// handle the request line reqLine, without opening a listener. Header fields
// may follow the request line, separated by "\n". POST requests really run
// their scripts.
func runRequestTest(conf *config, runner ScriptRunner, reqLine string, w io.Writer) {
	raw := strings.ReplaceAll(reqLine, "\n", "\r\n") + "\r\n\r\n"
	req, err := readRequest(strings.NewReader(raw))
	if err != nil {
		fmt.Fprintln(w, "Could not parse the request:", err)
		return
	}

	fmt.Fprintln(w, "Method:", req.Method)
	fmt.Fprintln(w, "Target:", req.Target)
	for _, f := range req.Header {
		fmt.Fprintf(w, "Header: %s: %s\n", f.Name, f.Value)
	}
	fmt.Fprintln(w)

	s := newServer(conf, runner, nil)
	tx := &transaction{
		start: time.Now(),
		peer:  "test",
		req:   req,
	}
	resp := s.handle(tx)

	if tx.target.Path == "" {
		if req.Path != "" {
			fmt.Fprintln(w, "Path:", req.Path)
		}
		fmt.Fprintln(w, "The request was not resolved to a file.")
	} else {
		fmt.Fprintln(w, "Path:", req.Path)
		fmt.Fprintf(w, "Resolved to %s (%s).\n", tx.target.Path, tx.target.Kind)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, resp.Status, statusText(resp.Status))
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, strings.Join(resp.Header[k], ", "))
	}
	fmt.Fprintln(w)

	switch {
	case len(resp.Body) == 0:
		fmt.Fprintln(w, "The response has no body.")
	case len(resp.Body) <= maxTestBodyPrint && utf8.Valid(resp.Body) && resp.Header.Get("Content-Encoding") == "":
		w.Write(resp.Body)
		if resp.Body[len(resp.Body)-1] != '\n' {
			fmt.Fprintln(w)
		}
	default:
		fmt.Fprintf(w, "The response body is %d bytes long.\n", len(resp.Body))
	}
}
