package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const serverName = "tinyhttpd"

// A Response is built completely before anything is written to the client.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
	}
}

// errorResponse returns a response with the given status and an empty body.
func errorResponse(status int) *Response {
	return newResponse(status)
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "status code " + strconv.Itoa(code)
}

func (r *Response) hasBody() bool {
	switch {
	case r.Status >= 100 && r.Status < 200, r.Status == http.StatusNoContent, r.Status == http.StatusNotModified:
		return false
	}
	return true
}

// writeTo sends the response to w. Every response asks the client to close
// the connection afterward.
func (r *Response) writeTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", r.Status, statusText(r.Status))

	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	h.Set("Connection", "close")
	h.Set("Server", serverName)
	if r.hasBody() {
		h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	if err := h.Write(bw); err != nil {
		return err
	}
	bw.WriteString("\r\n")

	if r.hasBody() {
		bw.Write(r.Body)
	}
	return bw.Flush()
}
