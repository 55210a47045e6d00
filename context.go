package main

import (
	"time"
)

// A transaction stores what is known about one request/response cycle in
// one place, for the access log.
type transaction struct {
	start  time.Time
	peer   string         // the client's address
	req    *Request       // nil if the request could not be parsed
	target resolvedTarget // the file the request resolved to, if any
	resp   *Response
}

// logFields returns the access log entry for t: time, peer, method, target,
// status, body length, duration, and resolved target.
func (t *transaction) logFields() []string {
	var method, target string
	if t.req != nil {
		method = t.req.Method
		target = t.req.Target
	}

	status, length := 0, 0
	if t.resp != nil {
		status = t.resp.Status
		length = len(t.resp.Body)
	}

	resolved := ""
	if t.target.Path != "" {
		resolved = t.target.Kind.String() + " " + t.target.Path
	}

	return toStrings(t.start.Format("2006-01-02 15:04:05"), t.peer, method, target, status, length, time.Since(t.start).Round(time.Microsecond), resolved)
}
