package main

import (
	"bufio"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/http/httpguts"
)

// maxRequestHeaderBytes limits how much of a connection is read looking for
// the end of the header block. A request body is never read.
const maxRequestHeaderBytes = 8192

var errBadRequest = errors.New("malformed request")

type headerField struct {
	Name  string
	Value string
}

// A Request is the request line and header block read from a connection.
type Request struct {
	Method  string
	Target  string // the request target, as sent
	Version string // empty for a two-token request line

	// Path is the percent-decoded path of Target, without the query
	// string and with one leading slash removed. It is set by decodePath.
	Path string

	// Header holds the header fields in the order they were received.
	// Duplicates are kept.
	Header []headerField
}

// Get returns the value of the first header field named name
// (case-insensitively), or "".
func (r *Request) Get(name string) string {
	for _, f := range r.Header {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// httpHeader converts the header fields to an http.Header, for use with
// libraries that expect one.
func (r *Request) httpHeader() http.Header {
	h := make(http.Header, len(r.Header))
	for _, f := range r.Header {
		h.Add(f.Name, f.Value)
	}
	return h
}

// readRequest reads a request line and the header fields that follow it.
// Reading stops at the blank line ending the header block, at EOF, or after
// maxRequestHeaderBytes; whatever header fields were read by then are kept.
func readRequest(r io.Reader) (*Request, error) {
	br := bufio.NewReader(&io.LimitedReader{R: r, N: maxRequestHeaderBytes})

	line, err := readLine(br)
	if line == "" {
		if err != nil {
			return nil, errors.Wrapf(errBadRequest, "reading request line: %v", err)
		}
		return nil, errors.Wrap(errBadRequest, "empty request line")
	}

	req, perr := parseRequestLine(line)
	if perr != nil {
		return nil, perr
	}

	for err == nil {
		line, err = readLine(br)
		if line == "" || err != nil {
			// A blank line ends the header block; a line cut off by EOF
			// or the size limit is dropped.
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			continue
		}
		req.Header = append(req.Header, headerField{Name: name, Value: value})
	}

	return req, nil
}

// readLine returns the next line from br, without its line terminator.
// A final line without a terminator is returned along with io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func parseRequestLine(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return nil, errors.Wrapf(errBadRequest, "invalid request line %q", line)
	}

	req := &Request{
		Method: fields[0],
		Target: fields[1],
	}
	if len(fields) == 3 {
		req.Version = fields[2]
		if !strings.HasPrefix(req.Version, "HTTP/") {
			return nil, errors.Wrapf(errBadRequest, "invalid protocol version %q", req.Version)
		}
	}
	if !httpguts.ValidHeaderFieldName(req.Method) {
		return nil, errors.Wrapf(errBadRequest, "invalid method %q", req.Method)
	}
	return req, nil
}

// decodePath sets r.Path from r.Target. Only GET and POST requests need a
// path, so the router calls it after the method is known.
func (r *Request) decodePath() error {
	p, err := targetPath(r.Target)
	if err != nil {
		return err
	}
	r.Path = p
	return nil
}

// targetPath extracts the decoded path from a request target in origin form
// ("/a/b?q"), absolute form ("http://host/a/b?q"), or as a bare relative
// path ("a/b"), and strips its leading slash.
func targetPath(target string) (string, error) {
	p := target
	if i := strings.IndexAny(p, "?#"); i != -1 {
		p = p[:i]
	}

	if p == "" || p == "*" {
		return "", errors.Wrapf(errBadRequest, "invalid request target %q", target)
	}

	if !strings.HasPrefix(p, "/") {
		u, err := url.Parse(p)
		switch {
		case err != nil:
			return "", errors.Wrapf(errBadRequest, "invalid request target %q", target)
		case u.Scheme != "" && u.Host != "":
			p = u.EscapedPath()
			if p == "" {
				p = "/"
			}
		case u.Scheme != "" || u.Host != "":
			return "", errors.Wrapf(errBadRequest, "invalid request target %q", target)
		}
	}

	decoded, err := url.PathUnescape(p)
	if err != nil {
		return "", errors.Wrapf(errBadRequest, "invalid escape in %q", target)
	}
	if strings.IndexByte(decoded, 0) != -1 {
		return "", errors.Wrapf(errBadRequest, "NUL in request path %q", target)
	}

	return strings.TrimPrefix(decoded, "/"), nil
}
