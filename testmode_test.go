package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunRequestTest(t *testing.T) {
	root := testRoot(t)
	writeFile(t, root, "hello.txt", "Hello, world\n", 0644)
	writeFile(t, root, "scripts/echo", "", 0755)
	runner := &fakeRunner{results: map[string]ScriptResult{
		"echo": {Stdout: []byte("from script")},
	}}
	conf := testConfig(root)

	for _, c := range []struct {
		line string
		want []string
	}{
		{"GET /hello.txt", []string{"Path: hello.txt", "(file)", "200 OK", "Content-Type: text/plain; charset=utf-8", "Hello, world"}},
		{"GET /missing", []string{"(missing)", "404 Not Found", "The response has no body."}},
		{"POST /scripts/echo\nX-Test: 1", []string{"Header: X-Test: 1", "200 OK", "from script"}},
		{"POST /hello.txt", []string{"was not resolved", "404 Not Found"}},
		{"BREW /pot", []string{"405 Method Not Allowed", "Allow: GET, POST"}},
		{"nonsense", []string{"Could not parse the request"}},
	} {
		buf := new(bytes.Buffer)
		runRequestTest(conf, runner, c.line, buf)
		for _, w := range c.want {
			if !strings.Contains(buf.String(), w) {
				t.Errorf("%q: output does not contain %q:\n%s", c.line, w, buf)
			}
		}
	}
}
