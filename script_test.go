package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestScriptEnv(t *testing.T) {
	t.Setenv("TINYHTTPD_INHERITED", "yes")
	t.Setenv("TINYHTTPD_PRIVATE", "secret")

	req := &Request{
		Method: "POST",
		Path:   "scripts/echo",
		Header: []headerField{
			{"Host", "localhost"},
			{"X-A", "1"},
			{"Accept", "*/*"},
			{"X-A", "2"},
		},
	}

	got := scriptEnv(req, []string{"TINYHTTPD_INHERITED", "TINYHTTPD_UNSET"})
	want := []string{
		"TINYHTTPD_INHERITED=yes",
		"Method=POST",
		"Path=scripts/echo",
		"Host=localhost",
		"X-A=2",
		"Accept=*/*",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scriptEnv = %q, want %q", got, want)
	}
}

func TestScriptEnvHeaderOverwritesFixedEntries(t *testing.T) {
	req := &Request{
		Method: "POST",
		Path:   "scripts/x",
		Header: []headerField{{"Path", "spoofed"}},
	}
	got := scriptEnv(req, nil)
	want := []string{"Method=POST", "Path=spoofed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scriptEnv = %q, want %q", got, want)
	}
}

func TestExecRunner(t *testing.T) {
	root := testRoot(t)
	scripts := map[string]string{
		"echo":   "#!/bin/sh\nprintf hello\n",
		"fail":   "#!/bin/sh\nprintf partial\nprintf boom >&2\nexit 3\n",
		"env":    "#!/bin/sh\nprintf '%s %s %s' \"$Method\" \"$Path\" \"$HOME\"\n",
		"binary": "#!/bin/sh\nprintf '\\000\\377\\n'\n",
	}
	for name, body := range scripts {
		writeFile(t, root, name, body, 0755)
	}

	var r execRunner
	for _, c := range []struct {
		name   string
		env    []string
		exit   int
		stdout string
		stderr string
	}{
		{"echo", nil, 0, "hello", ""},
		{"fail", nil, 3, "partial", "boom"},
		{"env", []string{"Method=POST", "Path=scripts/env"}, 0, "POST scripts/env ", ""},
		{"binary", nil, 0, "\x00\xff\n", ""},
	} {
		result, err := r.Run(filepath.Join(root, c.name), c.env)
		if err != nil {
			t.Errorf("%s: %v", c.name, err)
			continue
		}
		if result.ExitCode != c.exit || string(result.Stdout) != c.stdout || string(result.Stderr) != c.stderr {
			t.Errorf("%s: got exit %d, stdout %q, stderr %q; want %d, %q, %q", c.name, result.ExitCode, result.Stdout, result.Stderr, c.exit, c.stdout, c.stderr)
		}
	}
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	root := testRoot(t)
	writeFile(t, root, "not-executable", "#!/bin/sh\necho hi\n", 0644)
	if err := os.Mkdir(filepath.Join(root, "dir"), 0755); err != nil {
		t.Fatal(err)
	}

	var r execRunner
	for _, name := range []string{"not-executable", "missing", "dir"} {
		if _, err := r.Run(filepath.Join(root, name), nil); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}

func TestRunScriptResponses(t *testing.T) {
	runner := &fakeRunner{results: map[string]ScriptResult{
		"ok":     {ExitCode: 0, Stdout: []byte("out"), Stderr: []byte("log noise")},
		"failed": {ExitCode: 2, Stdout: []byte("out"), Stderr: []byte("err")},
		"killed": {ExitCode: -1, Stderr: []byte("partial")},
	}}
	s := newServer(testConfig(testRoot(t)), runner, nil)
	req := &Request{Method: "POST", Path: "scripts/x"}

	for _, c := range []struct {
		name   string
		status int
		body   string
	}{
		{"ok", 200, "out"},
		{"failed", 500, "err"},
		{"killed", 500, "partial"},
	} {
		resp := s.runScript(req, resolvedTarget{Path: "/srv/scripts/" + c.name, Kind: File})
		if resp.Status != c.status || string(resp.Body) != c.body {
			t.Errorf("%s: got %d %q, want %d %q", c.name, resp.Status, resp.Body, c.status, c.body)
		}
		if ct := resp.Header.Get("Content-Type"); ct != defaultContentType {
			t.Errorf("%s: Content-Type = %q", c.name, ct)
		}
	}
}
