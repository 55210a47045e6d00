package main

import (
	"bytes"
	"log"
	"net/http"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// running executables under scripts/ for POST requests

// scriptsPrefix is the part of the root folder that POST requests may run.
const scriptsPrefix = "scripts/"

// ScriptResult is the outcome of a script that was started successfully.
type ScriptResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// A ScriptRunner runs the executable at path with env as its entire
// environment, no arguments, and no input, and waits for it to exit.
// It returns an error only if the process could not be started.
type ScriptRunner interface {
	Run(path string, env []string) (ScriptResult, error)
}

// execRunner runs scripts as child processes.
type execRunner struct{}

func (execRunner) Run(path string, env []string) (ScriptResult, error) {
	cmd := exec.Command(path)
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ScriptResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, errors.Wrapf(err, "starting %s", path)
	}
	return result, nil
}

// envBuilder accumulates KEY=value pairs. Setting a key again replaces its
// value but keeps its original position.
type envBuilder struct {
	index   map[string]int
	entries []string
}

func (b *envBuilder) set(key, value string) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	kv := key + "=" + value
	if i, ok := b.index[key]; ok {
		b.entries[i] = kv
		return
	}
	b.index[key] = len(b.entries)
	b.entries = append(b.entries, kv)
}

// scriptEnv builds the environment a script runs with: the inherited
// variables named in inherit (if set in the server's environment), then
// Method and Path, then one variable per request header, in the order they
// were received. Later entries overwrite earlier ones with the same name.
func scriptEnv(req *Request, inherit []string) []string {
	var b envBuilder
	for _, name := range inherit {
		if v, ok := os.LookupEnv(name); ok {
			b.set(name, v)
		}
	}
	b.set("Method", req.Method)
	b.set("Path", req.Path)
	for _, f := range req.Header {
		b.set(f.Name, f.Value)
	}
	return b.entries
}

// runScript answers a POST request by running the script at target.
func (s *server) runScript(req *Request, target resolvedTarget) *Response {
	result, err := s.runner.Run(target.Path, scriptEnv(req, s.conf.InheritEnv))
	if err != nil {
		log.Printf("Failed to execute script %s: %v", target.Path, err)
		return errorResponse(http.StatusInternalServerError)
	}

	var resp *Response
	if result.ExitCode == 0 {
		resp = newResponse(http.StatusOK)
		resp.Body = result.Stdout
	} else {
		log.Printf("Script %s exited with status %d", target.Path, result.ExitCode)
		resp = newResponse(http.StatusInternalServerError)
		resp.Body = result.Stderr
	}
	resp.Header.Set("Content-Type", defaultContentType)
	return resp
}
