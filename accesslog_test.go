package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCSVLog(t *testing.T) {
	buf := new(bytes.Buffer)
	l := newCSVLogWriter(buf)
	l.Log([]string{"a", "b,c"})
	l.Log([]string{"quote\"d", ""})
	l.Close()

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"a", "b,c"}, {"quote\"d", ""}}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("got %q, want %q", records, want)
	}
}

func TestCSVLogFileReopen(t *testing.T) {
	dir := testRoot(t)
	name := filepath.Join(dir, "access.csv")
	l := NewCSVLog(name)
	l.Log([]string{"first"})

	// Rotate the file away, as logrotate would, and reopen.
	rotated := filepath.Join(dir, "access.csv.1")
	deadline := time.Now().Add(5 * time.Second)
	for {
		data, _ := os.ReadFile(name)
		if strings.Contains(string(data), "first") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first entry was never written")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := os.Rename(name, rotated); err != nil {
		t.Fatal(err)
	}
	l.Reopen()
	l.Log([]string{"second"})
	l.Close()

	old, err := os.ReadFile(rotated)
	if err != nil {
		t.Fatal(err)
	}
	current, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(old) != "first\n" || string(current) != "second\n" {
		t.Errorf("rotated file has %q, new file has %q", old, current)
	}
}

func TestTransactionLogFields(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	tx := &transaction{
		start:  start,
		peer:   "192.0.2.1:5000",
		req:    &Request{Method: "GET", Target: "/docs/a.html", Path: "docs/a.html"},
		target: resolvedTarget{Path: "/srv/www/docs/a.html", Kind: File},
		resp:   &Response{Status: 200, Body: []byte("hello")},
	}
	fields := tx.logFields()
	if len(fields) != 8 {
		t.Fatalf("got %d fields: %q", len(fields), fields)
	}
	want := []string{"2024-05-01 12:30:00", "192.0.2.1:5000", "GET", "/docs/a.html", "200", "5"}
	if !reflect.DeepEqual(fields[:6], want) {
		t.Errorf("fields = %q, want prefix %q", fields, want)
	}
	if fields[7] != "file /srv/www/docs/a.html" {
		t.Errorf("target field = %q", fields[7])
	}

	bad := &transaction{start: start, peer: "pipe", resp: errorResponse(400)}
	fields = bad.logFields()
	if fields[2] != "" || fields[3] != "" || fields[4] != "400" || fields[7] != "" {
		t.Errorf("bad request fields = %q", fields)
	}
}
