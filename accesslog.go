package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
)

// recording requests to the access log

// A CSVLog writes entries in CSV format. Entries are sent on a channel to a
// single goroutine that owns the output, so Log may be called from any
// goroutine.
type CSVLog struct {
	filename string
	entries  chan []string
	reopen   chan chan struct{}
	done     chan struct{}
}

// NewCSVLog opens filename for appending and starts writing log entries to
// it. If filename is empty or cannot be opened, entries go to standard
// output instead.
func NewCSVLog(filename string) *CSVLog {
	l := newCSVLog(filename)
	go l.run(l.open())
	return l
}

// newCSVLogWriter returns a CSVLog that writes to w.
func newCSVLogWriter(w io.Writer) *CSVLog {
	l := newCSVLog("")
	go l.run(w)
	return l
}

func newCSVLog(filename string) *CSVLog {
	return &CSVLog{
		filename: filename,
		entries:  make(chan []string, 10),
		reopen:   make(chan chan struct{}),
		done:     make(chan struct{}),
	}
}

// open opens the log file, falling back to standard output.
func (l *CSVLog) open() io.Writer {
	if l.filename == "" {
		return os.Stdout
	}
	f, err := os.OpenFile(l.filename, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		log.Printf("Could not open log file (%s): %s\n Sending access log messages to standard output instead.", l.filename, err)
		return os.Stdout
	}
	return f
}

func (l *CSVLog) run(w io.Writer) {
	defer close(l.done)
	csvWriter := csv.NewWriter(w)

	closeFile := func() {
		if f, ok := w.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	}

	for {
		select {
		case entry, ok := <-l.entries:
			if !ok {
				closeFile()
				return
			}
			csvWriter.Write(entry)
			csvWriter.Flush()
			if err := csvWriter.Error(); err != nil {
				log.Println("Error writing access log:", err)
			}

		case ch := <-l.reopen:
			if l.filename != "" {
				closeFile()
				w = l.open()
				csvWriter = csv.NewWriter(w)
			}
			close(ch)
		}
	}
}

// Log queues an entry to be written.
func (l *CSVLog) Log(entry []string) {
	l.entries <- entry
}

// Reopen closes and reopens the log file (for compatibility with logrotate).
// It returns when the new file is open.
func (l *CSVLog) Reopen() {
	ch := make(chan struct{})
	l.reopen <- ch
	<-ch
}

// Close writes any queued entries and closes the log file. The log must not
// be used afterward.
func (l *CSVLog) Close() {
	close(l.entries)
	<-l.done
}

// toStrings converts its arguments into a slice of strings.
func toStrings(a ...interface{}) []string {
	result := make([]string, len(a))
	for i, x := range a {
		result[i] = fmt.Sprint(x)
	}
	return result
}
