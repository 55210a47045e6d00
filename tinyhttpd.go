// Tinyhttpd is a small HTTP server. It serves the files under a root folder
// for GET requests, and runs the executables under its scripts/ directory
// for POST requests.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

// shutdownTimeout is how long active connections are given to finish after
// the listener is closed.
const shutdownTimeout = 20 * time.Second

func main() {
	conf, err := loadConfiguration(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		if err != errUsage {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(2)
	}

	if conf.TestRequest != "" {
		runRequestTest(conf, execRunner{}, conf.TestRequest, os.Stdout)
		return
	}

	if conf.PIDFile != "" {
		pid := os.Getpid()
		f, err := os.Create(conf.PIDFile)
		if err == nil {
			fmt.Fprintln(f, pid)
			f.Close()
			defer os.Remove(conf.PIDFile)
		} else {
			log.Println("could not create pidfile:", err)
		}
	}

	log.Println("Root folder:", conf.Root)

	ln, err := net.Listen("tcp", conf.Addr())
	if err != nil {
		log.Fatalf("error listening for connections on %s: %s", conf.Addr(), err)
	}
	log.Println("Server listening on", ln.Addr())

	accessLog := NewCSVLog(conf.AccessLog)

	s := newServer(conf, execRunner{}, accessLog)
	go watchSignals(ln, accessLog)

	if err := s.serve(ln); err != nil {
		log.Println("Error accepting connections:", err)
	}

	if !s.waitForConnections(shutdownTimeout) {
		log.Println("Giving up on active connections after", shutdownTimeout)
		return
	}
	accessLog.Close()
}
