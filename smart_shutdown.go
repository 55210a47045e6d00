package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
)

// watchSignals closes ln when SIGTERM or SIGINT is received, which makes
// serve return. SIGHUP reopens the access log.
func watchSignals(ln net.Listener, accessLog *CSVLog) {
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGTERM, os.Interrupt)

	for {
		select {
		case <-hupChan:
			log.Println("Received SIGHUP; reopening access log")
			accessLog.Reopen()

		case sig := <-termChan:
			log.Printf("Received %v", sig)
			signal.Stop(termChan)
			ln.Close()
			return
		}
	}
}
