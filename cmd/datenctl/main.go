// Command datenctl runs a single daten send-side session against a UDP
// socket, for manual testing and as a usage example for package session.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lowquark/daten/sender"
	"github.com/lowquark/daten/session/config"

	dsession "github.com/lowquark/daten/session"
)

func main() {
	var configPath string
	var remoteAddr string
	var verbose bool

	flag.StringVar(&configPath, "config", "", "Path to a TOML config file (defaults built in if omitted)")
	flag.StringVar(&remoteAddr, "remote", "", "Remote UDP address to send to (required)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	logger := log.Default()
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if remoteAddr == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	remote, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		logger.Fatalf("resolving remote address: %v", err)
	}

	conn, err := net.ListenPacket("udp", cfg.Listen.Address)
	if err != nil {
		logger.Fatalf("binding %v: %v", cfg.Listen.Address, err)
	}
	defer conn.Close()

	sess := dsession.New(cfg, conn, remote, prometheus.DefaultRegisterer, logger)
	sess.Run()

	logger.Infof("session running, sending to %v", remote)

	// Seed a handful of packets in each send mode so the flush loop has
	// something to emit and log; a real caller would enqueue from its
	// own application traffic instead.
	const sample = 5
	for i := 0; i < sample; i++ {
		sess.Enqueue([]byte(fmt.Sprintf("unreliable-%d", i)), 0, 0, 0, sender.Unreliable)
		sess.Enqueue([]byte(fmt.Sprintf("resend-%d", i)), 0, 0, 0, sender.Resend)
		sess.Enqueue([]byte(fmt.Sprintf("time-sensitive-%d", i)), 0, 0, 0, sender.TimeSensitive)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	logger.Infof("shutting down")
	sess.Close()
}
