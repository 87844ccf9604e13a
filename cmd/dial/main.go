package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/yly97/dtlsc/pkg/handshake"
	"github.com/yly97/dtlsc/pkg/signals"
	"github.com/yly97/dtlsc/pkg/transport"
)

const defaultTimeout = 30 * time.Second

var (
	verbose    int
	address    string
	configPath string
)

func main() {
	flag.IntVar(&verbose, "verbose", 2, "Set log level(0:trace, 1:debug, 2:info)")
	flag.StringVar(&address, "addr", "127.0.0.1:4444", "Server address")
	flag.StringVar(&configPath, "config", "", "Path to toml config file")
	flag.Parse()

	timeout := defaultTimeout
	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("load config error: %v", err)
		}
		if cfg.Client.Address != "" {
			address = cfg.Client.Address
		}
		if cfg.Client.Timeout.Duration > 0 {
			timeout = cfg.Client.Timeout.Duration
		}
		if cfg.Log.Level != "" {
			level, err := log.ParseLevel(cfg.Log.Level)
			if err != nil {
				log.Fatalf("parse log level error: %v", err)
			}
			log.SetLevel(level)
		}
	}

	switch verbose {
	case 0:
		log.SetLevel(log.TraceLevel)
	case 1:
		log.SetLevel(log.DebugLevel)
	}

	stopCh := signals.RegisterSignalHandlers()

	tconn, err := transport.Dial("udp", address)
	if err != nil {
		log.Fatalf("dial error: %v", err)
	}

	conn := handshake.NewConn(tconn, &handshake.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	go func() {
		if err := tconn.ReadLoop(ctx, conn.HandleDatagram); err != nil {
			log.Debugf("read loop stopped: %v", err)
		}
		conn.Close()
	}()
	go func() {
		<-stopCh
		conn.Close()
	}()

	log.Infof("connecting to %s", tconn.RemoteAddr())
	if err := conn.Connect(ctx); err != nil {
		log.Fatalf("handshake failed: %v", err)
	}
	log.Infof("handshake finished, state %s", conn.State())
}
