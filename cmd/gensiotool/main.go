// Command gensiotool is a small driver-exercising CLI: it connects, listens,
// or spawns a PTY child using the same allocators a library caller would,
// with standard library flag for its own flags and internal/cli for
// version/help output.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gensio-go/gensio/internal/cli"
	"github.com/gensio-go/gensio/internal/gensioaddr"
	"github.com/gensio-go/gensio/internal/gensiobase"
	"github.com/gensio-go/gensio/internal/gensiolog"
	"github.com/gensio-go/gensio/internal/osservices"

	"github.com/gensio-go/gensio/drivers/pty"
	"github.com/gensio-go/gensio/drivers/tcp"
)

func main() {
	var (
		showVersion bool
		showHelp    bool
		jsonOutput  bool
		configFile  string
		mode        string
		addr        string
		argvStr     string
		optsStr     string
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&showHelp, "help", false, "show help information")
	flag.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	flag.StringVar(&configFile, "config", "gensiotool.json", "tunable option config file (hot-reloaded)")
	flag.StringVar(&mode, "mode", "", "one of: connect, listen, pty")
	flag.StringVar(&addr, "addr", "", "host:port for connect/listen; ignored for pty")
	flag.StringVar(&argvStr, "argv", "", "shell-quoted command line for mode=pty")
	flag.StringVar(&optsStr, "opts", "", "comma-separated driver options (key or key=value)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -mode=<connect|listen|pty> [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Exercises the tcp and pty drivers directly.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s -mode=listen -addr=127.0.0.1:8123          # echo accepter\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode=connect -addr=127.0.0.1:8123         # echo client\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -mode=pty -argv='/bin/sh -i'               # spawn a shell\n", os.Args[0])
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		cli.PrintVersion("gensiotool", jsonOutput)
		os.Exit(0)
	}

	if mode == "" {
		flag.Usage()
		os.Exit(1)
	}

	log := gensiolog.NewDefault("gensiotool")

	cfg, err := loadToolConfig(configFile)
	if err != nil {
		cfg = defaultToolConfig()
		log.Logf(gensiolog.Info, "gensiotool: no usable config at %s, using defaults: %v", configFile, err)
	}

	opts := buildOpts(cfg, optsStr, mode != "pty")

	if watcher, err := watchConfig(configFile, log, func(next *ToolConfig) {
		cfg = next
	}); err == nil {
		defer watcher.Close()
	} else {
		log.Logf(gensiolog.Debug, "gensiotool: config hot-reload disabled: %v", err)
	}

	svc, err := osservices.New()
	if err != nil {
		cli.ExitWithError("start os services: %v", err)
	}

	switch mode {
	case "connect":
		runConnect(svc, addr, opts, log)
	case "listen":
		runListen(svc, addr, opts, log)
	case "pty":
		runPty(svc, argvStr, opts, log)
	default:
		cli.ExitWithError("unknown -mode %q", mode)
	}
}

func buildOpts(cfg *ToolConfig, extra string, includeNodelay bool) []string {
	opts := []string{fmt.Sprintf("readbuf=%d", cfg.Readbuf)}

	if includeNodelay {
		if cfg.Nodelay {
			opts = append(opts, "nodelay")
		} else {
			opts = append(opts, "nodelay=false")
		}
	}

	if extra != "" {
		opts = append(opts, strings.Split(extra, ",")...)
	}

	return opts
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// runConnect implements the manual smoke test for scenario 1
// (connect, write, read back) by piping stdin to the connection and the
// connection's data to stdout.
func runConnect(svc osservices.Services, addr string, opts []string, log gensiolog.Logger) {
	if addr == "" {
		cli.ExitWithError("connect: -addr is required")
	}

	done := make(chan struct{})

	cb := func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
		switch ev {
		case gensiobase.EventOpenDone:
			if err != nil {
				log.Logf(gensiolog.Error, "connect: open failed: %v", err)
				close(done)

				return
			}

			log.Logf(gensiolog.Info, "connect: open to %s", e.RemoteAddr())
			go pumpStdinTo(e, log)
		case gensiobase.EventReadReady:
			pumpReadToStdout(e, log)
		case gensiobase.EventCloseDone:
			close(done)
		}
	}

	ep, err := tcp.StrAlloc(svc, addr, opts, cb, nil)
	if err != nil {
		cli.ExitWithError("connect: %v", err)
	}

	<-done
	ep.Close()
}

// runListen implements the manual smoke test for scenario 2: an
// accepting echo server.
func runListen(svc osservices.Services, addr string, opts []string, log gensiolog.Logger) {
	if addr == "" {
		cli.ExitWithError("listen: -addr is required")
	}

	addrs, err := gensioaddr.Resolve("gensiotool.listen", strings.Split(addr, ",")...)
	if err != nil {
		cli.ExitWithError("listen: %v", err)
	}

	accCb := func(acc *gensiobase.Accepter, ev gensiobase.AccEvent, ep *gensiobase.Endpoint) {
		if ev != gensiobase.AccEventNewConnection {
			return
		}

		log.Logf(gensiolog.Info, "listen: accepted %s", ep.RemoteAddr())
		go echo(ep, log)
	}

	acc, err := tcp.AccepterAlloc(svc, addrs, opts, accCb, log)
	if err != nil {
		cli.ExitWithError("listen: %v", err)
	}

	if err := acc.Startup(); err != nil {
		cli.ExitWithError("listen: startup: %v", err)
	}

	log.Logf(gensiolog.Info, "listen: accepting on %s", addr)
	waitForSignal()

	shutdownDone := make(chan struct{})
	_ = acc.Shutdown(func() { close(shutdownDone) })
	<-shutdownDone
}

func echo(ep *gensiobase.Endpoint, log gensiolog.Logger) {
	buf := make([]byte, 4096)

	for {
		n, err := ep.Read(buf, "")
		if err != nil || n == 0 {
			ep.Close()

			return
		}

		if _, err := ep.Write(buf[:n], ""); err != nil {
			log.Logf(gensiolog.Warning, "echo: write: %v", err)
			ep.Close()

			return
		}
	}
}

func pumpStdinTo(ep *gensiobase.Endpoint, log gensiolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := append(scanner.Bytes(), '\n')
		if _, err := ep.Write(line, ""); err != nil {
			log.Logf(gensiolog.Warning, "connect: write: %v", err)

			return
		}
	}

	ep.Close()
}

func pumpReadToStdout(ep *gensiobase.Endpoint, log gensiolog.Logger) {
	buf := make([]byte, 4096)

	n, err := ep.Read(buf, "")
	if err != nil {
		return
	}

	if _, err := os.Stdout.Write(buf[:n]); err != nil {
		log.Logf(gensiolog.Warning, "connect: stdout write: %v", err)
	}
}

// runPty implements the manual smoke test for scenario 4: spawn a
// child under a PTY and relay its output to stdout.
func runPty(svc osservices.Services, argvStr string, opts []string, log gensiolog.Logger) {
	if argvStr == "" {
		cli.ExitWithError("pty: -argv is required")
	}

	done := make(chan struct{})

	cb := func(e *gensiobase.Endpoint, ev gensiobase.Event, err error) {
		switch ev {
		case gensiobase.EventOpenDone:
			if err != nil {
				log.Logf(gensiolog.Error, "pty: open failed: %v", err)
				close(done)

				return
			}

			log.Logf(gensiolog.Info, "pty: spawned")
			go pumpStdinTo(e, log)
		case gensiobase.EventReadReady:
			pumpReadToStdout(e, log)
		case gensiobase.EventCloseDone:
			close(done)
		}
	}

	ep, err := pty.StrAlloc(svc, argvStr, opts, cb, nil)
	if err != nil {
		cli.ExitWithError("pty: %v", err)
	}

	<-done
	ep.Close()
}
