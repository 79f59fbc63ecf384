package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/danmuck/vostok/internal/client"
	"github.com/danmuck/vostok/internal/config"
	"github.com/danmuck/vostok/internal/connection"
	"github.com/danmuck/vostok/internal/logging"
	"github.com/danmuck/vostok/internal/status"
	"github.com/rs/zerolog/log"
)

const defaultConfigPath = "cmd/vostokctl/config.toml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vostokctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", defaultConfigPath, "runtime config path")
	connectTo := flag.String("connect", "", "address or target to connect to on start")
	prompt := flag.String("prompt", "", "override the server prompt delimiter")
	statusAddr := flag.String("status", "", "override status_addr")
	check := flag.Bool("check", false, "validate config and targets, then exit")
	flag.Parse()

	cfg, err := resolveConfig(*configPath, flagWasSet("config"))
	if err != nil {
		return err
	}
	if *prompt != "" {
		cfg.Session.Prompt = *prompt
	}
	if *statusAddr != "" {
		cfg.StatusAddr = *statusAddr
	}

	logging.ConfigureRuntime(logging.FileConfig{Path: cfg.LogFile})

	targets, err := config.LoadTargetsIfExists(cfg.TargetsFile)
	if err != nil {
		return err
	}
	if *check {
		fmt.Printf("config ok: prompt=%q targets=%d\n", cfg.Session.Prompt, len(targets.Targets))
		return nil
	}

	mgr, err := connection.NewManager(cfg.Session)
	if err != nil {
		return err
	}
	dispatcher := client.New(mgr, client.WithTargets(targets))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "vostok> ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer(targets.Names()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	var wg sync.WaitGroup
	runErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr <- dispatcher.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		printMessages(dispatcher, rl.Stdout())
	}()

	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, mgr, cfg.StatusCorsOrigins, status.WithToken(cfg.StatusToken))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Str("addr", cfg.StatusAddr).Msg("vostokctl status server failed")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	if target := strings.TrimSpace(*connectTo); target != "" {
		dispatcher.Submit("connect " + target)
	}
	readLines(rl, dispatcher)

	dispatcher.Close()
	err = <-runErr
	stop()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func resolveConfig(path string, explicit bool) (runtimeConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			return defaultRuntimeConfig(), nil
		}
		return runtimeConfig{}, fmt.Errorf("load vostokctl config: %w", err)
	}
	return loadRuntimeConfig(path)
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// readLines feeds typed lines to the dispatcher until EOF, exit or quit.
func readLines(rl *readline.Instance, d *client.Dispatcher) {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return
			}
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Msg("vostokctl readline stopped")
			}
			return
		}
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return
		}
		if !d.Submit(line) {
			return
		}
	}
}

func printMessages(d *client.Dispatcher, out io.Writer) {
	for {
		m, err := d.Messages().Pop(context.Background())
		if err != nil {
			return
		}
		if text := m.Render(); text != "" {
			fmt.Fprint(out, text)
		}
	}
}

func completer(targets []string) readline.AutoCompleter {
	connectItems := make([]readline.PrefixCompleterInterface, 0, len(targets))
	for _, name := range targets {
		connectItems = append(connectItems, readline.PcItem(name))
	}
	onOff := func(name string, extra ...readline.PrefixCompleterInterface) readline.PrefixCompleterInterface {
		items := append([]readline.PrefixCompleterInterface{readline.PcItem("on"), readline.PcItem("off")}, extra...)
		return readline.PcItem(name, items...)
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("connect", connectItems...),
		readline.PcItem("disconnect"),
		readline.PcItem("r"),
		readline.PcItem("echo"),
		readline.PcItem("generator", readline.PcItem("get"), readline.PcItem("set")),
		onOff("radar", readline.PcItem("scan"), readline.PcItem("sector"), readline.PcItem("identify")),
		readline.PcItem("crew", readline.PcItem("list")),
		readline.PcItem("ship",
			readline.PcItem("position"), readline.PcItem("velocity"),
			readline.PcItem("heading"), readline.PcItem("power")),
		onOff("radio", readline.PcItem("get"), readline.PcItem("set")),
		readline.PcItem("rudder", readline.PcItem("yaw"), readline.PcItem("pitch"), readline.PcItem("roll")),
		readline.PcItem("thruster", readline.PcItem("x"), readline.PcItem("y")),
		readline.PcItem("log", readline.PcItem("write"), readline.PcItem("read"), readline.PcItem("clear")),
		readline.PcItem("time"),
		readline.PcItem("exit"),
	)
}
