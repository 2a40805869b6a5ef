// simkerneld is a standalone host for the kernel: it ticks the kernel on
// a wall-clock cadence, auto-spawns whatever programs a config file
// names, and prints process-table/log snapshots when its run ends or it
// is signalled to stop. It stands in
// for the explicitly out-of-scope process-table/log-panel/shell-console
// UI without becoming that UI — it only reads the snapshot API.
//
// Usage:
//
//	go run ./cmd/simkerneld                       # defaults, 200 ticks
//	go run ./cmd/simkerneld -config host.yaml
//	go build -o simkerneld ./cmd/simkerneld && ./simkerneld -ticks 500
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/go-opsim/opsim/config"
	"github.com/go-opsim/opsim/kernel"
	"github.com/go-opsim/opsim/programs"
)

// stdLogger implements kernel.Logger using the standard library log
// package.
type stdLogger struct{}

func (l *stdLogger) Debug(msg string, keysAndValues ...any) {
	log.Printf("[DEBUG] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Info(msg string, keysAndValues ...any) {
	log.Printf("[INFO] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Warn(msg string, keysAndValues ...any) {
	log.Printf("[WARN] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Error(msg string, keysAndValues ...any) {
	log.Printf("[ERROR] %s %v", msg, keysAndValues)
}

func main() {
	configPath := flag.String("config", "", "optional YAML host config")
	tickMS := flag.Int("tick-ms", 0, "override kernel logical tick step")
	ticks := flag.Int("ticks", 0, "override total tick count")
	cadence := flag.Duration("cadence", 20*time.Millisecond, "wall-clock delay between ticks")
	metricsAddr := flag.String("metrics-addr", "", "optional address to serve Prometheus /metrics on, e.g. :9090")
	flag.Parse()

	logger := &stdLogger{}
	hostCfg := config.DefaultHostConfig()
	if *configPath != "" {
		loaded, err := loadHostConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		hostCfg = loaded
	}
	if *tickMS > 0 {
		hostCfg.Kernel.TickMS = *tickMS
	}
	if *ticks > 0 {
		hostCfg.TickCount = *ticks
	}

	logger.Info("simkerneld_starting", "tick_ms", hostCfg.Kernel.TickMS, "ticks", hostCfg.TickCount)

	k, err := kernel.NewKernel(logger, &hostCfg.Kernel, nil)
	if err != nil {
		log.Fatalf("failed to construct kernel: %v", err)
	}
	programs.RegisterAll(k)
	k.SetGlobalTracer()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(k.MetricsRegistry(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics_server_failed", "error", err)
			}
		}()
		logger.Info("metrics_server_started", "addr", *metricsAddr)
	}

	for path, content := range hostCfg.SeedFiles {
		k.SeedFile(path, content)
	}

	for _, entry := range hostCfg.AutoSpawn {
		factory, ok := lookupFactory(entry.Program)
		if !ok {
			logger.Warn("auto_spawn_skipped_unknown_program", "program", entry.Program)
			continue
		}
		pid := k.Spawn(factory, config.SpawnOptions{Name: entry.Name, Priority: entry.Priority, Args: entry.Args})
		logger.Info("auto_spawned", "program", entry.Program, "pid", pid)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*cadence)
	defer ticker.Stop()

	ran := 0
	for ran < hostCfg.TickCount {
		select {
		case sig := <-sigCh:
			logger.Info("shutdown_signal_received", "signal", sig.String())
			printSnapshot(k)
			return
		case <-ticker.C:
			k.Tick()
			k.ReapTerminated()
			ran++
		}
	}

	printSnapshot(k)
	logger.Info("simkerneld_stopped", "ticks_ran", ran)
}

func loadHostConfig(path string) (*config.HostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := config.DefaultHostConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func lookupFactory(name string) (kernel.Factory, bool) {
	table := map[string]kernel.Factory{
		"echo_server": programs.EchoServer,
		"echo_client": programs.EchoClient,
		"shell":       programs.Shell,
		"ps":          programs.PS,
		"ls":          programs.LS,
		"cat":         programs.Cat,
		"rm":          programs.Rm,
		"netstat":     programs.Netstat,
	}
	f, ok := table[name]
	return f, ok
}

func printSnapshot(k *kernel.Kernel) {
	fmt.Println("=== process_table ===")
	for _, p := range k.ProcessTableSnapshot() {
		fmt.Printf("%6d  %-16s  prio=%d  %-10s  exit=%d\n", p.PID, p.Name, p.Priority, p.State, p.ExitCode)
	}
	fmt.Println("=== ports_table ===")
	for _, p := range k.PortsTable() {
		fmt.Printf("%10s  owner=%-6d  queue=%d\n", p.Port, p.OwnerPID, p.QueueLength)
	}
	fmt.Println("=== recent logs ===")
	for _, entry := range k.Logs(20) {
		fmt.Printf("[%8d] pid=%-4d %s\n", entry.Time, entry.PID, entry.Message)
	}
	fmt.Println("=== recent syscall spans ===")
	for _, span := range k.RecentSpans(20) {
		fmt.Printf("%-24s trace=%s span=%s\n", span.Name, span.TraceID, span.SpanID)
	}
}
