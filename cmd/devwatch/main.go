// Command devwatch watches for camera attach and detach events and serves
// the hot-plug state on its debug pages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/devsync/internal/config"
	"github.com/banshee-data/devsync/internal/hotplug"
	"github.com/banshee-data/devsync/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to sync config JSON (defaults apply when empty)")
	listen      = flag.String("listen", ":8090", "Debug HTTP listen address")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func loadConfig(path string) (*config.SyncConfig, error) {
	if path == "" {
		return config.DefaultSyncConfig(), nil
	}
	return config.LoadSyncConfig(path)
}

func newRegistry(hub *hotplug.Hub) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "devsync_hotplug_devices",
			Help: "Devices currently attached.",
		}, func() float64 { return float64(len(hub.Devices())) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "devsync_hotplug_subscribers",
			Help: "Active device-change subscriptions.",
		}, func() float64 { return float64(hub.SubscriberCount()) }),
	)
	return reg
}

func logChanges(removed, added []hotplug.DeviceInfo) {
	for _, d := range removed {
		log.Printf("device removed: %s (%s)", d.Key, d.Name)
	}
	for _, d := range added {
		log.Printf("device added: %s (%s at %s)", d.Key, d.Name, d.Path)
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("devwatch", version.String())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	hub := hotplug.NewHub()
	defer hub.Close()

	id, err := hub.Subscribe(logChanges)
	if err != nil {
		log.Fatalf("failed to subscribe to device changes: %v", err)
	}
	defer hub.Unsubscribe(id)

	watcher := hotplug.NewWatcher(hub, hotplug.SerialLister, hotplug.WatcherOptions{
		Interval: cfg.GetHotplugPollInterval(),
	})

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("hot-plug watcher failed: %v", err)
		}
		log.Print("watcher routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mux := http.NewServeMux()

		// admin debugging routes, accessible only over localhost/Tailscale
		hub.AttachAdminRoutes(mux)
		mux.Handle("/metrics", promhttp.HandlerFor(newRegistry(hub), promhttp.HandlerOpts{}))

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("failed to start server: %v", err)
				os.Exit(1)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	log.Printf("devwatch %s watching for devices every %s (topology %s)",
		version.String(), cfg.GetHotplugPollInterval(), cfg.GetTopology())
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
