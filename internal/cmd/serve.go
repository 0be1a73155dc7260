package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meri-imperiumi/signalk-logbook/internal/feed"
	"github.com/meri-imperiumi/signalk-logbook/internal/history"
	"github.com/meri-imperiumi/signalk-logbook/internal/hub"
	"github.com/meri-imperiumi/signalk-logbook/internal/logbook"
	"github.com/meri-imperiumi/signalk-logbook/internal/scheduler"
	"github.com/meri-imperiumi/signalk-logbook/internal/server"
	"github.com/meri-imperiumi/signalk-logbook/internal/state"
	"github.com/meri-imperiumi/signalk-logbook/internal/trigger"
	"github.com/meri-imperiumi/signalk-logbook/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the logbook service",
	Long: `Connect to a Signal K server, watch for log-worthy state transitions,
and serve the logbook API.

Examples:
  signalk-logbook serve
  signalk-logbook serve --signalk ws://localhost:3000/signalk/v1/stream?subscribe=none
  signalk-logbook serve --port 8089 --dir /var/lib/logbook`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("signalk", "ws://localhost:3000/signalk/v1/stream?subscribe=none", "Signal K stream URL")
	serveCmd.Flags().String("port", "8089", "HTTP port for the logbook API")
	serveCmd.Flags().Duration("interval", scheduler.DefaultInterval, "state sampling interval")
	_ = viper.BindPFlag("signalk", serveCmd.Flags().Lookup("signalk"))
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("interval", serveCmd.Flags().Lookup("interval"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "logbook shutting down...")
		cancel()
	}()

	store, err := logbook.New(dataDir())
	if err != nil {
		return fmt.Errorf("failed to open logbook: %w", err)
	}
	log.Printf("logbook directory: %s", store.Dir())

	live := state.New()
	buffer := history.New(history.DefaultCapacity)
	changes := hub.New()
	defer changes.Close()

	engine := trigger.New(store, live, func(status string) {
		log.Printf("status: %s", status)
	})
	engine.OnEntry(changes.PublishEntry)

	interval := viper.GetDuration("interval")
	if interval != scheduler.DefaultInterval {
		log.Printf("warning: sampling interval %s changes the meaning of backdating indexes", interval)
	}
	sched := scheduler.New(live, buffer, engine, interval)
	go sched.Run(ctx)

	client := feed.New(viper.GetString("signalk"), nil)
	go client.Start(ctx)
	go func() {
		// Updates apply strictly in arrival order; each evaluation sees
		// the previous update's derived state.
		for update := range client.Updates() {
			engine.HandleUpdate(update.Path, update.Value)
		}
	}()

	w, err := watcher.New(store.Dir())
	if err != nil {
		return fmt.Errorf("failed to watch logbook directory: %w", err)
	}
	go w.Start(ctx)
	go func() {
		for ev := range w.Events {
			changes.PublishDateChange(ev.Date)
		}
	}()

	srv := server.New(store, live, buffer, changes, viper.GetString("port"))
	log.Printf("logbook API listening on :%s", viper.GetString("port"))
	return srv.Start(ctx)
}
