package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/wallboard/internal/browser"
	"github.com/1broseidon/wallboard/internal/daemon"
	"github.com/1broseidon/wallboard/internal/hotkeys"
	"github.com/1broseidon/wallboard/internal/httpapi"
	"github.com/1broseidon/wallboard/internal/ipc"
	"github.com/1broseidon/wallboard/internal/platform"
	"github.com/1broseidon/wallboard/internal/runtimepath"
	"github.com/1broseidon/wallboard/internal/settings"
	"github.com/1broseidon/wallboard/internal/tiling"
)

const workerQueue = 32

func newDaemonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the wallboard daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(opts)
		},
	}
}

func runDaemon(opts *rootOptions) error {
	st, err := opts.loadSettings()
	if err != nil {
		return err
	}
	logger, err := newLogger(st.Log.Level)
	if err != nil {
		return err
	}

	store, err := opts.store()
	if err != nil {
		return err
	}
	cfg, err := store.LoadOrInit()
	if err != nil {
		return err
	}
	logger.Info("config loaded", "path", store.Path(), "monitor", cfg.Monitor.Mode)

	launcher, err := browser.NewLauncher(st.Browser, logger.With("component", "browser"))
	if err != nil {
		return err
	}
	host, err := platform.OpenHost(launcher, logger.With("component", "host"))
	if err != nil {
		return err
	}
	defer host.Disconnect()

	state := tiling.NewState(cfg)
	tiler := tiling.NewTiler(host, state, filepath.Clean(st.StorageRoot), platform.DefaultConcealMode, logger.With("component", "tiler"))

	worker := daemon.NewWorker(workerQueue, logger.With("component", "worker"))
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go worker.Run(workerCtx)

	svc := settings.NewService(store, host, tiler, worker, logger.With("component", "settings"))

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return err
	}
	ipcServer := ipc.NewServer(socketPath, svc, logger.With("component", "ipc"))
	if err := ipcServer.Start(); err != nil {
		return err
	}
	defer ipcServer.Stop()

	var httpServer *httpapi.Server
	if st.HTTP.Addr != "" {
		httpServer = httpapi.NewServer(st.HTTP.Addr, svc, logger.With("component", "http"))
		if err := httpServer.Start(); err != nil {
			return err
		}
	}

	if handler, err := hotkeys.NewHandler(host, logger.With("component", "hotkeys")); err != nil {
		logger.Warn("hotkeys disabled", "error", err)
	} else if err := hotkeys.BindDefaults(handler, st.Hotkeys, svc); err != nil {
		logger.Warn("failed to register hotkeys", "error", err)
	}

	// Startup failures are logged by the worker; the daemon keeps serving so
	// the config can be fixed over IPC or HTTP.
	worker.Submit("startup apply", tiler.Reconcile)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading config")
				newCfg, err := store.Load()
				if err != nil {
					logger.Error("config reload failed", "error", err)
					continue
				}
				state.SetConfig(newCfg)
				worker.Submit("reload apply", tiler.Reconcile)
				continue
			}

			logger.Info("shutting down wallboard daemon", "signal", sig.String())
			stopWorker()
			if httpServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := httpServer.Shutdown(ctx); err != nil {
					logger.Warn("http shutdown", "error", err)
				}
				cancel()
			}
			ipcServer.Stop()
			host.Quit()
			return
		}
	}()

	logger.Info("wallboard daemon started", "socket", socketPath, "storage_root", st.StorageRoot)
	host.EventLoop()
	return nil
}
