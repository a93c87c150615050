package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/watcher"
)

type DevServer struct {
	builder *Builder
	server  *Server
	watcher *watcher.Watcher
	hub     *ReloadHub
	ui      *UI
}

type DevServerConfig struct {
	Config     *config.Config
	Host       string
	Port       int
	Debounce   time.Duration
	NoUI       bool
	WatchPaths []string
}

type BuildRequest struct {
	Reason string
	Paths  []string
}

type BuildStartedMsg struct {
	Reason string
	Number int
}

func NewDevServer(config DevServerConfig) (*DevServer, error) {
	if config.Config == nil {
		return nil, errors.New("dev server: no config")
	}

	builder := NewBuilder(config.Config)
	hub := NewReloadHub()
	ui := NewUI(!config.NoUI)

	server := NewServer(ServerConfig{
		Builder: builder,
		Hub:     hub,
		Host:    config.Host,
		Port:    config.Port,
		Events:  ui,
	})

	w, err := watcher.New(watcher.Config{
		Paths:    config.WatchPaths,
		Debounce: config.Debounce,
		Skip:     []string{config.Config.DistDir(), config.Config.OutputDir()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &DevServer{
		builder: builder,
		server:  server,
		watcher: w,
		hub:     hub,
		ui:      ui,
	}, nil
}

func (ds *DevServer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	baseURL, err := ds.server.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	if err := ds.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	buildRequests := make(chan BuildRequest, 10)

	if ds.ui.IsInteractive() {
		return ds.runWithUI(ctx, baseURL, buildRequests)
	}
	return ds.runWithoutUI(ctx, baseURL, buildRequests)
}

func (ds *DevServer) runWithUI(ctx context.Context, baseURL string, buildRequests chan BuildRequest) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := ds.ui.NewProgram(baseURL, buildRequests)

	var wg sync.WaitGroup
	ds.start(ctx, &wg, buildRequests)

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		_, runErr = program.Run()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		program.Quit()
		<-done
		runErr = ctx.Err()
	}

	// quitting the program stops the worker and the forwarder too
	cancel()
	ds.ui.Detach()
	wg.Wait()
	return runErr
}

func (ds *DevServer) runWithoutUI(ctx context.Context, baseURL string, buildRequests chan BuildRequest) error {
	log.Printf("bijou dev server started")
	log.Printf("baseURL: %s", baseURL)
	log.Printf("watching: %s", strings.Join(ds.watcher.Watched(), ", "))

	var wg sync.WaitGroup
	ds.start(ctx, &wg, buildRequests)

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// start runs the build worker and the watcher forwarder, and queues the
// initial build.
func (ds *DevServer) start(ctx context.Context, wg *sync.WaitGroup, buildRequests chan BuildRequest) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		ds.buildWorker(ctx, buildRequests)
	}()
	go func() {
		defer wg.Done()
		ds.forward(ctx, buildRequests)
	}()

	buildRequests <- BuildRequest{Reason: "initial"}
}

func (ds *DevServer) forward(ctx context.Context, buildRequests chan<- BuildRequest) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ds.watcher.Events:
			select {
			case buildRequests <- BuildRequest{Reason: event.Reason, Paths: event.Paths}:
			default:
				ds.ui.LogEvent("rebuild skipped: request queue full")
			}
		case err := <-ds.watcher.Errors:
			ds.ui.LogEvent(fmt.Sprintf("watch: %v", err))
		}
	}
}

func (ds *DevServer) buildWorker(ctx context.Context, requests <-chan BuildRequest) {
	buildCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-requests:
			buildCount++
			ds.ui.BuildStarted(BuildStartedMsg{Reason: req.Reason, Number: buildCount})

			result := ds.builder.Build(ctx)
			result.Reason = req.Reason
			result.Paths = req.Paths
			result.Number = buildCount

			ds.ui.BuildFinished(result)
			if result.Error == nil {
				ds.hub.Reload()
			}
		}
	}
}

func (ds *DevServer) Close() error {
	var errs []error

	if err := ds.watcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("watcher close: %w", err))
	}

	if err := ds.server.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	return errors.Join(errs...)
}
