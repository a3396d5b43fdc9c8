package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/autoglm/tui-go/internal/api"
	"github.com/autoglm/tui-go/internal/chat"
	"github.com/autoglm/tui-go/internal/config"
	"github.com/autoglm/tui-go/internal/logtail"
	"github.com/autoglm/tui-go/internal/tui"
)

var (
	serverFlag string
	deviceFlag string
	debugMode  bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autoglm-tui",
		Short: "Terminal console for the AutoGLM phone agent",
		Long: `autoglm-tui is a terminal client for the phone-agent backend.
It submits tasks, streams the agent's progress into a live transcript,
and keeps the running state honest against the backend's status endpoint.`,
		RunE:         runTUI,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&serverFlag, "server", "", "Backend base URL (default http://127.0.0.1:8000)")
	rootCmd.Flags().StringVar(&deviceFlag, "device", "", "Device serial to target")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Print backend status and history without the TUI")

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
	if deviceFlag != "" {
		cfg.DeviceID = deviceFlag
	}

	client := api.NewClient(cfg.ServerURL)

	if debugMode {
		return runDebugMode(client)
	}

	log, closeLog, err := newFileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DeviceID != "" {
		// Point the backend's agent at the requested device. Best effort:
		// the backend may not be up yet, the pollers will catch up.
		if err := selectDevice(ctx, client, cfg.DeviceID); err != nil {
			log.Warn("select device", "error", err)
		}
	}

	ctrl := chat.NewController(client, log)
	go chat.NewRunStatusPoller(ctrl, chat.RunStatusInterval, log).Run(ctx)
	go ctrl.RunElapsed(ctx)

	devCh := make(chan []string, 1)
	go chat.NewDevicePoller(client.Devices, func(devices []string) {
		// Keep only the freshest snapshot if the UI is behind.
		select {
		case devCh <- devices:
		default:
			select {
			case <-devCh:
			default:
			}
			devCh <- devices
		}
	}, log).Run(ctx)

	tailer := logtail.NewTailer(client.LogsURL(), log)
	go tailer.Run(ctx)

	p := tea.NewProgram(
		tui.NewRootModel(ctx, cfg, ctrl, tailer.Lines(), devCh),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

// selectDevice writes the device id into the backend's settings.
func selectDevice(ctx context.Context, client *api.Client, deviceID string) error {
	settings, err := client.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.DeviceID == deviceID {
		return nil
	}
	settings.DeviceID = deviceID
	return client.UpdateSettings(ctx, settings)
}

// runDebugMode prints the backend's current state and exits.
func runDebugMode(client *api.Client) error {
	ctx := context.Background()

	rs, err := client.RunStatus(ctx)
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}
	fmt.Printf("running=%v stopping=%v\n", rs.Running, rs.Stopping)

	devices, err := client.Devices(ctx)
	if err != nil {
		fmt.Printf("devices: error: %v\n", err)
	} else {
		fmt.Printf("devices: %v\n", devices)
	}

	history, err := client.History(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	for _, msg := range history {
		fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	return nil
}

// newFileLogger routes slog to a file; the terminal belongs to the TUI.
func newFileLogger() (*slog.Logger, func(), error) {
	path, err := config.LogPath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve log path: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewJSONHandler(f, nil))
	slog.SetDefault(log)
	return log, func() { f.Close() }, nil
}
