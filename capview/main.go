package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/capmeter/pkg/capmeter"
	"github.com/itohio/capmeter/pkg/config"
	"github.com/itohio/capmeter/pkg/sample"
	"github.com/itohio/capmeter/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated meter instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of reports to average (0 = disabled, overrides config)")
		headlessFlag       = flag.Bool("headless", false, "Log readings and publish them without opening a window")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Override average samples if provided via command line
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	if *headlessFlag {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := runHeadless(ctx, cfg, *mockFlag); err != nil {
			log.Fatalf("Headless run failed: %v", err)
		}
		return
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.capmeter")

	// Create main window
	window := application.NewWindow("Capacitance Meter")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	history := sample.NewHistory(windowDuration(cfg))

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		history:    history,
		window:     window,
		useMock:    *mockFlag,
	}

	// Scope widget for the capacitance trace
	scopeWidget := scope.New(cfg)
	state.scopeWidget = scopeWidget

	// Throttle updates to ~30 FPS; reports arrive every 200 ms anyway
	limiter := newThrottle(33 * time.Millisecond)
	history.OnUpdate(func(samples []sample.Sample) {
		if len(samples) == 0 || !limiter.allow(time.Now()) {
			return
		}
		latest := samples[len(samples)-1]
		fyne.Do(func() {
			state.readingLabel.SetText(scope.FormatSample(latest))
			scopeWidget.UpdateData(samples)
		})
	})

	toolbar := createToolbar(state)

	window.SetContent(container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		scopeWidget,
	))
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg          *config.Config
	configPath   string
	device       capmeter.Device
	history      *sample.History
	scopeWidget  *scope.ScopeWidget
	window       fyne.Window
	connectBtn   *widget.Button
	partSelect   *widget.Select
	readingLabel *widget.Label
	useMock      bool
	chain        *measurementChain // Current measurement chain (nil if not connected)

	mu sync.Mutex
}

// createToolbar creates the toolbar with Connect and Settings buttons on the
// left, the latest reading in the middle and the simulated part on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.readingLabel = widget.NewLabelWithStyle("--", fyne.TextAlignCenter, fyne.TextStyle{Monospace: true, Bold: true})

	right := fyne.CanvasObject(container.NewHBox())
	if state.useMock {
		state.partSelect = createPartSelect(state)
		right = container.NewHBox(widget.NewLabel("Part"), state.partSelect)
	}

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		right,              // right
		state.readingLabel, // center
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.device != nil && state.device.IsConnected() {
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.readingLabel.SetText("--")
		log.Printf("Disconnected")
		return
	}

	// Device dropped by itself
	closeMeasurementChain(state.chain)
	state.chain = nil

	device := newDevice(state.cfg, state.useMock)
	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated meter: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	state.connectBtn.SetIcon(theme.LogoutIcon())
	if state.useMock {
		log.Printf("Connected to simulated meter")
	} else {
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}

	state.history.Clear()
	state.history.SetWindow(windowDuration(state.cfg))
	state.history.ResetShutdown()

	chain, samples := startMeasurementChain(state.cfg, device)
	go func() {
		defer close(chain.consumerDone)
		state.history.ProcessSamples(samples)
	}()
	state.chain = chain
}

func newDevice(cfg *config.Config, useMock bool) capmeter.Device {
	if useMock {
		return capmeter.NewMock(&cfg.Mock)
	}
	return capmeter.New(cfg.Serial.Port, cfg.Serial.Baud, capmeter.DefaultBufferSize)
}

func windowDuration(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second))
}
