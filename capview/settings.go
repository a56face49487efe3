package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/capmeter/pkg/capmeter"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createMeasurementTab(state),
		createMockTab(state),
		createModbusTab(state),
		createMQTTTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig validates and persists the configuration.
func saveConfig(state *appState) {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(fmt.Errorf("invalid settings: %w", err), state.window)
		return
	}
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// reconnect restarts the measurement chain if it is running so that changed
// settings take effect.
func reconnect(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	handleConnect(state) // disconnect
	handleConnect(state) // connect with the new settings
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := capmeter.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}
				changed = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud != state.cfg.Serial.Baud {
				state.cfg.Serial.Baud = baud
				changed = true
			}
			saveConfig(state)

			if changed && !state.useMock {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.WindowSeconds))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Measurement.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil {
				state.cfg.Measurement.WindowSeconds = ws
				state.history.SetWindow(windowDuration(state.cfg))
			}
			averaging := state.cfg.Measurement.AverageSamples
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil {
				state.cfg.Measurement.AverageSamples = avg
			}
			saveConfig(state)

			// Averaging is a stage of the chain
			if averaging != state.cfg.Measurement.AverageSamples {
				reconnect(state)
			}
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the simulated meter configuration tab.
func createMockTab(state *appState) *container.TabItem {
	capacitanceEntry := widget.NewEntry()
	capacitanceEntry.SetText(strconv.FormatFloat(state.cfg.Mock.Capacitance, 'g', -1, 64))

	slowOhmsEntry := widget.NewEntry()
	slowOhmsEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.SlowOhms))

	fastOhmsEntry := widget.NewEntry()
	fastOhmsEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.FastOhms))

	supplyEntry := widget.NewEntry()
	supplyEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Supply))

	refRatioEntry := widget.NewEntry()
	refRatioEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Mock.RefRatio))

	pollCostEntry := widget.NewEntry()
	pollCostEntry.SetText(state.cfg.Mock.PollCost.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Capacitance (F)", Widget: capacitanceEntry},
			{Text: "Slow Resistor (Ω)", Widget: slowOhmsEntry},
			{Text: "Fast Resistor (Ω)", Widget: fastOhmsEntry},
			{Text: "Supply (V)", Widget: supplyEntry},
			{Text: "Reference Ratio", Widget: refRatioEntry},
			{Text: "Poll Cost", Widget: pollCostEntry},
		},
		OnSubmit: func() {
			if c, err := strconv.ParseFloat(capacitanceEntry.Text, 64); err == nil {
				handlePartChange(state, c)
			}
			if r, err := strconv.ParseFloat(slowOhmsEntry.Text, 64); err == nil {
				state.cfg.Mock.SlowOhms = r
			}
			if r, err := strconv.ParseFloat(fastOhmsEntry.Text, 64); err == nil {
				state.cfg.Mock.FastOhms = r
			}
			if v, err := strconv.ParseFloat(supplyEntry.Text, 64); err == nil {
				state.cfg.Mock.Supply = v
			}
			if r, err := strconv.ParseFloat(refRatioEntry.Text, 64); err == nil {
				state.cfg.Mock.RefRatio = r
			}
			if d, err := time.ParseDuration(pollCostEntry.Text); err == nil {
				state.cfg.Mock.PollCost = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}

// createModbusTab creates the Modbus publisher configuration tab.
func createModbusTab(state *appState) *container.TabItem {
	enabledCheck := widget.NewCheck("", nil)
	enabledCheck.SetChecked(state.cfg.Modbus.Enabled)

	endpointEntry := widget.NewEntry()
	endpointEntry.SetText(state.cfg.Modbus.Endpoint)

	unitEntry := widget.NewEntry()
	unitEntry.SetText(strconv.Itoa(int(state.cfg.Modbus.UnitID)))

	addressEntry := widget.NewEntry()
	addressEntry.SetText(strconv.Itoa(int(state.cfg.Modbus.Address)))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Modbus.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Enabled", Widget: enabledCheck},
			{Text: "Endpoint (host:port)", Widget: endpointEntry},
			{Text: "Unit ID", Widget: unitEntry},
			{Text: "First Register", Widget: addressEntry},
			{Text: "Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			state.cfg.Modbus.Enabled = enabledCheck.Checked
			state.cfg.Modbus.Endpoint = endpointEntry.Text
			if id, err := strconv.ParseUint(unitEntry.Text, 10, 8); err == nil {
				state.cfg.Modbus.UnitID = uint8(id)
			}
			if addr, err := strconv.ParseUint(addressEntry.Text, 10, 16); err == nil {
				state.cfg.Modbus.Address = uint16(addr)
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil {
				state.cfg.Modbus.Timeout = d
			}
			saveConfig(state)
			reconnect(state)
		},
	}

	return container.NewTabItem("Modbus", form)
}

// createMQTTTab creates the MQTT publisher configuration tab.
func createMQTTTab(state *appState) *container.TabItem {
	enabledCheck := widget.NewCheck("", nil)
	enabledCheck.SetChecked(state.cfg.MQTT.Enabled)

	brokerEntry := widget.NewEntry()
	brokerEntry.SetText(state.cfg.MQTT.Broker)

	clientIDEntry := widget.NewEntry()
	clientIDEntry.SetText(state.cfg.MQTT.ClientID)

	topicEntry := widget.NewEntry()
	topicEntry.SetText(state.cfg.MQTT.Topic)

	qosSelect := widget.NewSelect([]string{"0", "1", "2"}, nil)
	qosSelect.SetSelected(strconv.Itoa(int(state.cfg.MQTT.QoS)))

	retainedCheck := widget.NewCheck("", nil)
	retainedCheck.SetChecked(state.cfg.MQTT.Retained)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Enabled", Widget: enabledCheck},
			{Text: "Broker", Widget: brokerEntry},
			{Text: "Client ID", Widget: clientIDEntry},
			{Text: "Topic", Widget: topicEntry},
			{Text: "QoS", Widget: qosSelect},
			{Text: "Retained", Widget: retainedCheck},
		},
		OnSubmit: func() {
			state.cfg.MQTT.Enabled = enabledCheck.Checked
			state.cfg.MQTT.Broker = brokerEntry.Text
			state.cfg.MQTT.ClientID = clientIDEntry.Text
			state.cfg.MQTT.Topic = topicEntry.Text
			if qos, err := strconv.Atoi(qosSelect.Selected); err == nil {
				state.cfg.MQTT.QoS = byte(qos)
			}
			state.cfg.MQTT.Retained = retainedCheck.Checked
			saveConfig(state)
			reconnect(state)
		},
	}

	return container.NewTabItem("MQTT", form)
}
