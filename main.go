package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/espgw/esp"
)

func main() {
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the WiFi module")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("wifi-ssid", "", "Access point SSID to join on startup")
	flag.String("wifi-password", "", "Access point passphrase")
	flag.String("broker-host", "", "MQTT broker host")
	flag.Int("broker-port", 1883, "MQTT broker port")
	flag.String("client-id", "espgw", "MQTT client identifier")
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	deviceConfig, err := esp.NewConfigBuilder().
		WithATTimeout(2 * time.Second).
		WithJoinTimeout(20 * time.Second).
		WithProbe(true).
		WithDialer(esp.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create device config", "error", err)
		os.Exit(1)
	}

	device, err := esp.New(context.Background(), deviceConfig)
	if err != nil {
		logger.Error("Failed to create device", "error", err)
		os.Exit(1)
	}

	logger.Info("Restarting WiFi module")
	if err := device.Restart(30 * time.Second); err != nil {
		logger.Error("Failed to restart module", "error", err)
		os.Exit(1)
	}

	if config.WifiSSID != "" {
		logger.Info("Joining access point", "ssid", config.WifiSSID)
		if err := device.JoinAP(config.WifiSSID, config.WifiPassword); err != nil {
			logger.Error("Failed to join access point", "error", err, "ssid", config.WifiSSID)
			os.Exit(1)
		}
	}

	if config.BrokerHost != "" {
		logger.Info("Connecting MQTT session", "broker", config.BrokerHost, "port", config.BrokerPort)
		if err := device.MQTTConfig(1, config.ClientID, config.Username, config.Password, ""); err != nil {
			logger.Error("Failed to configure MQTT session", "error", err)
			os.Exit(1)
		}
		if err := device.MQTTConnect(config.BrokerHost, config.BrokerPort, true); err != nil {
			logger.Error("Failed to connect to broker", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Starting ESP gateway")

	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Device: device,
		},
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	logger.Info("Closing device connection")
	if err := device.Close(); err != nil {
		logger.Error("Failed to close device", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("Closing HTTP server")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to gracefully shutdown server", "error", err)
		os.Exit(1)
	}
}
