package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"i4.energy/across/espgw/esp"
)

// Server handles incoming HTTP requests for interacting with the
// configured WiFi/MQTT module
type Server struct {
	Logger *slog.Logger
	Device *esp.Device
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /receive", s.handleReceive)
	mux.HandleFunc("GET /network", s.handleNetwork)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// handlePublish publishes a message through the module's MQTT session
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	type PublishRequest struct {
		Topic   string `json:"topic"`
		Payload string `json:"payload"`
		QoS     int    `json:"qos"`
		Retain  bool   `json:"retain"`
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Topic == "" || req.Payload == "" {
		s.sendError(w, "both 'topic' and 'payload' fields are required", http.StatusBadRequest)
		return
	}

	if err := s.Device.Publish(req.Topic, []byte(req.Payload), req.QoS, req.Retain, 10*time.Second); err != nil {
		s.Logger.Error("Failed to publish", "error", err, "topic", req.Topic)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Message published", "topic", req.Topic, "payload_length", len(req.Payload))
	w.WriteHeader(http.StatusOK)
}

// handleSubscribe subscribes the module's MQTT session to a topic
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	type SubscribeRequest struct {
		Topic string `json:"topic"`
		QoS   int    `json:"qos"`
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Topic == "" {
		s.sendError(w, "'topic' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Device.Subscribe(req.Topic, req.QoS); err != nil {
		s.Logger.Error("Failed to subscribe", "error", err, "topic", req.Topic)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Subscribed", "topic", req.Topic, "qos", req.QoS)
	w.WriteHeader(http.StatusOK)
}

// handleReceive waits briefly for a subscription message and returns it,
// or 204 when nothing arrived
func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	msg, err := s.Device.Receive(5 * time.Second)
	if err != nil {
		s.Logger.Error("Failed to receive", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	type ReceiveResponse struct {
		Topic   string `json:"topic"`
		Payload string `json:"payload"`
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ReceiveResponse{Topic: msg.Topic, Payload: string(msg.Payload)})
}

// handleNetwork reports the module's current network state
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	type NetworkResponse struct {
		IP      string `json:"ip"`
		Gateway string `json:"gateway"`
		Netmask string `json:"netmask"`
		MAC     string `json:"mac"`
		SSID    string `json:"ssid,omitempty"`
		RSSI    int    `json:"rssi,omitempty"`
	}

	info, err := s.Device.StationIP()
	if err != nil {
		s.Logger.Error("Failed to query network info", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	mac, err := s.Device.MAC()
	if err != nil {
		s.Logger.Error("Failed to query hardware address", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := NetworkResponse{
		IP:      info.IP,
		Gateway: info.Gateway,
		Netmask: info.Netmask,
		MAC:     mac,
	}
	// AP info is best effort; the station may not be associated.
	if ap, err := s.Device.APInfo(); err == nil {
		resp.SSID = ap.SSID
		resp.RSSI = ap.RSSI
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
