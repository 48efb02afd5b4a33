package main

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8081"
	defaultAPIKey    = "hcert-decoder-secret-key"
	defaultLatencyMs = "20"

	// certificates are "HC1:" followed by the base64url encoded DCC JSON
	// document. Real CBOR/COSE decoding is out of scope for the mock.
	prefix = "HC1:"
)

type DecodeRequest struct {
	HCert string `json:"hcert"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

var (
	apiKey    = getEnv("API_KEY", defaultAPIKey)
	latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)
)

// magicCertificates let e2e runs force a decoder failure mode.
var magicCertificates = map[string]int{
	prefix + "MALFORMED":   http.StatusUnprocessableEntity,
	prefix + "UNAVAILABLE": http.StatusServiceUnavailable,
}

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/decode", handleDecode)

	log.Printf("Mock HCERT decoder starting on port %s", port)
	log.Printf("API key: %s", apiKey)
	log.Printf("Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "hcert-decoder",
		"version": "1.0.0",
	})
}

func handleDecode(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodPost {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if key := r.Header.Get("X-API-Key"); key != apiKey {
		sendError(w, "missing or invalid X-API-Key header", http.StatusUnauthorized)
		return
	}

	var req DecodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		sendError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cert := strings.TrimSpace(req.HCert)
	if status, ok := magicCertificates[cert]; ok {
		sendError(w, "forced failure for "+cert, status)
		return
	}
	if !strings.HasPrefix(cert, prefix) {
		sendError(w, "certificate must start with "+prefix, http.StatusBadRequest)
		return
	}

	raw, err := decodeBase64(strings.TrimPrefix(cert, prefix))
	if err != nil {
		sendError(w, "certificate payload is not base64url", http.StatusUnprocessableEntity)
		return
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		sendError(w, "certificate payload is not a JSON object", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
	log.Printf("Decoded certificate (%d bytes)", len(raw))
}

func decodeBase64(s string) ([]byte, error) {
	if out, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

func sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:            strings.ToLower(strings.ReplaceAll(http.StatusText(code), " ", "_")),
		ErrorDescription: message,
	})
	log.Printf("Error response: %d - %s", code, message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
