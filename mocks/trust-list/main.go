package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultPort      = "8082"
	defaultLatencyMs = "20"
	defaultAnchorOut = "trust-anchor.pem"
)

type TrustListResponse struct {
	Rules        string `json:"rules"`
	RulesSig     string `json:"rulessig"`
	ValueSets    string `json:"valuesets"`
	ValueSetsSig string `json:"valuesetssig"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

var (
	latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)
	// FAIL_MODE=unavailable makes /trustlist answer 503 so breaker and cache
	// fallback can be exercised end to end.
	failMode = os.Getenv("FAIL_MODE")
)

// defaultRules accept Comirnaty or Spikevax vaccinations in Austria for
// 270 days after the last dose, and reject tests older than 48 hours.
const defaultRules = `[
 {"Identifier":"VR-AT-0001","Type":"Acceptance","Country":"AT","Version":"1.0.0","SchemaVersion":"1.0.0",
  "Engine":"CERTLOGIC","EngineVersion":"0.7.5","CertificateType":"Vaccination",
  "Description":[{"lang":"en","desc":"Vaccine product must be approved."},{"lang":"de","desc":"Impfstoff muss zugelassen sein."}],
  "ValidFrom":"2021-06-01T00:00:00Z","ValidTo":"2030-06-01T00:00:00Z","AffectedFields":["v.0.mp"],
  "Logic":{"if":[{"var":"payload.v.0"},{"in":[{"var":"payload.v.0.mp"},{"var":"external.valueSets.vaccines-covid-19-names"}]},true]}},
 {"Identifier":"VR-AT-0002","Type":"Acceptance","Country":"AT","Version":"1.0.0","SchemaVersion":"1.0.0",
  "Engine":"CERTLOGIC","EngineVersion":"0.7.5","CertificateType":"Vaccination",
  "Description":[{"lang":"en","desc":"Vaccination is valid for 270 days."},{"lang":"de","desc":"Impfung ist 270 Tage gültig."}],
  "ValidFrom":"2021-06-01T00:00:00Z","ValidTo":"2030-06-01T00:00:00Z","AffectedFields":["v.0.dt"],
  "Logic":{"if":[{"var":"payload.v.0"},{"not-after":[{"plusTime":[{"var":"external.validationClock"},0,"day"]},{"plusTime":[{"var":"payload.v.0.dt"},270,"day"]}]},true]}},
 {"Identifier":"TR-AT-0001","Type":"Acceptance","Country":"AT","Version":"1.0.0","SchemaVersion":"1.0.0",
  "Engine":"CERTLOGIC","EngineVersion":"0.7.5","CertificateType":"Test",
  "Description":[{"lang":"en","desc":"Test sample must be at most 48 hours old."}],
  "ValidFrom":"2021-06-01T00:00:00Z","ValidTo":"2030-06-01T00:00:00Z","AffectedFields":["t.0.sc"],
  "Logic":{"if":[{"var":"payload.t.0"},{"not-after":[{"plusTime":[{"var":"external.validationClock"},0,"day"]},{"plusTime":[{"var":"payload.t.0.sc"},48,"hour"]}]},true]}}
]`

const defaultValueSets = `[
 {"valueSetId":"vaccines-covid-19-names","valueSetDate":"2021-06-01",
  "valueSetValues":{"EU/1/20/1528":{"display":"Comirnaty","active":true},"EU/1/20/1507":{"display":"Spikevax","active":true}}}
]`

type signer struct {
	key *ecdsa.PrivateKey

	mu   sync.Mutex
	resp TrustListResponse
}

func main() {
	port := getEnv("PORT", defaultPort)

	key, err := loadOrGenerateKey(os.Getenv("SIGNING_KEY_FILE"))
	if err != nil {
		log.Fatalf("signing key: %v", err)
	}
	anchorOut := getEnv("ANCHOR_OUT", defaultAnchorOut)
	if err := writeAnchor(anchorOut, &key.PublicKey); err != nil {
		log.Fatalf("write trust anchor: %v", err)
	}

	s := &signer{key: key}
	if err := s.load(os.Getenv("RULES_FILE"), os.Getenv("VALUESETS_FILE")); err != nil {
		log.Fatalf("build trust list: %v", err)
	}

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/trustlist", s.handleTrustList)
	http.HandleFunc("/anchor.pem", s.handleAnchor)

	log.Printf("Mock trust list starting on port %s", port)
	log.Printf("Trust anchor written to %s", anchorOut)
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
		"service": "trust-list",
		"version": "1.0.0",
	})
}

func (s *signer) handleTrustList(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	log.Printf("Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodGet {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if failMode == "unavailable" {
		sendError(w, "trust list temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	resp := s.resp
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (s *signer) handleAnchor(w http.ResponseWriter, r *http.Request) {
	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	pem.Encode(w, &pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

// load wraps the rule and value set arrays into bundles valid from now for
// thirty days and signs each blob.
func (s *signer) load(rulesFile, valueSetsFile string) error {
	rulesJSON, err := readOr(rulesFile, defaultRules)
	if err != nil {
		return err
	}
	valueSetsJSON, err := readOr(valueSetsFile, defaultValueSets)
	if err != nil {
		return err
	}

	var rules, valueSets []json.RawMessage
	if err := json.Unmarshal(rulesJSON, &rules); err != nil {
		return errors.New("rules must be a JSON array: " + err.Error())
	}
	if err := json.Unmarshal(valueSetsJSON, &valueSets); err != nil {
		return errors.New("value sets must be a JSON array: " + err.Error())
	}

	now := time.Now().UTC().Truncate(time.Second)
	header := map[string]any{
		"validFrom":  now.Add(-time.Hour).Format(time.RFC3339),
		"validUntil": now.AddDate(0, 0, 30).Format(time.RFC3339),
	}

	rulesEntries := make([]map[string]json.RawMessage, len(rules))
	for i, r := range rules {
		rulesEntries[i] = map[string]json.RawMessage{"rule": r}
	}
	valueSetEntries := make([]map[string]json.RawMessage, len(valueSets))
	for i, v := range valueSets {
		valueSetEntries[i] = map[string]json.RawMessage{"valueSet": v}
	}

	rulesBlob, err := json.Marshal(withEntries(header, "rules", rulesEntries))
	if err != nil {
		return err
	}
	valueSetsBlob, err := json.Marshal(withEntries(header, "valueSets", valueSetEntries))
	if err != nil {
		return err
	}
	rulesSig, err := s.sign(rulesBlob)
	if err != nil {
		return err
	}
	valueSetsSig, err := s.sign(valueSetsBlob)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.resp = TrustListResponse{
		Rules:        string(rulesBlob),
		RulesSig:     rulesSig,
		ValueSets:    string(valueSetsBlob),
		ValueSetsSig: valueSetsSig,
	}
	s.mu.Unlock()
	log.Printf("Signed %d rules and %d value sets", len(rules), len(valueSets))
	return nil
}

// sign returns the base64url raw r||s ES256 signature of blob.
func (s *signer) sign(blob []byte) (string, error) {
	digest := sha256.Sum256(blob)
	r, sv, err := ecdsa.Sign(rand.Reader, s.key, digest[:])
	if err != nil {
		return "", err
	}
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	sv.FillBytes(out[32:])
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func withEntries(header map[string]any, key string, entries any) map[string]any {
	out := make(map[string]any, len(header)+1)
	for k, v := range header {
		out[k] = v
	}
	out[key] = entries
	return out
}

func loadOrGenerateKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block in " + path)
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not an EC key")
	}
	return key, nil
}

func writeAnchor(path string, pub *ecdsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return err
	}
	return os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o644)
}

func readOr(path, fallback string) ([]byte, error) {
	if path == "" {
		return []byte(fallback), nil
	}
	return os.ReadFile(path)
}

func sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: http.StatusText(code), ErrorDescription: message})
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
