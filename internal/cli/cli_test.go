package cli

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haskel/hostwatch/internal/config"
	"github.com/haskel/hostwatch/internal/metrics"
)

func TestGetServerURL(t *testing.T) {
	host = "127.0.0.1"
	port = 5253

	url := GetServerURL()
	expected := "http://127.0.0.1:5253"

	if url != expected {
		t.Errorf("expected %s, got %s", expected, url)
	}
}

func TestGetServerURL_IPv6(t *testing.T) {
	host = "::1"
	port = 9000

	url := GetServerURL()
	expected := "http://[::1]:9000"

	if url != expected {
		t.Errorf("expected %s, got %s", expected, url)
	}

	// Reset
	host = "127.0.0.1"
	port = 5253
}

func TestIsJSON(t *testing.T) {
	jsonOut = false
	if IsJSON() {
		t.Error("expected false")
	}

	jsonOut = true
	if !IsJSON() {
		t.Error("expected true")
	}

	// Reset
	jsonOut = false
}

func TestIsVerbose(t *testing.T) {
	verbose = false
	if IsVerbose() {
		t.Error("expected false")
	}

	verbose = true
	if !IsVerbose() {
		t.Error("expected true")
	}

	// Reset
	verbose = false
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")

	if Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", Version)
	}

	// Reset
	Version = "0.1.0"
}

func TestNewClient_WithAuth(t *testing.T) {
	host = "127.0.0.1"
	port = 5253
	user = "admin"
	password = "secret"

	client := NewClient()

	if client.baseURL != "http://127.0.0.1:5253" {
		t.Errorf("expected http://127.0.0.1:5253, got %s", client.baseURL)
	}
	if client.user != "admin" || client.password != "secret" {
		t.Errorf("expected admin:secret, got %s:%s", client.user, client.password)
	}

	// Reset
	user = ""
	password = ""
}

func envelopeServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); ok && (u != "admin" || p != "secret") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_GetData(t *testing.T) {
	ts := envelopeServer(t, http.StatusOK, `{"status":"success","data":{"cpu":{"global_usage":42.5}}}`)

	var snap metrics.Snapshot
	ok, err := newClient(ts.URL, "admin", "secret").GetData("/api/v1/metrics/current", &snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected data")
	}
	if snap.CPU.GlobalUsage != 42.5 {
		t.Errorf("expected cpu 42.5, got %f", snap.CPU.GlobalUsage)
	}
}

func TestClient_GetData_NoData(t *testing.T) {
	ts := envelopeServer(t, http.StatusOK, `{"status":"success","message":"No metrics collected yet"}`)

	var snap metrics.Snapshot
	ok, err := newClient(ts.URL, "", "").GetData("/api/v1/metrics/current", &snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no data")
	}
}

func TestClient_GetData_Error(t *testing.T) {
	ts := envelopeServer(t, http.StatusNotFound, `{"status":"error","message":"Anomaly with id x not found"}`)

	var a metrics.Anomaly
	_, err := newClient(ts.URL, "", "").GetData("/api/v1/anomalies/x", &a)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Health(t *testing.T) {
	ts := envelopeServer(t, http.StatusOK, `{"status":"ok"}`)
	if err := newClient(ts.URL, "", "").Health(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	down := envelopeServer(t, http.StatusServiceUnavailable, `{}`)
	if err := newClient(down.URL, "", "").Health(); err == nil {
		t.Error("expected error for unhealthy server")
	}
}

func TestAnomaliesPath(t *testing.T) {
	tests := []struct {
		severity string
		limit    int
		want     string
		wantErr  bool
	}{
		{"", 0, "/api/v1/anomalies", false},
		{"", 5, "/api/v1/anomalies?limit=5", false},
		{"critical", 10, "/api/v1/anomalies?limit=10&severity=Critical", false},
		{"fatal", 10, "", true},
	}

	for _, tt := range tests {
		got, err := anomaliesPath(tt.severity, tt.limit)
		if (err != nil) != tt.wantErr {
			t.Errorf("anomaliesPath(%q, %d) error = %v", tt.severity, tt.limit, err)
			continue
		}
		if got != tt.want {
			t.Errorf("anomaliesPath(%q, %d) = %q, want %q", tt.severity, tt.limit, got, tt.want)
		}
	}
}

func TestPrintSnapshot(t *testing.T) {
	snap := &metrics.Snapshot{
		Timestamp: time.Now(),
		CPU:       metrics.CPUMetrics{GlobalUsage: 37.5},
		Memory:    metrics.MemoryMetrics{Total: 16 << 30, Used: 4 << 30, UsagePercent: 25},
		Disks:     []metrics.DiskMetrics{{Name: "sda1", MountPoint: "/", UsagePercent: 61}},
		Temperatures: []metrics.Temperature{
			{Sensor: "coretemp", Label: "Package id 0", Value: 51},
		},
		USBDevices: []metrics.USBDevice{{ID: "046d:c52b", Timeout: true}},
		GPU:        &metrics.GPUMetrics{Name: "RTX 3080", Usage: 12},
	}

	var buf bytes.Buffer
	printSnapshot(&buf, snap)
	out := buf.String()

	for _, want := range []string{"37.5%", "4.0 GiB / 16 GiB", "sda1", "Package id 0", "timeouts: 046d:c52b", "RTX 3080"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestPrintAnomalies_Empty(t *testing.T) {
	var buf bytes.Buffer
	printAnomalies(&buf, nil)

	if strings.TrimSpace(buf.String()) != "No anomalies" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestRunStatus(t *testing.T) {
	ts := envelopeServer(t, http.StatusOK, `{"status":"success","data":{"cpu":{"global_usage":12.5},"memory":{"usage_percent":40}}}`)

	u := strings.TrimPrefix(ts.URL, "http://")
	h, p, err := net.SplitHostPort(u)
	if err != nil {
		t.Fatal(err)
	}
	host = h
	port, _ = strconv.Atoi(p)
	defer func() {
		host = "127.0.0.1"
		port = 5253
	}()

	var buf bytes.Buffer
	statusCmd.SetOut(&buf)
	defer statusCmd.SetOut(nil)

	if err := runStatus(statusCmd, nil); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(buf.String(), "12.5%") {
		t.Errorf("expected cpu usage in output:\n%s", buf.String())
	}
}

func TestPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "hostwatch.pid")

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile failed: %v", err)
	}

	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected pid %d, got %d", os.Getpid(), pid)
	}
}

func TestReadPIDFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := readPIDFile(filepath.Join(dir, "missing.pid")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.pid")
	os.WriteFile(bad, []byte("not-a-pid\n"), 0644)
	if _, err := readPIDFile(bad); err == nil {
		t.Error("expected error for invalid pid")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	cfgFile = ""
	t.Setenv("HOSTWATCH_DATABASE", "/var/lib/hostwatch/custom.db")

	cfg, err := loadConfig(startCmd)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Storage.Path != "/var/lib/hostwatch/custom.db" {
		t.Errorf("expected database override, got %s", cfg.Storage.Path)
	}
}

func TestLoadConfig_MalformedEnv(t *testing.T) {
	cfgFile = ""
	t.Setenv("HOSTWATCH_DATABASE", "/var/lib/hostwatch/custom.db")
	t.Setenv("HOSTWATCH_PORT", "not-a-port")

	if _, err := loadConfig(startCmd); err == nil {
		t.Fatal("expected error for malformed HOSTWATCH_PORT")
	}
}

func TestRestartRequired(t *testing.T) {
	running := config.Default()

	same := config.Default()
	same.Auth = config.AuthConfig{Enabled: true, User: "admin", Password: "secret"}
	if changed := restartRequired(running, same); len(changed) != 0 {
		t.Errorf("expected auth-only change to apply live, got %v", changed)
	}

	reloaded := config.Default()
	reloaded.Monitoring.IntervalMS = 5000
	reloaded.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	changed := restartRequired(running, reloaded)
	if len(changed) != 2 || changed[0] != "server.cors" || changed[1] != "monitoring" {
		t.Errorf("expected [server.cors monitoring], got %v", changed)
	}
}
