package cmd

import "testing"

func TestParseMappings(t *testing.T) {
	mapping, err := parseMappings([]string{"timestamp=ride_date", "distance_km=klicks"})
	if err != nil {
		t.Fatalf("parseMappings failed: %v", err)
	}
	if mapping["timestamp"] != "ride_date" || mapping["distance_km"] != "klicks" {
		t.Errorf("unexpected mapping %v", mapping)
	}
}

func TestParseMappingsEmpty(t *testing.T) {
	mapping, err := parseMappings(nil)
	if err != nil {
		t.Fatalf("parseMappings(nil) failed: %v", err)
	}
	if mapping != nil {
		t.Errorf("expected nil mapping, got %v", mapping)
	}
}

func TestParseMappingsInvalid(t *testing.T) {
	for _, bad := range []string{"timestamp", "=col", "field="} {
		if _, err := parseMappings([]string{bad}); err == nil {
			t.Errorf("parseMappings(%q) should fail", bad)
		}
	}
}

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":5000", "http://localhost:5000"},
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := dashboardURL(tt.addr); got != tt.want {
			t.Errorf("dashboardURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
