package config

import "testing"

func TestShouldMigrate(t *testing.T) {
	cases := []struct {
		mode  string
		force bool
		want  bool
	}{
		{"debug", false, true},
		{"test", false, true},
		{"release", false, false},
		{"release", true, true},
	}
	for _, c := range cases {
		cfg := &Config{ForceMigrate: c.force}
		cfg.Server.Mode = c.mode
		if got := cfg.ShouldMigrate(); got != c.want {
			t.Errorf("mode=%s force=%t: ShouldMigrate() = %t, want %t", c.mode, c.force, got, c.want)
		}
	}
}
