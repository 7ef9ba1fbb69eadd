package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
owner:
  webid: https://owner.example/profile/card#me
solid:
  token_url: https://idp.example/token
  client_id: paykitd
  client_secret: secret
chain:
  rpc_url: https://rpc.example
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schedule.Processor != DefaultSchedule || cfg.Schedule.Sweeper != DefaultSchedule {
		t.Errorf("schedules = %q/%q", cfg.Schedule.Processor, cfg.Schedule.Sweeper)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.LogLevel() != logrus.InfoLevel {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Status.Port != 0 {
		t.Errorf("status port = %d, want disabled", cfg.Status.Port)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
schedule:
  processor: "*/30 * * * * *"
  sweeper: "0 */5 * * * *"
status:
  port: 9090
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Schedule.Sweeper != "0 */5 * * * *" {
		t.Errorf("sweeper schedule = %q", cfg.Schedule.Sweeper)
	}
	if cfg.Status.Port != 9090 {
		t.Errorf("status port = %d", cfg.Status.Port)
	}
	if cfg.LogLevel() != logrus.DebugLevel {
		t.Errorf("log level = %v", cfg.LogLevel())
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"missing webid": {
			body: strings.Replace(minimal, "webid:", "x_webid:", 1),
			want: "owner.webid",
		},
		"missing rpc url": {
			body: strings.Replace(minimal, "rpc_url:", "x_rpc_url:", 1),
			want: "chain.rpc_url",
		},
		"five-field cron": {
			body: minimal + "schedule:\n  processor: \"* * * * *\"\n",
			want: "processor schedule",
		},
		"bad log level": {
			body: minimal + "log:\n  level: noisy\n",
			want: "log level",
		},
		"bad port": {
			body: minimal + "status:\n  port: 70000\n",
			want: "status.port",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
