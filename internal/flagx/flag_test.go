package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "engz.json", "-db", "engz.db"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "engz.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-db", "engz.db"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "unknown flags and commands dropped",
			args:    []string{"-log-level", "debug", "--api-key=k", "sync"},
			allowed: []string{"-c", "-config"},
			want:    []string{},
		},
		{
			name:    "flag without value at the end",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not taken as value",
			args:    []string{"-c", "-db", "x.db"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "several allowed flags keep their order",
			args:    []string{"-addr", "127.0.0.1:7777", "-c", "engz.json", "daemon"},
			allowed: []string{"-c", "-addr"},
			want:    []string{"-addr", "127.0.0.1:7777", "-c", "engz.json"},
		},
		{
			name:    "repeated flag",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short -c with value", args: []string{"-c", "/path/short.json"}, want: "/path/short.json"},
		{name: "long -config with value", args: []string{"-config", "/path/long.json"}, want: "/path/long.json"},
		{name: "equals form", args: []string{"--config=/path/eq.json", "sync"}, want: "/path/eq.json"},
		{name: "unknown flags are ignored", args: []string{"-x", "1", "-y", "2"}, want: ""},
		{name: "mixed with other flags", args: []string{"-db", "engz.db", "-c", "engz.json", "daemon"}, want: "engz.json"},
		{name: "multiple flags, last wins", args: []string{"-c", "/path/1.json", "-config", "/path/2.json"}, want: "/path/2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
