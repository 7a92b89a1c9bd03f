package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/reduce"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if cfg.n != 16*1024*1024 || cfg.group != 256 {
		t.Errorf("n, group = %d, %d; want 16777216, 256", cfg.n, cfg.group)
	}
	if len(cfg.strategies) != 1 || cfg.strategies[0] != reduce.StrategyLocal {
		t.Errorf("strategies = %v, want [local]", cfg.strategies)
	}
}

func TestParseFlagsBoth(t *testing.T) {
	cfg, err := parseFlags([]string{"-strategy", "both"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if len(cfg.strategies) != 2 {
		t.Errorf("strategies = %v, want [local global]", cfg.strategies)
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{
			name:     "local",
			args:     []string{"-cpu", "-n", "4096", "-group", "256"},
			wantCode: 0,
			wantOut:  []string{"Reduction Sum : 4096\n", "Kernel Execution Time of Local Atomics", "PASSED"},
		},
		{
			name:     "both",
			args:     []string{"-cpu", "-n", "1024", "-group", "64", "-strategy", "both"},
			wantCode: 0,
			wantOut:  []string{"Local Atomics", "Global Atomics", "PASSED"},
		},
		{
			name:     "padded",
			args:     []string{"-cpu", "-n", "1000", "-group", "256", "-pad"},
			wantCode: 0,
			wantOut:  []string{"Reduction Sum : 1000\n", "PASSED"},
		},
		{
			name:     "ragged",
			args:     []string{"-cpu", "-n", "1000", "-group", "256"},
			wantCode: 1,
		},
		{
			name:     "bad strategy",
			args:     []string{"-strategy", "shared"},
			wantCode: 2,
		},
		{
			name:     "negative n",
			args:     []string{"-n", "-1"},
			wantCode: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("run() = %d, want %d\nstdout: %s\nstderr: %s",
					code, tt.wantCode, stdout.String(), stderr.String())
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("output missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}
