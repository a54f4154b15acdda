package config

import (
	"flag"
	"io"
	"testing"

	"boundedvote/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(args ...string) (*Config, error) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return Parse(fs, args)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Candidates)
	assert.Equal(t, uint32(100), cfg.Weight)
	assert.Equal(t, uint64(3), cfg.Counters)
	assert.Equal(t, HWCore, cfg.HardwareType)
	assert.Equal(t, "secp256k1", cfg.Scheme)
	assert.Equal(t, log.LevelInfo, cfg.LogLevel)
}

func TestParseFlags(t *testing.T) {
	cfg, err := parse("-voters", "7", "-candidates", " yes, no ,,", "-weight", "12",
		"-hw", "Disk", "-scheme", "schnorr", "-log-level", "debug", "-cores", "1")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Voters)
	assert.Equal(t, []string{"yes", "no"}, cfg.Candidates)
	assert.Equal(t, uint32(12), cfg.Weight)
	assert.Equal(t, HWDisk, cfg.HardwareType)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 1, cfg.Cores)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no_counters", []string{"-counters", "0"}},
		{"no_candidates", []string{"-candidates", ","}},
		{"duplicate_candidate", []string{"-candidates", "a,b,a"}},
		{"no_runs", []string{"-runs", "0"}},
		{"no_cores", []string{"-cores", "0"}},
		{"unknown_hardware", []string{"-hw", "Printer"}},
		{"too_many_disk_voters", []string{"-hw", "Disk", "-voters", "1001"}},
		{"weight_overflow", []string{"-weight", "4294967296"}},
		{"unknown_flag", []string{"-ea", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.args...)
			assert.Error(t, err)
		})
	}
}
