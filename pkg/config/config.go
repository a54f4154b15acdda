package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"boundedvote/pkg/log"

	"golang.org/x/xerrors"
)

// HardwareType selects how registration requests and blank ballots travel
// between voter and coordinator.
type HardwareType string

const (
	HWCore HardwareType = "Core" // In-memory hand-off, no I/O.
	HWDisk HardwareType = "Disk" // QR codes wrapped in PDF files.
)

// MaxDiskVoters caps Disk runs, which write two PDF files per voter.
const MaxDiskVoters = 1000

// Config holds all parameters for a simulation instance.
type Config struct {
	Voters     uint64
	Counters   uint64
	Candidates []string
	Weight     uint32 // Certified weight of every voter.
	Runs       uint64
	Cores      int

	HardwareType HardwareType
	Scheme       string // Signature scheme name, see crypto.PrimitivesByName.
	Seed         string

	PicturePath string
	ResultsPath string

	LogLevel     log.LogLevel
	PrintMetrics bool
	MaxDepth     int
	MaxChildren  int
}

// NewConfig parses the process command line. Invalid flags are fatal.
func NewConfig() *Config {
	log.Debug("Parsing command-line flags...")
	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	cfg.PicturePath = cleanAndCreateDirectory(cfg.PicturePath)
	cfg.ResultsPath = cleanAndCreateDirectory(cfg.ResultsPath)
	log.Debug("Config: %s", cfg)
	return cfg
}

// Parse reads the simulation flags from args into a Config.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	voters := fs.Uint64("voters", 100, "Number of voters.")
	counters := fs.Uint64("counters", 3, "Number of counters contributing a poll point share.")
	candidates := fs.String("candidates", "alice,bob,carol", "Comma-separated candidate list.")
	weight := fs.Uint("weight", 100, "Certified voting weight of every voter.")
	runs := fs.Uint64("runs", 1, "Number of simulation runs.")
	cores := fs.Int("cores", runtime.NumCPU(), "Worker goroutines for parallel steps (1 disables parallelism).")
	hwType := fs.String("hw", string(HWCore), "Hand-off implementation (Core, Disk).")
	scheme := fs.String("scheme", "secp256k1", "Coordinator signature scheme (secp256k1, schnorr).")
	seed := fs.String("seed", "boundedvote", "Seed for all random values. Empty uses the system source.")
	logLevel := fs.String("log-level", "info", "Set log level (trace, debug, info, error).")
	picPath := fs.String("pics", "output/pics/", "Path for storing QR code files.")
	resultsPath := fs.String("results", "output/results/", "Path for storing simulation results.")
	printMetrics := fs.Bool("print-metrics", false, "Print the measurement tree after every run.")
	maxDepth := fs.Int("max-depth", 3, "Depth of the printed measurement tree (-1 for all).")
	maxChildren := fs.Int("max-children", 10, "Children shown per node of the printed tree (-1 for all).")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	level, ok := log.ParseLevel(*logLevel)
	if !ok {
		log.Info("Unknown log level '%s', defaulting to 'info'", *logLevel)
		level = log.LevelInfo
	}

	cfg := &Config{
		Voters:       *voters,
		Counters:     *counters,
		Candidates:   splitCandidates(*candidates),
		Weight:       uint32(*weight),
		Runs:         *runs,
		Cores:        *cores,
		HardwareType: HardwareType(*hwType),
		Scheme:       *scheme,
		Seed:         *seed,
		PicturePath:  *picPath,
		ResultsPath:  *resultsPath,
		LogLevel:     level,
		PrintMetrics: *printMetrics,
		MaxDepth:     *maxDepth,
		MaxChildren:  *maxChildren,
	}
	if uint64(*weight) != uint64(cfg.Weight) {
		return nil, xerrors.Errorf("weight %d does not fit in 32 bits", *weight)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the simulation cannot run.
func (c *Config) Validate() error {
	if c.Counters < 1 {
		return xerrors.New("at least one counter is required")
	}
	if len(c.Candidates) == 0 {
		return xerrors.New("at least one candidate is required")
	}
	seen := make(map[string]struct{}, len(c.Candidates))
	for _, name := range c.Candidates {
		if _, dup := seen[name]; dup {
			return xerrors.Errorf("candidate %q listed twice", name)
		}
		seen[name] = struct{}{}
	}
	if c.Runs < 1 {
		return xerrors.New("at least one run is required")
	}
	if c.Cores < 1 {
		return xerrors.Errorf("cores must be positive, got %d", c.Cores)
	}
	switch c.HardwareType {
	case HWCore:
	case HWDisk:
		if c.Voters > MaxDiskVoters {
			return xerrors.Errorf("cannot run more than %d voters on Disk hardware", MaxDiskVoters)
		}
	default:
		return xerrors.Errorf("unknown hardware type %q", c.HardwareType)
	}
	return nil
}

// String returns a string representation of the Config instance.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Voters:%d Counters:%d Candidates:%v Weight:%d Runs:%d Cores:%d "+
		"HW:%s Scheme:%s PicPath:%s ResultsPath:%s LogLevel:%d PrintMetrics:%t Seeded:%t}",
		c.Voters, c.Counters, c.Candidates, c.Weight, c.Runs, c.Cores,
		c.HardwareType, c.Scheme, c.PicturePath, c.ResultsPath,
		c.LogLevel, c.PrintMetrics, c.Seed != "")
}

// --- Config Helpers ---

func splitCandidates(list string) []string {
	var out []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// cleanAndCreateDirectory ensures the directory exists and returns its cleaned path.
func cleanAndCreateDirectory(path string) string {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0755); err != nil {
		log.Fatalf("Failed to create directory %s: %v", path, err)
	}
	return path
}
