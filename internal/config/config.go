package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/json2bytes/internal/exit"
	"github.com/jacoelho/json2bytes/internal/input"
	"github.com/jacoelho/json2bytes/internal/separator"
	"github.com/jacoelho/json2bytes/internal/sink"
)

// Version is reported by --version and set at build time.
var Version = "dev"

const (
	// DefaultMinSize is the default minimum byte length of an emitted string.
	DefaultMinSize = 0
)

var (
	ErrNoArguments     = errors.New("no arguments provided")
	ErrInvalid         = errors.New("invalid configuration")
	ErrEmptyFieldName  = errors.New("field names cannot be empty")
	ErrFramingConflict = errors.New("--separator cannot be combined with --lines or --null-delim")
	ErrLinesAndNull    = errors.New("--lines and --null-delim are mutually exclusive")
	ErrNegativeRate    = errors.New("--rate-limit cannot be negative")
)

// Config represents the complete configuration for a json2bytes run.
type Config struct {
	// Inputs are read in order; "-" is standard input.
	Inputs []string

	// Filters
	MinSize uint
	Fields  []string // nil means every field qualifies
	Path    string   // JSONPath selecting the roots to walk
	Where   string   // expression every match must satisfy

	// Output
	Separator   []byte
	Framing     sink.Framing
	Format      sink.Format
	Unique      bool
	MetricsFile string

	RateLimit float64 // documents per second (0 = unlimited)
	Verbose   bool
}

// SinkOptions returns the output settings of the config.
func (c *Config) SinkOptions() sink.Options {
	return sink.Options{
		Format:    c.Format,
		Framing:   c.Framing,
		Separator: c.Separator,
		Unique:    c.Unique,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalid)
	}

	if c.Fields != nil {
		if len(c.Fields) == 0 {
			return fmt.Errorf("%w: %w", ErrInvalid, ErrEmptyFieldName)
		}
		if slices.Contains(c.Fields, "") {
			return fmt.Errorf("%w: %w", ErrInvalid, ErrEmptyFieldName)
		}
	}

	if _, err := sink.ParseFraming(string(c.Framing)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := sink.ParseFormat(string(c.Format)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, ErrNegativeRate)
	}

	return nil
}

// fieldsFlag implements flag.Value for comma-separated field names.
// Repeating the flag extends the list.
type fieldsFlag struct {
	names []string
	set   bool
}

func (f *fieldsFlag) String() string {
	if f == nil {
		return ""
	}
	return strings.Join(f.names, ",")
}

func (f *fieldsFlag) Set(value string) error {
	for name := range strings.SplitSeq(value, ",") {
		if name == "" {
			return fmt.Errorf("%w, got: %q", ErrEmptyFieldName, value)
		}
		if !slices.Contains(f.names, name) {
			f.names = append(f.names, name)
		}
	}
	f.set = true
	return nil
}

// fileConfig is the YAML representation of a config file. Pointers tell an
// absent key apart from a zero value.
type fileConfig struct {
	Size        *uint    `yaml:"size"`
	Fields      []string `yaml:"fields"`
	Separator   *string  `yaml:"separator"`
	Framing     string   `yaml:"framing"`
	Format      string   `yaml:"format"`
	Path        string   `yaml:"path"`
	Where       string   `yaml:"where"`
	Unique      *bool    `yaml:"unique"`
	RateLimit   *float64 `yaml:"rate_limit"`
	MetricsFile string   `yaml:"metrics_file"`
	Verbose     *bool    `yaml:"verbose"`
}

// loadConfigFile reads defaults from a YAML file.
func loadConfigFile(filename string) (*fileConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalWithOptions(data, &fc, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return &fc, nil
}

// apply copies the values present in the file onto cfg.
func (fc *fileConfig) apply(cfg *Config, separatorSpec *string) error {
	if fc.Size != nil {
		cfg.MinSize = *fc.Size
	}
	if fc.Fields != nil {
		cfg.Fields = make([]string, 0, len(fc.Fields))
		for _, name := range fc.Fields {
			if !slices.Contains(cfg.Fields, name) {
				cfg.Fields = append(cfg.Fields, name)
			}
		}
	}
	if fc.Separator != nil {
		*separatorSpec = *fc.Separator
	}
	if fc.Framing != "" {
		framing, err := sink.ParseFraming(fc.Framing)
		if err != nil {
			return err
		}
		if fc.Separator != nil && framing != sink.FramingSeparator {
			return fmt.Errorf("%w, got separator with framing %s", ErrFramingConflict, framing)
		}
		cfg.Framing = framing
	}
	if fc.Format != "" {
		format, err := sink.ParseFormat(fc.Format)
		if err != nil {
			return err
		}
		cfg.Format = format
	}
	if fc.Path != "" {
		cfg.Path = fc.Path
	}
	if fc.Where != "" {
		cfg.Where = fc.Where
	}
	if fc.Unique != nil {
		cfg.Unique = *fc.Unique
	}
	if fc.RateLimit != nil {
		cfg.RateLimit = *fc.RateLimit
	}
	if fc.MetricsFile != "" {
		cfg.MetricsFile = fc.MetricsFile
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help or version is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s\n", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var (
		size    uint
		fields  fieldsFlag
		verbose bool
	)

	var (
		separatorSpec = fs.String("separator", separator.Default, "Bytes written after each match, literal or \\xNN hex")
		lines         = fs.Bool("lines", false, "Terminate each match with a newline")
		nullDelim     = fs.Bool("null-delim", false, "Terminate each match with a newline and a NUL byte")
		format        = fs.String("format", string(sink.FormatRaw), "Output format: raw or jsonl")
		path          = fs.String("path", "", "JSONPath selecting the nodes to extract from")
		where         = fs.String("where", "", "Expression every match must satisfy")
		unique        = fs.Bool("unique", false, "Emit each distinct string once")
		rateLimit     = fs.Float64("rate-limit", 0, "Maximum documents per second (0 for unlimited)")
		metricsFile   = fs.String("metrics-file", "", "Write Prometheus metrics to this file when done")
		configFile    = fs.String("config", "", "YAML file with default options")
		version       = fs.Bool("version", false, "Show version information")
	)

	fs.UintVar(&size, "size", DefaultMinSize, "Minimum byte length of emitted strings")
	fs.UintVar(&size, "s", DefaultMinSize, "Minimum byte length of emitted strings")
	fs.Var(&fields, "fields", "Comma-separated field names to extract from")
	fs.Var(&fields, "f", "Comma-separated field names to extract from")
	fs.BoolVar(&verbose, "verbose", false, "Log progress to stderr")
	fs.BoolVar(&verbose, "v", false, "Log progress to stderr")

	inputs, err := parseInterspersed(fs, args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage() + "\n")
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s\n", err, Usage())
	}

	if *version {
		return nil, exit.Success(fmt.Sprintf("json2bytes %s\n", Version))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if len(inputs) == 0 {
		inputs = []string{input.Stdin}
	}

	config := &Config{
		Inputs:  inputs,
		MinSize: DefaultMinSize,
		Framing: sink.FramingSeparator,
		Format:  sink.FormatRaw,
	}
	spec := separator.Default

	// Config file values first, then command-line flags take precedence
	if *configFile != "" {
		fc, err := loadConfigFile(*configFile)
		if err != nil {
			return nil, exit.Usagef("Error: %v\n", err)
		}
		if err := fc.apply(config, &spec); err != nil {
			return nil, exit.Usagef("Error: config file %s: %v\n", *configFile, err)
		}
	}

	if set["size"] || set["s"] {
		config.MinSize = size
	}
	if fields.set {
		config.Fields = fields.names
	}

	if set["separator"] && (*lines || *nullDelim) {
		return nil, exit.Usagef("Error: %v\n\n%s\n", ErrFramingConflict, Usage())
	}
	if *lines && *nullDelim {
		return nil, exit.Usagef("Error: %v\n\n%s\n", ErrLinesAndNull, Usage())
	}
	switch {
	case set["separator"]:
		spec = *separatorSpec
		config.Framing = sink.FramingSeparator
	case *lines:
		config.Framing = sink.FramingLine
	case *nullDelim:
		config.Framing = sink.FramingNull
	}

	config.Separator, err = separator.Decode(spec)
	if err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s\n", err, Usage())
	}

	if set["format"] {
		f, err := sink.ParseFormat(*format)
		if err != nil {
			return nil, exit.Usagef("Error: %v\n\n%s\n", err, Usage())
		}
		config.Format = f
	}
	if set["path"] {
		config.Path = *path
	}
	if set["where"] {
		config.Where = *where
	}
	if set["unique"] {
		config.Unique = *unique
	}
	if set["rate-limit"] {
		config.RateLimit = *rateLimit
	}
	if set["metrics-file"] {
		config.MetricsFile = *metricsFile
	}
	if set["verbose"] || set["v"] {
		config.Verbose = verbose
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s\n", err, Usage())
	}

	return config, nil
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments. Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string

	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}

		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}

		consumed := len(args) - len(rest)
		if terminated(fs, args[:consumed]) {
			return append(positional, rest...), nil
		}

		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// terminated reports whether parsed, the arguments fs.Parse consumed, ends
// with a "--" terminator rather than a "--" passed as a flag value.
func terminated(fs *flag.FlagSet, parsed []string) bool {
	for i := 0; i < len(parsed); i++ {
		arg := parsed[i]
		if arg == "--" {
			return true
		}

		name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		name, _, inline := strings.Cut(name, "=")
		if f := fs.Lookup(name); f != nil && !inline && !isBoolFlag(f) {
			i++
		}
	}
	return false
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `json2bytes - extract string values from streams of JSON documents

Usage: json2bytes [options] [file ...]

Reads every file in order ("-" or no file reads standard input). Files
compressed with gzip, zstd, lz4 or s2 are decompressed transparently.

Options:
  -s, --size N            Minimum byte length of emitted strings (default: 0)
  -f, --fields A,B        Only emit strings found under these object keys
  --separator SPEC        Bytes written after each match, literal or hex like \x00\x1e (default: \x1e)
  --lines                 Write a newline after each match instead of the separator
  --null-delim            Write a newline and a NUL byte after each match
  --format FORMAT         Output format: raw or jsonl (default: raw)
  --path EXPR             JSONPath selecting the nodes to extract from (e.g. $.items[*])
  --where EXPR            Expression every match must satisfy (e.g. length < 500)
  --unique                Emit each distinct string once
  --rate-limit N          Maximum documents per second (0 for unlimited)
  --metrics-file FILE     Write Prometheus metrics to FILE when done
  --config FILE           YAML file with default values for the options above
  -v, --verbose           Log progress to stderr
  -h, --help              Show this help message
  --version               Show version information

Examples:
  json2bytes dump.json                        # Every string, separated by \x1e
  json2bytes --size 10 logs/*.json.gz         # Strings of at least 10 bytes
  json2bytes -f message,body --lines app.log  # Only message and body fields
  cat events.ndjson | json2bytes --format jsonl --unique`
}
