// Package config loads and validates the TOML run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"refmasker/internal/align"
	"refmasker/internal/errs"
	"refmasker/internal/fasta"
	"refmasker/internal/sequence"
)

// Aligner names.
const (
	AlignerBlastn = "blastn"
	AlignerKmer   = "kmer"
)

// Tasks accepted by blastn -task.
var Tasks = []string{"blastn", "blastn-short", "dc-megablast", "megablast", "rmblastn"}

// Config is the whole configuration file.
type Config struct {
	Align      Align       `toml:"align"`
	Output     Output      `toml:"output"`
	References []Reference `toml:"reference"`

	// Path of the file the configuration was loaded from.
	Path string `toml:"-"`
}

// Align configures the alignment collaborator.
type Align struct {
	Aligner         string  `toml:"aligner"`
	Blastn          string  `toml:"blastn"`
	MakeBlastDB     string  `toml:"makeblastdb"`
	BlastnOpt       string  `toml:"blastn_opt"`
	MakeBlastDBOpt  string  `toml:"makeblastdb_opt"`
	Task            string  `toml:"task"`
	EValue          float64 `toml:"evalue"`
	BestPerQuerySeq bool    `toml:"best_per_query_seq"`
	Threads         int     `toml:"threads"`
	Timeout         string  `toml:"timeout"`
	KmerSize        int     `toml:"kmer_size"`
	MinLength       int     `toml:"min_length"`
	MaxMismatch     int     `toml:"max_mismatch"`
}

// Output configures rendering, output files and reports.
type Output struct {
	Dir           string `toml:"dir"`
	ReplChar      string `toml:"repl_char"`
	ReplWithQuery bool   `toml:"repl_with_query"`
	ModifSeqOnly  bool   `toml:"modif_seq_only"`
	MergeRef      bool   `toml:"merge_ref"`
	Compress      string `toml:"compress"`
	LineWidth     int    `toml:"line_width"`
	Report        string `toml:"report"`
	ReportFull    bool   `toml:"report_full"`
	WorkDir       string `toml:"work_dir"`
}

// Reference is one [[reference]] entry. Order matters: every reference is
// masked against all references listed before it.
type Reference struct {
	Name  string `toml:"name"`
	Fasta string `toml:"fasta"`
}

// Defaults returns the configuration used for keys absent from the file.
func Defaults() Config {
	return Config{
		Align: Align{
			Aligner:         AlignerBlastn,
			Blastn:          "blastn",
			MakeBlastDB:     "makeblastdb",
			Task:            "dc-megablast",
			EValue:          0.1,
			BestPerQuerySeq: true,
			Timeout:         "30m",
			KmerSize:        15,
			MinLength:       20,
			MaxMismatch:     3,
		},
		Output: Output{
			Dir:       "refmasker_out",
			ReplChar:  "N",
			MergeRef:  true,
			Compress:  string(fasta.CodecGzip),
			LineWidth: fasta.DefaultLineWidth,
			Report:    "csv",
		},
	}
}

// Load reads path over Defaults, normalizes reference entries and
// validates the result. Relative FASTA paths are resolved against the
// directory of path.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, &errs.ConfigurationError{Field: path, Message: "failed to parse TOML", Err: err}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, &errs.ConfigurationError{Field: path, Message: "unknown keys: " + strings.Join(keys, ", ")}
	}
	if !meta.IsDefined("reference") {
		return nil, &errs.ConfigurationError{Field: path, Message: "missing [[reference]]"}
	}
	cfg.Path = path
	cfg.normalize(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize replaces runs of blanks in reference names by "_" and anchors
// relative FASTA paths at base.
func (c *Config) normalize(base string) {
	for i := range c.References {
		r := &c.References[i]
		r.Name = strings.Join(strings.Fields(r.Name), "_")
		r.Fasta = strings.TrimSpace(r.Fasta)
		if r.Fasta != "" && r.Fasta != "-" && !filepath.IsAbs(r.Fasta) {
			r.Fasta = filepath.Join(base, r.Fasta)
		}
	}
}

func invalid(field, format string, args ...any) error {
	return &errs.ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks every value. Duplicate reference names are left to the
// run registry.
func (c *Config) Validate() error {
	a, o := c.Align, c.Output
	switch a.Aligner {
	case AlignerBlastn, AlignerKmer:
	default:
		return invalid("align.aligner", "%q is not one of blastn | kmer", a.Aligner)
	}
	if !contains(Tasks, a.Task) {
		return invalid("align.task", "%q is not one of %s", a.Task, strings.Join(Tasks, " | "))
	}
	if !(a.EValue > 0) {
		return invalid("align.evalue", "must be > 0, got %v", a.EValue)
	}
	if a.Threads < 0 {
		return invalid("align.threads", "must be >= 0, got %d", a.Threads)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if a.KmerSize < 4 || a.KmerSize > 64 {
		return invalid("align.kmer_size", "must be within [4, 64], got %d", a.KmerSize)
	}
	if a.MinLength < 1 {
		return invalid("align.min_length", "must be >= 1, got %d", a.MinLength)
	}
	if a.MaxMismatch < 0 {
		return invalid("align.max_mismatch", "must be >= 0, got %d", a.MaxMismatch)
	}

	if len(o.ReplChar) != 1 || o.ReplChar[0] < '!' || o.ReplChar[0] > '~' {
		return invalid("output.repl_char", "must be a single printable ASCII character, got %q", o.ReplChar)
	}
	if _, err := fasta.ParseCodec(o.Compress); err != nil {
		return invalid("output.compress", "%v", err)
	}
	if o.LineWidth < 0 {
		return invalid("output.line_width", "must be >= 0, got %d", o.LineWidth)
	}
	switch o.Report {
	case "csv", "json", "both", "none":
	default:
		return invalid("output.report", "%q is not one of csv | json | both | none", o.Report)
	}
	if o.Dir == "" {
		return invalid("output.dir", "must not be empty")
	}

	if len(c.References) == 0 {
		return invalid("reference", "at least one reference is required")
	}
	for i, r := range c.References {
		if r.Name == "" {
			return invalid(fmt.Sprintf("reference[%d].name", i), "must not be empty")
		}
		if r.Fasta == "" {
			return invalid(fmt.Sprintf("reference[%d].fasta", i), "must not be empty")
		}
	}
	return nil
}

// TimeoutDuration parses align.timeout; "" and "0" disable the timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Align.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Align.Timeout)
	if err != nil || d < 0 {
		return 0, invalid("align.timeout", "%q is not a valid non-negative duration", c.Align.Timeout)
	}
	return d, nil
}

// Codec is the output compression.
func (c *Config) Codec() fasta.Codec {
	codec, _ := fasta.ParseCodec(c.Output.Compress)
	return codec
}

// RenderOptions maps the output section onto the renderer.
func (c *Config) RenderOptions() sequence.RenderOptions {
	opts := sequence.RenderOptions{Mode: sequence.ModeMask, MaskChar: c.Output.ReplChar[0]}
	if c.Output.ReplWithQuery {
		opts.Mode = sequence.ModeReplace
	}
	return opts
}

// AlignOptions are forwarded to every aligner call.
func (c *Config) AlignOptions() align.Options {
	return align.Options{
		EValue:          c.Align.EValue,
		Task:            c.Align.Task,
		BestHitPerQuery: c.Align.BestPerQuerySeq,
		ExtraArgs:       strings.Fields(c.Align.BlastnOpt),
	}
}

// ReportFormats lists the report formats to write.
func (c *Config) ReportFormats() []string {
	switch c.Output.Report {
	case "both":
		return []string{"csv", "json"}
	case "none":
		return nil
	}
	return []string{c.Output.Report}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// WriteExample writes the example configuration to path. An existing file
// is only replaced with force.
func WriteExample(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	fh, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return &errs.ConfigurationError{Field: path, Message: "file exists (use --force to overwrite)", Err: err}
		}
		return &errs.StorageError{Op: "create", Path: path, Err: err}
	}
	if _, err := fh.WriteString(Example); err != nil {
		_ = fh.Close()
		return &errs.StorageError{Op: "write", Path: path, Err: err}
	}
	if err := fh.Close(); err != nil {
		return &errs.StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}
