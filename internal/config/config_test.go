package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"refmasker/internal/errs"
	"refmasker/internal/fasta"
	"refmasker/internal/sequence"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "conf.toml")
	if err := os.WriteFile(fn, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

const minimal = `
[[reference]]
name = "AAV"
fasta = "aav.fa"

[[reference]]
name = " Plasmid  backbone "
fasta = "/data/backbone.fa.gz"
`

func TestLoadDefaults(t *testing.T) {
	fn := writeConf(t, minimal)
	cfg, err := Load(fn)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Align.Aligner != AlignerBlastn || cfg.Align.Task != "dc-megablast" || cfg.Align.EValue != 0.1 || !cfg.Align.BestPerQuerySeq {
		t.Fatalf("align defaults = %+v", cfg.Align)
	}
	if cfg.Codec() != fasta.CodecGzip || !cfg.Output.MergeRef {
		t.Fatalf("output defaults = %+v", cfg.Output)
	}
	if d, _ := cfg.TimeoutDuration(); d != 30*time.Minute {
		t.Fatalf("timeout = %v", d)
	}
	if got := cfg.References[0].Fasta; got != filepath.Join(filepath.Dir(fn), "aav.fa") {
		t.Fatalf("relative path not resolved: %s", got)
	}
	if got := cfg.References[1]; got.Name != "Plasmid_backbone" || got.Fasta != "/data/backbone.fa.gz" {
		t.Fatalf("reference = %+v", got)
	}
	if ro := cfg.RenderOptions(); ro.Mode != sequence.ModeMask || ro.MaskChar != 'N' {
		t.Fatalf("render options = %+v", ro)
	}
	if got := cfg.ReportFormats(); len(got) != 1 || got[0] != "csv" {
		t.Fatalf("formats = %v", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConf(t, `
[align]
aligner = "kmer"
evalue = 1e-5
blastn_opt = "-num_threads 2  -dust no"
best_per_query_seq = false
timeout = "0"

[output]
repl_char = "X"
repl_with_query = true
compress = "xz"
report = "both"
`+minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ao := cfg.AlignOptions()
	if ao.EValue != 1e-5 || ao.BestHitPerQuery || strings.Join(ao.ExtraArgs, " ") != "-num_threads 2 -dust no" {
		t.Fatalf("align options = %+v", ao)
	}
	if ro := cfg.RenderOptions(); ro.Mode != sequence.ModeReplace || ro.MaskChar != 'X' {
		t.Fatalf("render options = %+v", ro)
	}
	if d, err := cfg.TimeoutDuration(); err != nil || d != 0 {
		t.Fatalf("timeout = %v, %v", d, err)
	}
	if cfg.Codec() != fasta.CodecXZ || len(cfg.ReportFormats()) != 2 {
		t.Fatalf("output = %+v", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name, body, field string
	}{
		{"syntax", "[align\n", ""},
		{"no references", "[align]\nevalue = 1\n", ""},
		{"unknown key", "[align]\nevalu = 1\n" + minimal, ""},
		{"evalue", "[align]\nevalue = 0\n" + minimal, "align.evalue"},
		{"aligner", "[align]\naligner = \"bowtie\"\n" + minimal, "align.aligner"},
		{"task", "[align]\ntask = \"tblastx\"\n" + minimal, "align.task"},
		{"timeout", "[align]\ntimeout = \"soon\"\n" + minimal, "align.timeout"},
		{"threads", "[align]\nthreads = -1\n" + minimal, "align.threads"},
		{"kmer", "[align]\nkmer_size = 2\n" + minimal, "align.kmer_size"},
		{"repl_char", "[output]\nrepl_char = \"NN\"\n" + minimal, "output.repl_char"},
		{"compress", "[output]\ncompress = \"bz2\"\n" + minimal, "output.compress"},
		{"report", "[output]\nreport = \"xml\"\n" + minimal, "output.report"},
		{"empty name", "[[reference]]\nname = \"  \"\nfasta = \"a.fa\"\n", "reference[0].name"},
		{"empty fasta", "[[reference]]\nname = \"a\"\n", "reference[0].fasta"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConf(t, tc.body))
			var ce *errs.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
			if tc.field != "" && ce.Field != tc.field {
				t.Fatalf("field = %q, want %q (%v)", ce.Field, tc.field, err)
			}
		})
	}
}

func TestDuplicateNamesLeftToRegistry(t *testing.T) {
	cfg, err := Load(writeConf(t, "[[reference]]\nname = \"a\"\nfasta = \"1.fa\"\n[[reference]]\nname = \"a\"\nfasta = \"2.fa\"\n"))
	if err != nil || len(cfg.References) != 2 {
		t.Fatalf("Load = %+v, %v", cfg, err)
	}
}

func TestExample(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, DefaultExampleName)
	if err := WriteExample(fn, false); err != nil {
		t.Fatalf("WriteExample: %v", err)
	}
	cfg, err := Load(fn)
	if err != nil {
		t.Fatalf("example does not load: %v", err)
	}
	if len(cfg.References) != 2 || cfg.References[0].Name != "AAV" {
		t.Fatalf("references = %+v", cfg.References)
	}
	def := Defaults()
	if cfg.Align != def.Align {
		t.Errorf("example align section differs from defaults:\n%+v\n%+v", cfg.Align, def.Align)
	}
	if cfg.Output != def.Output {
		t.Errorf("example output section differs from defaults:\n%+v\n%+v", cfg.Output, def.Output)
	}

	if err := WriteExample(fn, false); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("overwrite without force: %v", err)
	}
	if err := WriteExample(fn, true); err != nil {
		t.Fatalf("overwrite with force: %v", err)
	}
}

func TestLineWidthZeroKept(t *testing.T) {
	cfg, err := Load(writeConf(t, "[output]\nline_width = 0\n"+minimal))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.LineWidth != 0 {
		t.Fatalf("line_width = %d, want 0", cfg.Output.LineWidth)
	}
}
