// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"refmasker/internal/app"
	"refmasker/internal/fasta"
	"refmasker/internal/hit"
	"refmasker/pkg/api"
)

func randomSeq(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return b
}

func plant(dst []byte, at int, src []byte) { copy(dst[at:], src) }

// fixture holds three references with planted homologies:
// Backbone carries AAV[50:150) at 100 and revcomp(AAV[200:260)) at 300;
// Host carries Backbone[400:480) at 10 and AAV[0:40) at 200.
type fixture struct {
	dir           string
	aav, bb, host []byte
	paths         [3]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := rand.New(rand.NewSource(7))
	f := &fixture{dir: t.TempDir()}
	f.aav = randomSeq(r, 400)
	f.bb = randomSeq(r, 500)
	plant(f.bb, 100, f.aav[50:150])
	plant(f.bb, 300, []byte(hit.RevComp(string(f.aav[200:260]))))
	f.host = randomSeq(r, 300)
	plant(f.host, 10, f.bb[400:480])
	plant(f.host, 200, f.aav[0:40])

	files := []struct {
		name  string
		codec fasta.Codec
		recs  []fasta.Record
	}{
		{"aav.fa", fasta.CodecNone, []fasta.Record{{ID: "aav_genome", Seq: f.aav}}},
		{"backbone.fa.gz", fasta.CodecGzip, []fasta.Record{{ID: "pBB", Seq: f.bb}}},
		{"host.fa.xz", fasta.CodecXZ, []fasta.Record{{ID: "chrA", Seq: f.host}, {ID: "chrB", Seq: randomSeq(r, 120)}}},
	}
	for i, fl := range files {
		f.paths[i] = filepath.Join(f.dir, fl.name)
		if err := fasta.WriteFile(f.paths[i], fl.codec, fl.recs, 60); err != nil {
			t.Fatalf("write %s: %v", fl.name, err)
		}
	}
	return f
}

func (f *fixture) config(t *testing.T, output string, refs ...[2]string) string {
	t.Helper()
	if refs == nil {
		refs = [][2]string{{"AAV", "aav.fa"}, {"Back bone", "backbone.fa.gz"}, {"Host", "host.fa.xz"}}
	}
	var b strings.Builder
	b.WriteString("[align]\naligner = \"kmer\"\nbest_per_query_seq = false\nthreads = 2\n\n[output]\n")
	b.WriteString(output)
	for _, r := range refs {
		fmt.Fprintf(&b, "\n[[reference]]\nname = %q\nfasta = %q\n", r[0], r[1])
	}
	fn := filepath.Join(f.dir, "refmasker.toml")
	if err := os.WriteFile(fn, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func run(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := app.RunContext(ctx, args, &out, &errb)
	return code, out.String(), errb.String()
}

func readOne(t *testing.T, path string) map[string]string {
	t.Helper()
	recs, err := fasta.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	m := make(map[string]string, len(recs))
	for _, r := range recs {
		m[r.ID] = string(r.Seq)
	}
	return m
}

// assertMasked checks that every planted range is masked and that masking
// spills over by at most a few bases per range.
func assertMasked(t *testing.T, name, got string, orig []byte, ranges ...[2]int) {
	t.Helper()
	if len(got) != len(orig) {
		t.Fatalf("%s: length %d, want %d", name, len(got), len(orig))
	}
	planted := 0
	for _, r := range ranges {
		if span := got[r[0]:r[1]]; strings.Trim(span, "N") != "" {
			t.Errorf("%s[%d:%d] not masked: %s", name, r[0], r[1], span)
		}
		planted += r[1] - r[0]
	}
	n := strings.Count(got, "N")
	if n < planted || n > planted+16*len(ranges) {
		t.Errorf("%s: %d masked bases, planted %d", name, n, planted)
	}
	for i := range got {
		if got[i] != 'N' && got[i] != orig[i] {
			t.Fatalf("%s: base %d changed to %c", name, i, got[i])
		}
	}
}

func TestEndToEndPerReferenceOutput(t *testing.T) {
	f := newFixture(t)
	outDir := filepath.Join(f.dir, "out")
	conf := f.config(t, fmt.Sprintf("dir = %q\nmerge_ref = false\ncompress = \"none\"\nreport = \"both\"\nreport_full = true\n", outDir))

	code, stdout, stderr := run(t, context.Background(), "run", "-c", conf, "--no-color", "-q")
	if code != app.ExitOK {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	if !strings.HasPrefix(stdout, "SUCCESS 2 of 2 references masked") {
		t.Fatalf("summary = %q", stdout)
	}

	aav := readOne(t, filepath.Join(outDir, "AAV_masked.fa"))
	if aav["aav_genome"] != string(f.aav) {
		t.Fatal("first reference must be written unchanged")
	}
	bb := readOne(t, filepath.Join(outDir, "Back_bone_masked.fa"))
	assertMasked(t, "pBB", bb["pBB"], f.bb, [2]int{100, 200}, [2]int{300, 360})
	host := readOne(t, filepath.Join(outDir, "Host_masked.fa"))
	assertMasked(t, "chrA", host["chrA"], f.host, [2]int{10, 90}, [2]int{200, 240})
	if strings.Contains(host["chrB"], "N") {
		t.Fatal("chrB has no homology and must be untouched")
	}

	raw, err := os.ReadFile(filepath.Join(outDir, "refmasker_report.json"))
	if err != nil {
		t.Fatalf("json report: %v", err)
	}
	var rep api.ReportV1
	if err := json.Unmarshal(raw, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Status != "success" || len(rep.References) != 3 || rep.References[1].Name != "Back_bone" {
		t.Fatalf("report = %+v", rep)
	}
	if bbRep := rep.References[1]; bbRep.ModifiedBases < 160 || len(bbRep.SequenceStats[0].HitDetail) == 0 {
		t.Fatalf("backbone report = %+v", bbRep)
	}
	csvReport, err := os.ReadFile(filepath.Join(outDir, "refmasker_report.csv"))
	if err != nil {
		t.Fatalf("csv report: %v", err)
	}
	if !strings.Contains(string(csvReport), "#hit,Back_bone,pBB,aav_genome,") {
		t.Fatalf("csv report lacks hit detail:\n%s", csvReport)
	}
}

func TestEndToEndMergedCompressed(t *testing.T) {
	f := newFixture(t)
	outDir := filepath.Join(f.dir, "merged")
	conf := f.config(t, fmt.Sprintf("dir = %q\ncompress = \"gzip\"\nmodif_seq_only = true\nrepl_char = \"X\"\n", outDir))

	code, stdout, stderr := run(t, context.Background(), "run", "-c", conf, "-q")
	if code != app.ExitOK {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", code, stdout, stderr)
	}
	recs, err := fasta.ReadFile(context.Background(), filepath.Join(outDir, "merged_references.fa.gz"))
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != "aav_genome,pBB,chrA" {
		t.Fatalf("merged records = %s", got)
	}
	if !strings.Contains(string(recs[1].Seq), strings.Repeat("X", 50)) {
		t.Fatalf("repl_char not applied: %s", recs[1].Seq)
	}
}

func TestMissingReferenceIsPartial(t *testing.T) {
	f := newFixture(t)
	outDir := filepath.Join(f.dir, "out")
	conf := f.config(t, fmt.Sprintf("dir = %q\nmerge_ref = false\ncompress = \"none\"\n", outDir),
		[2]string{"AAV", "aav.fa"}, [2]string{"Gone", "gone.fa"}, [2]string{"Host", "host.fa.xz"})

	code, _, stderr := run(t, context.Background(), "run", "-c", conf, "--no-color")
	if code != app.ExitPartial {
		t.Fatalf("exit %d, want %d\n%s", code, app.ExitPartial, stderr)
	}
	if !strings.Contains(stderr, "reference=Gone") {
		t.Fatalf("failure not logged:\n%s", stderr)
	}
	host := readOne(t, filepath.Join(outDir, "Host_masked.fa"))
	assertMasked(t, "chrA", host["chrA"], f.host, [2]int{200, 240})

	csv, err := os.ReadFile(filepath.Join(outDir, "refmasker_report.csv"))
	if err != nil {
		t.Fatalf("csv report: %v", err)
	}
	if !strings.Contains(string(csv), "Gone,*,0,0,0,0.000,failed") || !strings.Contains(string(csv), ",partial") {
		t.Fatalf("csv report:\n%s", csv)
	}
}

func TestDuplicateReferenceExit2(t *testing.T) {
	f := newFixture(t)
	conf := f.config(t, fmt.Sprintf("dir = %q\n", filepath.Join(f.dir, "out")),
		[2]string{"ref1", "aav.fa"}, [2]string{"ref2", "backbone.fa.gz"}, [2]string{"ref1", "host.fa.xz"})

	code, _, stderr := run(t, context.Background(), "run", "-c", conf)
	if code != app.ExitUsage {
		t.Fatalf("exit %d, want %d\n%s", code, app.ExitUsage, stderr)
	}
	if !strings.Contains(stderr, "ref1") || !strings.Contains(stderr, "duplicated") {
		t.Fatalf("stderr = %s", stderr)
	}
}

func TestConfigErrorsExit2(t *testing.T) {
	code, _, stderr := run(t, context.Background(), "run", "-c", filepath.Join(t.TempDir(), "none.toml"))
	if code != app.ExitUsage || !strings.Contains(stderr, "error:") {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if code, _, _ := run(t, context.Background(), "run"); code != app.ExitUsage {
		t.Fatalf("missing --config: exit %d", code)
	}
	if code, _, _ := run(t, context.Background(), "mask"); code != app.ExitUsage {
		t.Fatalf("unknown command: exit %d", code)
	}
}

func TestCancelledExit130(t *testing.T) {
	f := newFixture(t)
	conf := f.config(t, fmt.Sprintf("dir = %q\n", filepath.Join(f.dir, "out")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, stdout, _ := run(t, ctx, "run", "-c", conf, "--no-color", "-q")
	if code != app.ExitCancelled {
		t.Fatalf("expected exit 130 on cancel, got %d", code)
	}
	if !strings.HasPrefix(stdout, "CANCELLED") {
		t.Fatalf("summary = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "out", "merged_references.fa.gz")); !os.IsNotExist(err) {
		t.Fatalf("merged output written after cancellation: %v", err)
	}
}

func TestInitAndVersion(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "example.toml")
	if code, out, errb := run(t, context.Background(), "init", "-o", fn); code != app.ExitOK || !strings.Contains(out, fn) {
		t.Fatalf("init exit %d: %s %s", code, out, errb)
	}
	if code, _, _ := run(t, context.Background(), "init", "-o", fn); code != app.ExitUsage {
		t.Fatalf("init over existing file: exit %d", code)
	}
	code, out, _ := run(t, context.Background(), "version")
	if code != app.ExitOK || !strings.HasPrefix(out, "refmasker version ") {
		t.Fatalf("version: exit %d %q", code, out)
	}
	if code := app.Run([]string{}, io.Discard, io.Discard); code != app.ExitOK {
		t.Fatalf("no arguments: exit %d", code)
	}
}
