// Package blast drives NCBI BLAST+ (makeblastdb and blastn) as the
// alignment collaborator.
package blast

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"refmasker/internal/align"
	"refmasker/internal/hit"
)

// Config locates the BLAST+ executables.
type Config struct {
	Blastn          string   // default "blastn"
	MakeBlastDB     string   // default "makeblastdb"
	MakeBlastDBArgs []string // extra makeblastdb arguments
	Log             logrus.FieldLogger
}

// Aligner runs blastn of each query collection against a nucleotide
// database built once per subject inside the subject's working directory,
// so the database goes away with the subject.
type Aligner struct {
	cfg Config

	mu  sync.Mutex
	dbs map[string]*dbState // by subject work dir
}

type dbState struct {
	once sync.Once
	path string
	err  error
}

var _ align.Aligner = (*Aligner)(nil)
var _ align.SubjectPreparer = (*Aligner)(nil)
var _ align.SubjectReleaser = (*Aligner)(nil)

// New returns a BLAST+ aligner.
func New(cfg Config) *Aligner {
	if cfg.Blastn == "" {
		cfg.Blastn = "blastn"
	}
	if cfg.MakeBlastDB == "" {
		cfg.MakeBlastDB = "makeblastdb"
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Aligner{cfg: cfg, dbs: make(map[string]*dbState)}
}

// Prepare builds the subject database. Concurrent and repeated calls for
// the same subject build it once.
func (a *Aligner) Prepare(ctx context.Context, subject align.Target) error {
	_, err := a.database(ctx, subject)
	return err
}

// Release forgets the subject database. The files themselves live in the
// subject work dir and are removed with it.
func (a *Aligner) Release(subject align.Target) {
	a.mu.Lock()
	delete(a.dbs, subject.WorkDir)
	a.mu.Unlock()
}

func (a *Aligner) database(ctx context.Context, subject align.Target) (string, error) {
	a.mu.Lock()
	st, ok := a.dbs[subject.WorkDir]
	if !ok {
		st = &dbState{}
		a.dbs[subject.WorkDir] = st
	}
	a.mu.Unlock()

	st.once.Do(func() {
		st.path = filepath.Join(subject.WorkDir, "blastdb")
		args := []string{"-in", subject.FastaPath, "-dbtype", "nucl", "-out", st.path}
		args = append(args, a.cfg.MakeBlastDBArgs...)
		a.cfg.Log.WithField("subject", subject.Name).Debugf("%s %s", a.cfg.MakeBlastDB, strings.Join(args, " "))
		if _, err := run(ctx, a.cfg.MakeBlastDB, args); err != nil {
			st.err = fmt.Errorf("makeblastdb: %w", err)
		}
	})
	return st.path, st.err
}

// Align runs blastn with the query FASTA against the subject database.
func (a *Aligner) Align(ctx context.Context, query, subject align.Target, opts align.Options) ([]hit.Hit, error) {
	db, err := a.database(ctx, subject)
	if err != nil {
		return nil, align.Wrap(query.Name, subject.Name, err)
	}
	args := BlastnArgs(query.FastaPath, db, opts)
	a.cfg.Log.WithFields(logrus.Fields{"subject": subject.Name, "query": query.Name}).
		Debugf("%s %s", a.cfg.Blastn, strings.Join(args, " "))

	out, err := run(ctx, a.cfg.Blastn, args)
	if err != nil {
		return nil, align.Wrap(query.Name, subject.Name, fmt.Errorf("blastn: %w", err))
	}
	hits, err := ParseTabular(bytes.NewReader(out))
	if err != nil {
		return nil, align.Wrap(query.Name, subject.Name, err)
	}
	return hits, nil
}

// BlastnArgs builds the blastn command line.
func BlastnArgs(queryPath, db string, opts align.Options) []string {
	args := []string{"-query", queryPath, "-db", db, "-outfmt", OutFmt}
	if opts.Task != "" {
		args = append(args, "-task", opts.Task)
	}
	if opts.EValue > 0 {
		args = append(args, "-evalue", strconv.FormatFloat(opts.EValue, 'g', -1, 64))
	}
	if opts.BestHitPerQuery {
		args = append(args, "-max_target_seqs", "1", "-max_hsps", "1")
	}
	return append(args, opts.ExtraArgs...)
}

// run executes name and returns its stdout. A non-zero exit carries the
// tail of stderr in the error.
func run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
