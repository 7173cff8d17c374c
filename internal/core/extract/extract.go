package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cmtx/internal/core/explain"
	"cmtx/internal/core/scan"
	"cmtx/internal/core/treesitter"
	"cmtx/internal/core/walk"
	"cmtx/internal/index/store"
)

type Mode string

const (
	ModeComments Mode = "comments"
	ModeRaw      Mode = "raw"
)

type Engine string

const (
	EngineFSM        Engine = "fsm"
	EngineTreesitter Engine = "treesitter"
)

// Recorder receives the comments of one file after it has been printed.
type Recorder interface {
	AddComments(path string, comms []store.CommentInput) error
}

type Options struct {
	CExtensions   []string
	AsmExtensions []string
	IncludeGlobs  []string
	ExcludeGlobs  []string
	RespectIgnore bool

	Mode   Mode
	Engine Engine

	// Recorder, when set, is fed every comment span. Ignored in raw mode.
	Recorder Recorder
	Logger   *slog.Logger
	Explain  explain.Explain
}

// Stats summarizes one Run. Bytes counts source bytes read after newline
// normalization.
type Stats struct {
	Files        int
	Comments     int
	Unterminated int
	StrayCloses  int
	Bytes        int64
}

type pass struct {
	name string
	lang string
	exts []string
}

// Run prints the comments of every C-family file under root, then those of
// every assembly file, each behind a banner naming the file.
func Run(root string, w io.Writer, opts Options) (Stats, error) {
	if strings.TrimSpace(root) == "" {
		return Stats{}, fmt.Errorf("root is required")
	}
	if w == nil {
		return Stats{}, fmt.Errorf("writer is required")
	}
	if opts.Mode == "" {
		opts.Mode = ModeComments
	}
	if opts.Engine == "" {
		opts.Engine = EngineFSM
	}
	switch opts.Mode {
	case ModeComments, ModeRaw:
	default:
		return Stats{}, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	switch opts.Engine {
	case EngineFSM, EngineTreesitter:
	default:
		return Stats{}, fmt.Errorf("unknown engine %q", opts.Engine)
	}

	r := &runner{
		root: root,
		opts: opts,
		log:  opts.Logger,
		ex:   explain.OrNop(opts.Explain),
		out:  bufio.NewWriter(w),
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Engine == EngineTreesitter {
		r.ts = treesitter.NewProvider()
	}

	passes := []pass{
		{name: "c", lang: store.LangC, exts: opts.CExtensions},
		{name: "asm", lang: store.LangAsm, exts: opts.AsmExtensions},
	}
	for _, p := range passes {
		if err := r.runPass(p); err != nil {
			_ = r.out.Flush()
			r.report()
			return r.stats, err
		}
	}
	if err := r.out.Flush(); err != nil {
		return r.stats, err
	}
	r.report()
	return r.stats, nil
}

type runner struct {
	root  string
	opts  Options
	log   *slog.Logger
	ex    explain.Explain
	out   *bufio.Writer
	ts    *treesitter.Provider
	stats Stats
}

func (r *runner) runPass(p pass) error {
	if len(p.exts) == 0 {
		return nil
	}

	stopWalk := r.ex.Timer("walk." + p.name)
	files, err := walk.ListFiles(r.root, walk.Options{
		Extensions:    p.exts,
		IncludeGlobs:  r.opts.IncludeGlobs,
		ExcludeGlobs:  r.opts.ExcludeGlobs,
		RespectIgnore: r.opts.RespectIgnore,
		OnSkip: func(rel string, isDir bool) {
			r.log.Debug("skipped by ignore rules", "path", rel, "dir", isDir)
		},
	})
	stopWalk()
	if err != nil {
		return fmt.Errorf("walk %s: %w", r.root, err)
	}
	r.ex.KV("files."+p.name, len(files))

	stopScan := r.ex.Timer("scan." + p.name)
	defer stopScan()
	for _, rel := range files {
		if err := r.file(p, rel); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) file(p pass, rel string) error {
	display := filepath.Join(r.root, filepath.FromSlash(rel))
	if err := writeBanner(r.out, display); err != nil {
		return err
	}
	r.stats.Files++

	f, err := os.Open(display)
	if err != nil {
		return err
	}
	defer f.Close()

	if r.opts.Mode == ModeRaw {
		n, err := io.Copy(r.out, scan.NormalizeNewlines(f))
		r.stats.Bytes += n
		if err != nil {
			return fmt.Errorf("%s: %w", display, err)
		}
		r.log.Debug("dumped file", "path", rel, "bytes", n)
		return nil
	}

	var comms []store.CommentInput
	if r.ts != nil && p.lang == store.LangC {
		comms, err = r.parsed(f, display)
		if err == nil {
			return r.record(rel, comms)
		}
		if !errors.Is(err, treesitter.ErrUnsupported) {
			return err
		}
		// Suffixes the grammar does not know go through the FSM.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	}

	kind, m := store.KindBlock, scan.Machine(scan.NewBlock())
	if p.lang == store.LangAsm {
		kind, m = store.KindLine, scan.NewLine(';')
	}

	var sopts scan.Options
	if r.opts.Recorder != nil {
		sopts.OnComment = func(c scan.Comment) {
			comms = append(comms, store.CommentInput{
				Kind:       kind,
				Lang:       p.lang,
				Text:       c.Text,
				SL:         c.StartLine,
				EL:         c.EndLine,
				Terminated: c.Terminated,
			})
		}
	}

	res, err := scan.Scan(bufio.NewReader(f), r.out, m, sopts)
	r.stats.Bytes += res.BytesIn
	r.stats.Comments += res.Comments
	if err != nil {
		return fmt.Errorf("%s: %w", display, err)
	}
	if res.Unterminated {
		r.stats.Unterminated++
		r.log.Warn("unterminated block comment", "path", rel)
	}
	if res.StrayCloses > 0 {
		r.stats.StrayCloses += res.StrayCloses
		r.log.Warn("stray comment close", "path", rel, "count", res.StrayCloses)
	}
	r.log.Debug("scanned file", "path", rel, "comments", res.Comments, "bytes", res.BytesIn)

	return r.record(rel, comms)
}

// parsed prints the block comments the tree-sitter grammar finds in f.
func (r *runner) parsed(f *os.File, display string) ([]store.CommentInput, error) {
	src, err := io.ReadAll(scan.NormalizeNewlines(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", display, err)
	}
	comms, err := r.ts.Extract(display, src)
	if err != nil {
		if errors.Is(err, treesitter.ErrDisabled) {
			return nil, fmt.Errorf("engine %s: %w", EngineTreesitter, err)
		}
		return nil, err
	}
	r.stats.Bytes += int64(len(src))
	r.stats.Comments += len(comms)

	for _, c := range comms {
		text := c.Text
		if c.Terminated {
			text += "\n"
		} else {
			r.stats.Unterminated++
			r.log.Warn("unterminated block comment", "path", display)
		}
		if _, err := io.WriteString(r.out, text); err != nil {
			return nil, err
		}
	}
	r.log.Debug("parsed file", "path", display, "comments", len(comms))
	return comms, nil
}

func (r *runner) record(rel string, comms []store.CommentInput) error {
	if r.opts.Recorder == nil {
		return nil
	}
	if err := r.opts.Recorder.AddComments(rel, comms); err != nil {
		return fmt.Errorf("record %s: %w", rel, err)
	}
	return nil
}

func (r *runner) report() {
	r.ex.KV("files", r.stats.Files)
	r.ex.KV("comments", r.stats.Comments)
	r.ex.KV("unterminated", r.stats.Unterminated)
	r.ex.KV("stray_closes", r.stats.StrayCloses)
	r.ex.KV("bytes", r.stats.Bytes)
}

type storeRecorder struct {
	st    store.Store
	runID string
}

func (s storeRecorder) AddComments(path string, comms []store.CommentInput) error {
	return s.st.AddComments(s.runID, path, comms)
}

// RecordTo returns a Recorder that writes into st under runID. The run must
// already have been started with BeginRun.
func RecordTo(st store.Store, runID string) Recorder {
	return storeRecorder{st: st, runID: runID}
}
