package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/comments"
	"github.com/idursun/jjreview/internal/config"
	"github.com/idursun/jjreview/internal/coverage"
	"github.com/idursun/jjreview/internal/diff/model"
	"github.com/idursun/jjreview/internal/git"
	"github.com/idursun/jjreview/internal/logging"
	"github.com/idursun/jjreview/internal/ui"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/filelist"
	"github.com/idursun/jjreview/internal/ui/host"
)

// Set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

type options struct {
	base         string
	head         string
	configPath   string
	logFile      string
	debug        bool
	commentsPath string
	coveragePath string
	at           string
}

func main() {
	var o options
	var showVersion bool

	flag.StringVar(&o.head, "head", "", "revision to review; the working tree when empty")
	flag.StringVar(&o.configPath, "config", "", "path to a TOML config file")
	flag.StringVar(&o.logFile, "log-file", "", "path of the log file")
	flag.BoolVar(&o.debug, "debug", false, "log debug messages")
	flag.StringVar(&o.commentsPath, "comments", "", "TOML file draft comments are kept in (default <repo>/.jjreview/comments.toml)")
	flag.StringVar(&o.coveragePath, "coverage", "", "Go cover profile shown next to the diff")
	flag.StringVar(&o.at, "at", "", "open at path[:line[:left|right]]")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: jjreview [flags] [base]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("jjreview %s (%s)\n", version, commit)
		return
	}
	o.base = "HEAD"
	if flag.NArg() > 0 {
		o.base = flag.Arg(0)
	}

	if err := run(context.Background(), o); err != nil {
		fmt.Fprintln(os.Stderr, "jjreview:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, warnings, err := config.LoadFile(o.configPath)
	if err != nil {
		return err
	}
	config.Current = cfg

	log, closer, logErr := logging.New(logging.Options{File: o.logFile, Debug: o.debug})
	defer closer.Close()
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	log.Debug().Int("color_profile", int(common.ColorProfile())).Msg("starting")

	runner := git.ExecRunner{}
	top, err := runner.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return err
	}
	root := strings.TrimSpace(string(top))

	provider := git.NewProvider(git.ExecRunner{Dir: root}, o.base, o.head)
	provider.WorkTree = root
	stats, err := provider.Files(ctx)
	if err != nil {
		return err
	}

	commentsPath := o.commentsPath
	if commentsPath == "" {
		commentsPath = filepath.Join(root, ".jjreview", "comments.toml")
	}
	store, err := comments.Open(commentsPath)
	if err != nil {
		return err
	}

	providers := host.Providers{Diffs: provider, Blame: provider, Threads: store}
	if o.coveragePath != "" {
		profile, err := coverage.Load(o.coveragePath)
		if err != nil {
			return err
		}
		providers.Coverage = profile
	}

	remoteURL, err := provider.RemoteURL(ctx, cfg.Git.Remote)
	if err != nil {
		log.Warn().Err(err).Msg("blame entries will not link to commits")
	}

	at, err := parseLocation(o.at)
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.New(ui.Options{
		Log:         log,
		Config:      cfg,
		Files:       toFiles(stats, store.Counts()),
		Providers:   providers,
		Comments:    store,
		RemoteURL:   remoteURL,
		InitialPath: at.path,
		InitialLine: at.line,
		InitialSide: at.side,
	}), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	if logErr != nil {
		fmt.Fprintln(os.Stderr, "jjreview: logging disabled:", logErr)
	}
	return nil
}

func toFiles(stats []git.FileStat, counts map[string]int) []filelist.File {
	files := make([]filelist.File, 0, len(stats))
	for _, s := range stats {
		files = append(files, filelist.File{
			Path:          s.Path,
			OldPath:       s.OldPath,
			Status:        s.Status,
			Binary:        s.Binary,
			LinesInserted: s.Inserted,
			LinesDeleted:  s.Deleted,
			Size:          s.Size,
			SizeDelta:     s.SizeDelta,
			Comments:      counts[s.Path],
		})
	}
	return files
}

type location struct {
	path string
	line model.LineNumber
	side model.Side
}

var errBadLocation = errors.New("expected path[:line[:left|right]]")

// parseLocation reads the value of -at.
func parseLocation(value string) (location, error) {
	loc := location{side: model.Right}
	if value == "" {
		return loc, nil
	}
	parts := strings.Split(value, ":")
	loc.path = parts[0]
	if loc.path == "" || len(parts) > 3 {
		return location{}, fmt.Errorf("%q: %w", value, errBadLocation)
	}
	if len(parts) > 1 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			return location{}, fmt.Errorf("%q: %w", value, errBadLocation)
		}
		loc.line = model.LineNumber(n)
	}
	if len(parts) > 2 {
		switch parts[2] {
		case "left":
			loc.side = model.Left
		case "right":
		default:
			return location{}, fmt.Errorf("%q: %w", value, errBadLocation)
		}
	}
	return loc, nil
}
