package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibe/internal/models"
	"github.com/desertthunder/vibe/internal/player"
	"github.com/desertthunder/vibe/internal/playlist"
	"github.com/desertthunder/vibe/internal/services"
	"github.com/desertthunder/vibe/internal/session"
	"github.com/desertthunder/vibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	adapters     []services.Adapter
	httpClient   *http.Client
	logger       *log.Logger
	output       io.Writer
	open         func(url string) error
	scheduler    shared.Scheduler
	ownsAdapters bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Adapters   []services.Adapter // Built from Config when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Open       func(url string) error // Used by play --open; defaults to [shared.OpenBrowser]
	Scheduler  shared.Scheduler
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Scheduler == nil {
		opts.Scheduler = shared.RealScheduler{}
	}
	owns := opts.Adapters == nil
	if owns {
		opts.Adapters = buildAdapters(opts.Config, opts.HTTPClient, opts.Logger)
	}

	return &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		adapters:     opts.Adapters,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		output:       opts.Output,
		open:         opts.Open,
		scheduler:    opts.Scheduler,
		ownsAdapters: owns,
	}
}

// buildAdapters creates one adapter per known source. Every source is registered so it can serve as the fallback or
// be enabled later; [Runner.enabledSources] decides which ones a search queries.
func buildAdapters(config *shared.Config, client *http.Client, logger *log.Logger) []services.Adapter {
	src := config.Sources
	return []services.Adapter{
		services.NewITunesService(services.ServiceOpts{
			BaseURL:    src.ITunes.BaseURL,
			HTTPClient: client,
			RateLimit:  src.RateLimit,
			Limit:      src.ITunes.Limit,
			Logger:     logger,
		}),
		services.NewJioSaavnService(services.ServiceOpts{
			BaseURL:    src.JioSaavn.BaseURL,
			HTTPClient: client,
			RateLimit:  src.RateLimit,
			Logger:     logger,
		}),
	}
}

// SetLogger replaces the logger used by subsequently created sessions.
//
// Adapters built from the config are rebuilt so they log there too; injected adapters are left alone.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.ownsAdapters {
		r.adapters = buildAdapters(r.config, r.httpClient, l)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, playlistCommand, playCommand, themeCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// enabledSources parses sources.enabled, or the --source flag values when given.
func (r *Runner) enabledSources(names []string) ([]models.Source, error) {
	if len(names) == 0 {
		names = r.config.Sources.Enabled
	}

	sources := make([]models.Source, 0, len(names))
	for _, name := range names {
		src, ok := models.ParseSource(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidFlag, name)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (r *Runner) adapter(src models.Source) services.Adapter {
	for _, a := range r.adapters {
		if a.Source() == src {
			return a
		}
	}
	return nil
}

// sessionOpts describes one session; the zero value uses the configured defaults.
type sessionOpts struct {
	enabled []models.Source
	events  chan<- models.Event
	output  player.Output
	rand    playlist.Rand
	open    bool
	preview time.Duration
}

// newSession wires a [session.Session] from the configuration.
func (r *Runner) newSession(opts sessionOpts) *session.Session {
	cfg := r.config

	enabled := opts.enabled
	if enabled == nil {
		enabled, _ = r.enabledSources(nil)
	}
	fallback, _ := models.ParseSource(cfg.Sources.Fallback)

	if opts.output == nil {
		preview := opts.preview
		if preview <= 0 {
			preview = cfg.Playback.PreviewLength.Duration
		}
		opts.output = player.NewSimulatedOutput(r.scheduler, preview, nil)
	}

	var resolver player.Resolver
	if cfg.Playback.Lookup {
		if a := r.adapter(models.SourceJioSaavn); a != nil {
			resolver = player.NewCrossSourceResolver(a, cfg.Playback.LookupThreshold, cfg.Sources.Timeout.Duration,
				shared.WithLogger(r.logger, "component", "resolver"))
		}
	}

	var open func(string) error
	if opts.open {
		open = r.open
	}

	return session.New(session.Options{
		Adapters:        r.adapters,
		Enabled:         enabled,
		Fallback:        fallback,
		AdapterTimeout:  cfg.Sources.Timeout.Duration,
		Output:          opts.output,
		Resolver:        resolver,
		Scheduler:       r.scheduler,
		Rand:            opts.rand,
		PlaylistLimit:   cfg.Playlist.MaxLength,
		Debounce:        cfg.Search.Debounce.Duration,
		RefreshInterval: cfg.Search.RefreshInterval.Duration,
		Suggestions:     cfg.Search.Suggestions,
		SkipDelay:       cfg.Playback.SkipDelay.Duration,
		EndedDelay:      cfg.Playback.EndedDelay.Duration,
		Events:          opts.events,
		Open:            open,
		Logger:          r.logger,
	})
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
