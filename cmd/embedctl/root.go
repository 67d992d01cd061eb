package main

import (
	"fmt"
	"time"

	"github.com/InQaaaaGit/tweet_embed/internal/app"
	"github.com/InQaaaaGit/tweet_embed/internal/config"
	"github.com/InQaaaaGit/tweet_embed/internal/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions - общие флаги всех команд. Незаданные флаги не меняют
// конфигурацию, прочитанную из окружения и JSON-файла.
type rootOptions struct {
	endpoint   string
	timeout    time.Duration
	delay      time.Duration
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// renderFlags - флаги настроек генерации
type renderFlags struct {
	mode         string
	height       int
	removeBorder bool
	sandbox      bool
	hideOverflow bool
	noCache      bool
	params       models.OEmbedParams
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "embedctl",
		Short:         "Generate embed code for posts via oEmbed",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.endpoint, "endpoint", "e", "", "oEmbed API endpoint (env: OEMBED_ENDPOINT)")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 0, "Provider request timeout (env: FETCH_TIMEOUT)")
	flags.DurationVar(&opts.delay, "delay", 0, "Delay between batch requests (env: BATCH_DELAY)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "JSON config file (env: CONFIG)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newBatchCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// load читает конфигурацию сервиса и применяет поверх неё заданные флаги
func (o *rootOptions) load(cmd *cobra.Command) error {
	var args []string
	if o.configFile != "" {
		args = append(args, "-c", o.configFile)
	}

	cfg, err := config.Parse(args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.OEmbedEndpoint = o.endpoint
	}
	if flags.Changed("timeout") {
		cfg.FetchTimeout = o.timeout
	}
	if flags.Changed("delay") {
		cfg.BatchDelay = o.delay
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg

	o.logger = zap.NewNop()
	if o.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		o.logger = logger
	}
	return nil
}

// deps собирает сервис; вызывающий обязан закрыть результат
func (o *rootOptions) deps(cmd *cobra.Command) (*app.Deps, error) {
	return app.BuildDeps(cmd.Context(), o.cfg, nil, o.logger)
}

func (f *renderFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.mode, "mode", "m", "dataUri", "Render mode: dataUri | srcDoc | blockquote")
	flags.IntVar(&f.height, "height", 0, "Iframe height when the provider returns none (default from DEFAULT_HEIGHT)")
	flags.BoolVar(&f.removeBorder, "remove-border", false, "Add style=\"border:none;\" to the iframe")
	flags.BoolVar(&f.sandbox, "sandbox", false, "Add the sandbox attribute to the iframe")
	flags.BoolVar(&f.hideOverflow, "hide-overflow", false, "Hide scrollbars inside the iframe document")
	flags.BoolVar(&f.noCache, "no-cache", false, "Bypass the oEmbed cache")

	flags.IntVar(&f.params.MaxWidth, "maxwidth", 0, "oEmbed maxwidth")
	flags.BoolVar(&f.params.HideMedia, "hide-media", false, "oEmbed hide_media")
	flags.BoolVar(&f.params.HideThread, "hide-thread", false, "oEmbed hide_thread")
	flags.BoolVar(&f.params.OmitScript, "omit-script", false, "oEmbed omit_script")
	flags.BoolVar(&f.params.DNT, "dnt", false, "oEmbed dnt")
	flags.StringVar(&f.params.Align, "align", "", "oEmbed align: left | right | center | none")
	flags.StringVar(&f.params.Theme, "theme", "", "oEmbed theme: light | dark")
	flags.StringVar(&f.params.Lang, "lang", "", "oEmbed lang")
	flags.StringVar(&f.params.LinkColor, "link-color", "", "oEmbed link_color")
	flags.StringVar(&f.params.Related, "related", "", "oEmbed related")
	flags.StringVar(&f.params.WidgetType, "widget-type", "", "oEmbed widget_type")
}

// options превращает флаги в настройки генерации
func (f *renderFlags) options() (models.Options, error) {
	mode, err := models.ParseMode(f.mode)
	if err != nil {
		return models.Options{}, err
	}

	opts := models.Options{
		DefaultHeight: f.height,
		RemoveBorder:  f.removeBorder,
		Sandbox:       f.sandbox,
		HideOverflow:  f.hideOverflow,
		NoCache:       f.noCache,
		Params:        f.params,
	}
	if mode == models.ModeBlockquote {
		opts.BlockQuoteMode = true
	} else {
		opts.IframeType = mode.String()
	}
	return opts, nil
}
