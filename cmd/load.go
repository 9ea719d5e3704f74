package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wenzapen/page-loader/collect"
	"github.com/wenzapen/page-loader/config"
	"github.com/wenzapen/page-loader/engine"
	"github.com/wenzapen/page-loader/limiter"
	"github.com/wenzapen/page-loader/log"
	"github.com/wenzapen/page-loader/proxy"
	"github.com/wenzapen/page-loader/storage/filestorage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// loadOptions holds the flag values of the root command.
type loadOptions struct {
	configFile string
	flags      config.Config
	rate       float64
	burst      int
	noProgress bool
}

func (o *loadOptions) bindFlags(fs *pflag.FlagSet) {
	d := config.Default()
	cwd, _ := os.Getwd()

	fs.StringVarP(&o.flags.Output, "output", "o", cwd, "directory to save the page into")
	fs.StringVar(&o.configFile, "config", "", "TOML config file")
	fs.IntVar(&o.flags.Workers, "workers", d.Workers, "resources downloaded at the same time")
	fs.DurationVar(&o.flags.Fetcher.Timeout.Duration, "timeout", d.Fetcher.Timeout.Duration, "timeout of a single request")
	fs.IntVar(&o.flags.Fetcher.Retries, "retries", d.Fetcher.Retries, "extra attempts after network errors and 5xx responses")
	fs.StringVar(&o.flags.Fetcher.UserAgent, "user-agent", d.Fetcher.UserAgent, "User-Agent header")
	fs.StringVar(&o.flags.Fetcher.Cookie, "cookie", "", "Cookie header sent with every request")
	fs.StringSliceVar(&o.flags.Fetcher.Proxy, "proxy", nil, "proxy url, repeat to rotate between proxies")
	fs.Float64Var(&o.rate, "rate", 0, "max requests per second, 0 means unlimited")
	fs.IntVar(&o.burst, "burst", 1, "requests allowed in a burst when --rate is set")
	fs.Int64Var(&o.flags.Fetcher.Bandwidth, "max-bandwidth", 0, "max download speed in bytes per second, 0 means unlimited")
	fs.StringVar(&o.flags.LogLevel, "log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&o.flags.LogFile, "log-file", "", "also write logs to this file")
	fs.BoolVar(&o.noProgress, "no-progress", false, "do not show the progress bar")
}

// resolve merges the config file with the flags set on the command line;
// flags win.
func (o *loadOptions) resolve(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return config.Config{}, err
		}
	}

	override := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	override("output", func() { cfg.Output = o.flags.Output })
	override("workers", func() { cfg.Workers = o.flags.Workers })
	override("timeout", func() { cfg.Fetcher.Timeout = o.flags.Fetcher.Timeout })
	override("retries", func() { cfg.Fetcher.Retries = o.flags.Fetcher.Retries })
	override("user-agent", func() { cfg.Fetcher.UserAgent = o.flags.Fetcher.UserAgent })
	override("cookie", func() { cfg.Fetcher.Cookie = o.flags.Fetcher.Cookie })
	override("proxy", func() { cfg.Fetcher.Proxy = o.flags.Fetcher.Proxy })
	override("max-bandwidth", func() { cfg.Fetcher.Bandwidth = o.flags.Fetcher.Bandwidth })
	override("log-level", func() { cfg.LogLevel = o.flags.LogLevel })
	override("log-file", func() { cfg.LogFile = o.flags.LogFile })
	override("no-progress", func() { cfg.Progress = !o.noProgress })

	if cfg.Output == "" {
		cfg.Output = o.flags.Output
	}
	if o.rate < 0 || o.burst < 1 {
		return config.Config{}, fmt.Errorf("rate must not be negative and burst must be positive, got %v and %d", o.rate, o.burst)
	}
	return cfg, cfg.Validate()
}

func (o *loadOptions) run(cmd *cobra.Command, pageURL string) error {
	cfg, err := o.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	logger, closer, err := log.Build(cfg.LogLevel, cfg.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()
	defer logger.Sync() //nolint:errcheck

	var extra []limiter.RateLimiter
	if o.rate > 0 {
		extra = append(extra, rate.NewLimiter(rate.Limit(o.rate), o.burst))
	}
	f, err := newFetcher(cfg.Fetcher, logger, extra...)
	if err != nil {
		return err
	}

	var p engine.Progress
	if cfg.Progress {
		p = engine.NewBarProgress(cmd.ErrOrStderr())
	}

	loader := engine.New(
		engine.WithFetcher(f),
		engine.WithStorage(filestorage.New(filestorage.WithLogger(logger.Named("storage")))),
		engine.WithLogger(logger.Named("loader")),
		engine.WithWorkCount(cfg.Workers),
		engine.WithCookie(cfg.Fetcher.Cookie),
		engine.WithProgress(p),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := loader.Download(ctx, pageURL, cfg.Output)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func newFetcher(cfg config.Fetcher, logger *zap.Logger, extra ...limiter.RateLimiter) (*collect.HTTPFetch, error) {
	f := &collect.HTTPFetch{
		Timeout:   cfg.Timeout.Duration,
		UserAgent: cfg.UserAgent,
		Logger:    logger.Named("fetcher"),
		Retries:   cfg.Retries,
		RetryBase: cfg.RetryBase.Duration,
		Bandwidth: cfg.Bandwidth,
	}

	if len(cfg.Proxy) > 0 {
		p, err := proxy.RoundRobinSwitcher(cfg.Proxy...)
		if err != nil {
			return nil, err
		}
		logger.Info("using proxies", zap.Strings("proxy", cfg.Proxy))
		f.Proxy = p
	}

	limits := extra
	for _, l := range cfg.Limits {
		limits = append(limits, rate.NewLimiter(limiter.Per(l.EventCount, l.EventDuration.Duration), l.Bucket))
	}
	if len(limits) > 0 {
		f.Limit = limiter.Multi(limits...)
	}
	return f, nil
}
