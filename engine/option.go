package engine

import (
	"github.com/wenzapen/page-loader/collect"
	"github.com/wenzapen/page-loader/parse"
	"github.com/wenzapen/page-loader/storage"
	"github.com/wenzapen/page-loader/storage/filestorage"
	"go.uber.org/zap"
)

type Option func(opts *options)

type options struct {
	WorkCount int
	Cookie    string
	Fetcher   collect.Fetcher
	Storage   storage.Storage
	Logger    *zap.Logger
	Progress  Progress
	Rules     []parse.AssetRule
}

var DefaultOptions = options{
	WorkCount: 8,
	Logger:    zap.NewNop(),
	Progress:  nopProgress{},
	Rules:     parse.DefaultRules,
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}

func WithStorage(s storage.Storage) Option {
	return func(opts *options) {
		opts.Storage = s
	}
}

// WithWorkCount bounds the number of resources downloaded at the same time.
func WithWorkCount(c int) Option {
	return func(opts *options) {
		opts.WorkCount = c
	}
}

func WithFetcher(fetcher collect.Fetcher) Option {
	return func(opts *options) {
		opts.Fetcher = fetcher
	}
}

// WithCookie sends cookie with the page request and every resource request.
func WithCookie(cookie string) Option {
	return func(opts *options) {
		opts.Cookie = cookie
	}
}

func WithProgress(p Progress) Option {
	return func(opts *options) {
		opts.Progress = p
	}
}

// WithRules replaces the tag/attribute pairs whose resources are downloaded.
func WithRules(rules ...parse.AssetRule) Option {
	return func(opts *options) {
		opts.Rules = rules
	}
}

func (o *options) complete() {
	if o.Fetcher == nil {
		o.Fetcher = &collect.HTTPFetch{Logger: o.Logger}
	}
	if o.Storage == nil {
		o.Storage = filestorage.New(filestorage.WithLogger(o.Logger))
	}
	if o.WorkCount < 1 {
		o.WorkCount = 1
	}
	if o.Progress == nil {
		o.Progress = nopProgress{}
	}
}
