package sessiongate

import (
	"errors"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sessiongate-io/sessiongate/cookie"
	"github.com/sessiongate-io/sessiongate/session"
)

// Builder assembles a [Gateway]. A Builder is single-use: Build consumes it.
type Builder struct {
	config Config

	redis    redis.UniversalClient
	registry Registry

	validator CredentialValidator
	contexts  ContextProvider
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the bundled registry. Ignored
// when WithRegistry is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRegistry substitutes a custom session registry for the bundled
// Redis-backed one.
func (b *Builder) WithRegistry(reg Registry) *Builder {
	b.registry = reg
	return b
}

// WithValidator supplies the credential validator. Required.
func (b *Builder) WithValidator(v CredentialValidator) *Builder {
	b.validator = v
	return b
}

// WithContextProvider supplies the tenant-context state source. Optional;
// without one every context is treated as enabled.
func (b *Builder) WithContextProvider(p ContextProvider) *Builder {
	b.contexts = p
	return b
}

// WithAuditSink supplies the audit event consumer. Only consulted when audit
// is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the structured logger. Defaults to a discarding logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the counter set.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the collaborators, and returns a
// ready Gateway. The action table and allow-list are frozen here and never
// change afterwards.
func (b *Builder) Build() (*Gateway, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.validator == nil {
		return nil, errors.New("credential validator required")
	}

	registry := b.registry
	if registry == nil {
		if b.redis == nil {
			return nil, errors.New("redis client required when no registry is provided")
		}
		registry = session.NewStore(
			b.redis,
			cfg.Registry.KeyPrefix,
			cfg.Registry.SessionLifetime,
			cfg.Registry.RandomTokenTTL,
		)
	}

	ipcheck, err := newIPChecker(cfg.IPCheck)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	g := &Gateway{
		config:    cfg,
		registry:  registry,
		validator: b.validator,
		contexts:  b.contexts,
		cookies:   cookie.NewManager(cfg.Cookie.TTL, cfg.Cookie.Autologin, cfg.Cookie.ForceHTTPS),
		hasher:    cookie.NewCalculator(cfg.Cookie.HashSource, cfg.Cookie.HashUserAgent),
		ipcheck:   ipcheck,
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
		log:       logger,
	}
	g.actions = g.actionTable()

	b.built = true

	return g, nil
}
