package authcase

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrazmi/taskdeck/sdk/environment"
)

// Config is the exportable auth configuration.
type Config struct {
	Secret     string        `env:"AUTH_JWT_SECRET" required:"true"`
	Issuer     string        `env:"AUTH_JWT_ISSUER" default:"taskdeck"`
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" default:"168h"`
	BcryptCost int           `env:"AUTH_BCRYPT_COST" default:"10"`
}

type options struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	bcryptCost int
	now        func() time.Time
}

// Option configures the auth use case.
type Option func(*options)

func WithSecret(secret string) Option {
	return func(o *options) {
		o.secret = []byte(secret)
	}
}

func WithIssuer(issuer string) Option {
	return func(o *options) {
		o.issuer = issuer
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.sessionTTL = ttl
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Options converts cfg into Options.
func (cfg Config) Options() []Option {
	return []Option{
		WithSecret(cfg.Secret),
		WithIssuer(cfg.Issuer),
		WithSessionTTL(cfg.SessionTTL),
		WithBcryptCost(cfg.BcryptCost),
	}
}

// LoadConfig reads Config from prefix_AUTH_* variables.
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if err := environment.ParseEnvTags(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing auth config: %w", err)
	}
	return cfg, nil
}

func buildOptions(opts []Option) (*options, error) {
	o := &options{
		issuer:     "taskdeck",
		sessionTTL: 7 * 24 * time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	if o.sessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if o.bcryptCost < bcrypt.MinCost || o.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return o, nil
}
