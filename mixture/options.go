package mixture

import (
	"strings"

	"github.com/YuminosukeSato/remgo/pkg/config"
	"github.com/YuminosukeSato/remgo/pkg/errors"
	"github.com/YuminosukeSato/remgo/pkg/log"
	"github.com/YuminosukeSato/remgo/rem"
)

// Variant selects how component imputations interact.
type Variant int

const (
	// Shared merges the K imputations into one consensus dataset that every
	// component maximizes on.
	Shared Variant = iota
	// Semi keeps each component's imputed dataset independent; predictions
	// are combined only at execution time.
	Semi
)

func (v Variant) String() string {
	if v == Semi {
		return "semi"
	}
	return "shared"
}

// ParseVariant accepts "shared" (or "default") and "semi".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared", "default", "":
		return Shared, nil
	case "semi":
		return Semi, nil
	default:
		return Shared, errors.NewValidationError(config.MixtureVariantKey, "unknown mixture variant", s)
	}
}

// Options configure a Coordinator.
type Options struct {
	Components int
	Variant    Variant
	// Weighted passes responsibilities to every M-step.
	Weighted bool
	// Seed for initialization; negative means time-based.
	Seed int64
	// MaxRetries bounds the duplicate-avoidance loop per component.
	MaxRetries int
	Driver     []rem.Option
	Logger     log.Logger
}

// DefaultOptions returns the defaults used when no option is given.
func DefaultOptions() Options {
	return Options{
		Components: 2,
		Variant:    Shared,
		Seed:       -1,
		MaxRetries: 50,
	}
}

// Option is a function that configures a Coordinator.
type Option func(*Options)

func WithComponents(k int) Option {
	return func(o *Options) { o.Components = k }
}

func WithVariant(v Variant) Option {
	return func(o *Options) { o.Variant = v }
}

func WithWeighted(weighted bool) Option {
	return func(o *Options) { o.Weighted = weighted }
}

func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithDriverOptions configures every component driver. Variance estimation
// is always enabled for components regardless of these options.
func WithDriverOptions(opts ...rem.Option) Option {
	return func(o *Options) { o.Driver = append(o.Driver, opts...) }
}

func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// OptionsFromConfig reads the mixture_* keys, and the rem_* keys for the
// component drivers.
func OptionsFromConfig(store config.Store) ([]Option, error) {
	def := DefaultOptions()
	variant, err := ParseVariant(store.GetString(config.MixtureVariantKey, def.Variant.String()))
	if err != nil {
		return nil, err
	}
	driverOpts, err := rem.OptionsFromConfig(store)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithComponents(store.GetInt(config.MixtureComponentsKey, def.Components)),
		WithVariant(variant),
		WithWeighted(store.GetBool(config.MixtureWeightedKey, def.Weighted)),
		WithSeed(int64(store.GetInt(config.MixtureSeedKey, int(def.Seed)))),
		WithMaxRetries(store.GetInt(config.MixtureMaxRetriesKey, def.MaxRetries)),
		WithDriverOptions(driverOpts...),
	}, nil
}

func (o Options) validate() error {
	if o.Components < 1 {
		return errors.NewValidationError(config.MixtureComponentsKey, "must be at least 1", o.Components)
	}
	if o.MaxRetries < 0 {
		return errors.NewValidationError(config.MixtureMaxRetriesKey, "must be non-negative", o.MaxRetries)
	}
	if o.Variant != Shared && o.Variant != Semi {
		return errors.NewValidationError(config.MixtureVariantKey, "unknown mixture variant", int(o.Variant))
	}
	return nil
}
