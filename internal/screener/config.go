package screener

// Default thresholds for the abyss bottoming pipeline and the forward
// outcome simulator. Every value can be overridden per call through Config,
// a zero field always falls back to its default.
const (
	DefaultLongTermWindow             = 450
	DefaultMinDropPercent             = 0.40
	DefaultPriceLowPercentile         = 0.20
	DefaultVolumeShrinkThreshold      = 0.50
	DefaultVolumeConsistencyWindow    = 30
	DefaultHibernationWindow          = 120
	DefaultHibernationVolatilityMax   = 0.15
	DefaultWashoutWindow              = 60
	DefaultWashoutBreakThreshold      = 0.95
	DefaultMinPitDays                 = 10
	DefaultWashoutVolumeShrinkRatio   = 0.70
	DefaultMaxRiseFromBottom          = 0.05
	DefaultLiftoffVolumeIncreaseRatio = 1.15
	DefaultSuccessThreshold           = 0.05
	DefaultForwardHorizon             = 30

	DefaultEntryLookback  = 5
	DefaultEntryLookahead = 3
)

// volumeConsistencyFraction is the share of bars inside the consistency
// window whose own volume must sit at or below the shrunk reference level.
// A momentary dip is not enough, the quiescence has to be sustained.
const volumeConsistencyFraction = 0.8

// Config carries every tunable threshold of the pipeline and the evaluator.
// All windows are expressed in bars. The struct is passed by value into
// Evaluate and Simulate and is never mutated, there is no package level
// configuration state.
type Config struct {
	LongTermWindow             int     `json:"long_term_window" mapstructure:"long_term_window"`
	MinDropPercent             float64 `json:"min_drop_percent" mapstructure:"min_drop_percent"`
	PriceLowPercentile         float64 `json:"price_low_percentile" mapstructure:"price_low_percentile"`
	VolumeShrinkThreshold      float64 `json:"volume_shrink_threshold" mapstructure:"volume_shrink_threshold"`
	VolumeConsistencyWindow    int     `json:"volume_consistency_window" mapstructure:"volume_consistency_window"`
	HibernationWindow          int     `json:"hibernation_window" mapstructure:"hibernation_window"`
	HibernationVolatilityMax   float64 `json:"hibernation_volatility_max" mapstructure:"hibernation_volatility_max"`
	WashoutWindow              int     `json:"washout_window" mapstructure:"washout_window"`
	WashoutBreakThreshold      float64 `json:"washout_break_threshold" mapstructure:"washout_break_threshold"`
	MinPitDays                 int     `json:"min_pit_days" mapstructure:"min_pit_days"`
	WashoutVolumeShrinkRatio   float64 `json:"washout_volume_shrink_ratio" mapstructure:"washout_volume_shrink_ratio"`
	MaxRiseFromBottom          float64 `json:"max_rise_from_bottom" mapstructure:"max_rise_from_bottom"`
	LiftoffVolumeIncreaseRatio float64 `json:"liftoff_volume_increase_ratio" mapstructure:"liftoff_volume_increase_ratio"`
	SuccessThreshold           float64 `json:"success_threshold" mapstructure:"success_threshold"`
	ForwardHorizon             int     `json:"forward_horizon" mapstructure:"forward_horizon"`
	EntryLookback              int     `json:"entry_lookback" mapstructure:"entry_lookback"`
	EntryLookahead             int     `json:"entry_lookahead" mapstructure:"entry_lookahead"`
}

// DefaultConfig returns a Config with every threshold at its default.
func DefaultConfig() Config {
	return Config{
		LongTermWindow:             DefaultLongTermWindow,
		MinDropPercent:             DefaultMinDropPercent,
		PriceLowPercentile:         DefaultPriceLowPercentile,
		VolumeShrinkThreshold:      DefaultVolumeShrinkThreshold,
		VolumeConsistencyWindow:    DefaultVolumeConsistencyWindow,
		HibernationWindow:          DefaultHibernationWindow,
		HibernationVolatilityMax:   DefaultHibernationVolatilityMax,
		WashoutWindow:              DefaultWashoutWindow,
		WashoutBreakThreshold:      DefaultWashoutBreakThreshold,
		MinPitDays:                 DefaultMinPitDays,
		WashoutVolumeShrinkRatio:   DefaultWashoutVolumeShrinkRatio,
		MaxRiseFromBottom:          DefaultMaxRiseFromBottom,
		LiftoffVolumeIncreaseRatio: DefaultLiftoffVolumeIncreaseRatio,
		SuccessThreshold:           DefaultSuccessThreshold,
		ForwardHorizon:             DefaultForwardHorizon,
		EntryLookback:              DefaultEntryLookback,
		EntryLookahead:             DefaultEntryLookahead,
	}
}

// withDefaults fills every zero field so callers can override any subset of
// thresholds and leave the rest alone.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LongTermWindow <= 0 {
		c.LongTermWindow = d.LongTermWindow
	}
	if c.MinDropPercent <= 0 {
		c.MinDropPercent = d.MinDropPercent
	}
	if c.PriceLowPercentile <= 0 {
		c.PriceLowPercentile = d.PriceLowPercentile
	}
	if c.VolumeShrinkThreshold <= 0 {
		c.VolumeShrinkThreshold = d.VolumeShrinkThreshold
	}
	if c.VolumeConsistencyWindow <= 0 {
		c.VolumeConsistencyWindow = d.VolumeConsistencyWindow
	}
	if c.HibernationWindow <= 0 {
		c.HibernationWindow = d.HibernationWindow
	}
	if c.HibernationVolatilityMax <= 0 {
		c.HibernationVolatilityMax = d.HibernationVolatilityMax
	}
	if c.WashoutWindow <= 0 {
		c.WashoutWindow = d.WashoutWindow
	}
	if c.WashoutBreakThreshold <= 0 {
		c.WashoutBreakThreshold = d.WashoutBreakThreshold
	}
	if c.MinPitDays <= 0 {
		c.MinPitDays = d.MinPitDays
	}
	if c.WashoutVolumeShrinkRatio <= 0 {
		c.WashoutVolumeShrinkRatio = d.WashoutVolumeShrinkRatio
	}
	if c.MaxRiseFromBottom <= 0 {
		c.MaxRiseFromBottom = d.MaxRiseFromBottom
	}
	if c.LiftoffVolumeIncreaseRatio <= 0 {
		c.LiftoffVolumeIncreaseRatio = d.LiftoffVolumeIncreaseRatio
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.ForwardHorizon <= 0 {
		c.ForwardHorizon = d.ForwardHorizon
	}
	if c.EntryLookback <= 0 {
		c.EntryLookback = d.EntryLookback
	}
	if c.EntryLookahead <= 0 {
		c.EntryLookahead = d.EntryLookahead
	}
	return c
}
