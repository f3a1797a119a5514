package domain

// EffectType identifies a sabotage effect
type EffectType string

const (
	EffectSubtractTime     EffectType = "subtract_time"
	EffectReduceColors     EffectType = "reduce_colors"
	EffectVisualDistortion EffectType = "visual_distortion"
)

const (
	MinIntensity = 1
	MaxIntensity = 10
)

// EffectTypes lists every effect a saboteur can choose
var EffectTypes = []EffectType{EffectSubtractTime, EffectReduceColors, EffectVisualDistortion}

// IsValid reports whether t is a known effect
func (t EffectType) IsValid() bool {
	for _, known := range EffectTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SabotageEffect is the effect stored on the room for the current round
type SabotageEffect struct {
	Type      EffectType `json:"type"`
	Intensity int        `json:"intensity"`
}

// Validate checks the effect type and intensity range
func (e SabotageEffect) Validate() error {
	if !e.Type.IsValid() {
		return ErrInvalidEffect
	}
	if e.Intensity < MinIntensity || e.Intensity > MaxIntensity {
		return ErrInvalidEffect
	}
	return nil
}
