package ember

import (
	"strings"

	"github.com/tanema/gween/ease"
)

var easeFuncs = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inquad":       ease.InQuad,
	"outquad":      ease.OutQuad,
	"inoutquad":    ease.InOutQuad,
	"outinquad":    ease.OutInQuad,
	"incubic":      ease.InCubic,
	"outcubic":     ease.OutCubic,
	"inoutcubic":   ease.InOutCubic,
	"outincubic":   ease.OutInCubic,
	"inquart":      ease.InQuart,
	"outquart":     ease.OutQuart,
	"inoutquart":   ease.InOutQuart,
	"outinquart":   ease.OutInQuart,
	"inquint":      ease.InQuint,
	"outquint":     ease.OutQuint,
	"inoutquint":   ease.InOutQuint,
	"outinquint":   ease.OutInQuint,
	"insine":       ease.InSine,
	"outsine":      ease.OutSine,
	"inoutsine":    ease.InOutSine,
	"outinsine":    ease.OutInSine,
	"inexpo":       ease.InExpo,
	"outexpo":      ease.OutExpo,
	"inoutexpo":    ease.InOutExpo,
	"outinexpo":    ease.OutInExpo,
	"incirc":       ease.InCirc,
	"outcirc":      ease.OutCirc,
	"inoutcirc":    ease.InOutCirc,
	"outincirc":    ease.OutInCirc,
	"inelastic":    ease.InElastic,
	"outelastic":   ease.OutElastic,
	"inoutelastic": ease.InOutElastic,
	"outinelastic": ease.OutInElastic,
	"inback":       ease.InBack,
	"outback":      ease.OutBack,
	"inoutback":    ease.InOutBack,
	"outinback":    ease.OutInBack,
	"inbounce":     ease.InBounce,
	"outbounce":    ease.OutBounce,
	"inoutbounce":  ease.InOutBounce,
	"outinbounce":  ease.OutInBounce,
}

// lookupEase finds a gween easing function by name, case-insensitively.
// The empty name is linear.
func lookupEase(name string) (ease.TweenFunc, bool) {
	if name == "" {
		return ease.Linear, true
	}
	fn, ok := easeFuncs[strings.ToLower(name)]
	return fn, ok
}

// evalKeys interpolates size and color at normalized age t. The segment is
// the first key whose time is at or past t and the key before it. Before the
// first key the first key wins; past the last key the last key wins.
func evalKeys(keys []Keyframe, t float32) (float32, Color) {
	if len(keys) == 0 {
		return 1, ColorWhite
	}
	i := 0
	for i < len(keys) && keys[i].Time < t {
		i++
	}
	if i == 0 {
		return keys[0].Size, keys[0].Color
	}
	if i == len(keys) {
		k := keys[len(keys)-1]
		return k.Size, k.Color
	}
	a, b := keys[i-1], keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Size, b.Color
	}
	f := (t - a.Time) / span
	if b.Ease != "" {
		if fn, ok := lookupEase(b.Ease); ok {
			f = fn(f, 0, 1, 1)
		}
	}
	return lerp32(a.Size, b.Size, f), a.Color.Lerp(b.Color, f)
}

// maxKeySize returns the largest keyframe size.
func maxKeySize(keys []Keyframe) float32 {
	var m float32
	for _, k := range keys {
		m = max(m, k.Size)
	}
	return m
}
