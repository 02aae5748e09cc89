package mixplan

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	mixedLabel = "mixed"
	OutLabel   = "[out]"
)

// FilterComplex renders the plan in ffmpeg -filter_complex syntax.
// Input i of the plan must be the i-th -i argument.
func (p Plan) FilterComplex() string {
	parts := make([]string, 0, len(p.Stems)+2)
	sumInputs := strings.Builder{}

	for _, node := range p.Stems {
		label := fmt.Sprintf("[s%d]", node.Input)
		sumInputs.WriteString(label)
		parts = append(parts, fmt.Sprintf("[%d:a]%s%s", node.Input, stemFilter(node), label))
	}

	parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=%s:dropout_transition=%s:normalize=%s[%s]",
		sumInputs.String(),
		p.Sum.Inputs,
		p.Sum.Duration,
		formatNumber(p.Sum.DropoutTransition),
		flag(p.Sum.Normalize),
		mixedLabel))

	parts = append(parts, fmt.Sprintf("[%s]alimiter=limit=%s:attack=%s:release=%s:asc=%s:level=%s%s",
		mixedLabel,
		formatNumber(p.Limiter.Limit),
		formatNumber(p.Limiter.AttackMs),
		formatNumber(p.Limiter.ReleaseMs),
		flag(p.Limiter.AutoLevel),
		flag(p.Limiter.InputLevel),
		OutLabel))

	return strings.Join(parts, ";")
}

func stemFilter(node StemNode) string {
	switch node.Kind {
	case Gain:
		return "volume=" + formatNumber(node.GainDB) + "dB"
	default:
		return "acopy"
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
