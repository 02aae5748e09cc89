package mixplan

import (
	"fmt"
	"math"

	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
)

type StemKind string

const (
	PassThrough StemKind = "pass_through"
	Gain        StemKind = "gain"
)

// StemNode is one mixer input, either copied as is or gain adjusted.
type StemNode struct {
	Stem   stem.Name
	Input  int
	Kind   StemKind
	GainDB float64
}

// SumNode adds all inputs at equal weight. Normalize stays off,
// gain staging is left to the limiter.
type SumNode struct {
	Inputs            int
	Duration          string
	DropoutTransition float64
	Normalize         bool
}

// LimiterNode caps peaks after the sum.
type LimiterNode struct {
	Limit      float64
	AttackMs   float64
	ReleaseMs  float64
	AutoLevel  bool
	InputLevel bool
}

// Plan is the signal graph for one remix: four stem nodes into one sum into one limiter.
type Plan struct {
	Target  stem.Name
	GainDB  float64
	Stems   []StemNode
	Sum     SumNode
	Limiter LimiterNode
}

var DefaultLimiter = LimiterNode{
	Limit:      0.95,
	AttackMs:   5,
	ReleaseMs:  50,
	AutoLevel:  true,
	InputLevel: true,
}

func Build(target stem.Name, gainDB float64) (Plan, error) {
	if target.Index() < 0 {
		return Plan{}, remixerr.Validation(fmt.Sprintf("Invalid stem '%s'. Must be one of: %s", target, stem.Valid()))
	}

	if math.IsNaN(gainDB) || math.IsInf(gainDB, 0) || math.Abs(gainDB) > request.MaxGainDB {
		return Plan{}, remixerr.Validation(request.GainRangeMessage)
	}

	nodes := make([]StemNode, 0, len(stem.All))
	for i, name := range stem.All {
		node := StemNode{
			Stem:  name,
			Input: i,
			Kind:  PassThrough,
		}

		if name == target {
			node.Kind = Gain
			node.GainDB = gainDB
		}

		nodes = append(nodes, node)
	}

	return Plan{
		Target: target,
		GainDB: gainDB,
		Stems:  nodes,
		Sum: SumNode{
			Inputs:            len(nodes),
			Duration:          "longest",
			DropoutTransition: 0,
			Normalize:         false,
		},
		Limiter: DefaultLimiter,
	}, nil
}
