package generator

import (
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"architect/internal/domain"
)

// Response shapes. Sub-scores and confidence are range-checked here so that
// out-of-range numbers surface as ErrMalformedResponse instead of reaching
// the scoring engine.
const schemaSource = `
#Unit: number & >=0 & <=1

#Score: {
	alignment:   #Unit
	feasibility: #Unit
	impact:      #Unit
	novelty:     #Unit
	totalScore:  number
	decision:    "START" | "STOP"
	rationale:   string
	...
}

#Variant: {
	title:            string
	hook:             string
	format:           string
	length:           string
	suggested_cta:    string
	tags: [...string]
	confidence_score: #Unit
	...
}

#Variants: [...#Variant]

#Brief: {
	storyboard: [...string]
	assetsList: [...string]
	shotList: [...string]
	editNotes: string
	...
}
`

// schemas serialises access to the cue context, which is not safe for
// concurrent use.
type schemas struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

func compileSchemas() (*schemas, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("generator.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile generator schemas: %w", err)
	}
	return &schemas{ctx: ctx, root: root}, nil
}

// validate checks raw JSON against the named definition (for example "#Score").
func (s *schemas) validate(def string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expr, err := cuejson.Extract("response.json", raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	data := s.ctx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	v := s.root.LookupPath(cue.ParsePath(def)).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, def, err)
	}
	return nil
}

func (s *schemas) decodeScore(raw []byte) (domain.CDFScore, error) {
	var out domain.CDFScore
	if err := s.decode("#Score", raw, &out); err != nil {
		return domain.CDFScore{}, err
	}
	return out, nil
}

func (s *schemas) decodeVariants(raw []byte) ([]domain.Variant, error) {
	out := []domain.Variant{}
	if err := s.decode("#Variants", raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Variant{}
	}
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out, nil
}

func (s *schemas) decodeBrief(raw []byte) (domain.ProductionBrief, error) {
	var out domain.ProductionBrief
	if err := s.decode("#Brief", raw, &out); err != nil {
		return domain.ProductionBrief{}, err
	}
	return out, nil
}

func (s *schemas) decode(def string, raw []byte, dst any) error {
	if err := s.validate(def, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
