package tables

import (
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// CustomProgression is a homebrew class slot progression. Levels missing
// from Slots use the closest lower level that is present.
type CustomProgression struct {
	Name  string        `yaml:"name"`
	Slots map[int][]int `yaml:"slots"`
}

// Validate checks the progression
func (p *CustomProgression) Validate() error {
	if p == nil {
		return errors.InvalidArgument("custom progression is required")
	}
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("name", p.Name, vb)
	if p.Name != "" && combat.ParseCasterClass(p.Name) != combat.ClassOther {
		vb.Fieldf("name", "%q already has a standard progression", p.Name)
	}
	if len(p.Slots) == 0 {
		vb.Field("slots", "at least one level is required")
	}
	for level, row := range p.Slots {
		if !inRange(level) {
			vb.Fieldf("slots", "level %d must be between 1 and %d", level, levels)
		}
		if len(row) > combat.MaxSpellLevel {
			vb.Fieldf("slots", "level %d lists %d spell levels, at most %d allowed", level, len(row), combat.MaxSpellLevel)
		}
		for i, m := range row {
			if m < 0 {
				vb.Fieldf("slots", "level %d spell level %d must not be negative", level, i+1)
			}
		}
	}

	return vb.Build()
}

// At returns the maxima for a class level
func (p *CustomProgression) At(level int) slotRow {
	keys := make([]int, 0, len(p.Slots))
	for k := range p.Slots {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out slotRow
	for _, k := range keys {
		if k > level {
			break
		}
		out = slotRow{}
		copy(out[:], p.Slots[k])
	}
	return out
}

type customFile struct {
	Classes []*CustomProgression `yaml:"classes"`
}

// DecodeCustom reads custom progressions from YAML:
//
//	classes:
//	  - name: artificer
//	    slots:
//	      1: [2]
//	      3: [3]
//	      5: [4, 2]
func DecodeCustom(r io.Reader) ([]*CustomProgression, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file customFile
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode custom progressions")
	}
	for _, prog := range file.Classes {
		if err := prog.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Classes, nil
}

// LoadCustomFile registers every progression in a YAML file
func (s *Slots) LoadCustomFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open custom progressions %s", path)
	}
	defer func() { _ = f.Close() }()

	progs, err := DecodeCustom(f)
	if err != nil {
		return 0, err
	}
	for _, prog := range progs {
		if err := s.Register(prog); err != nil {
			return 0, err
		}
	}
	return len(progs), nil
}
