package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pathway/internal/calendar"
	"github.com/roach88/pathway/internal/progress"
)

//go:embed schema.cue
var schemaCUE string

// LoadError is a catalog problem with its CUE position when known.
type LoadError struct {
	Sequence string
	Message  string
	Pos      token.Pos
}

func (e *LoadError) Error() string {
	prefix := ""
	if e.Pos.IsValid() {
		prefix = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Sequence != "" {
		return fmt.Sprintf("%ssequence %q: %s", prefix, e.Sequence, e.Message)
	}
	return prefix + e.Message
}

// rawSequence mirrors #Sequence for decoding.
type rawSequence struct {
	Kind              string            `json:"kind"`
	Title             string            `json:"title"`
	TotalItems        int               `json:"total_items"`
	WindowStart       string            `json:"window_start"`
	WindowEnd         string            `json:"window_end"`
	StreakGroup       string            `json:"streak_group"`
	ExcludeFromStreak bool              `json:"exclude_from_streak"`
	Content           map[string]string `json:"content"`
}

// LoadDir loads every .cue file in dir as one CUE package.
func LoadDir(dir string) (*Memory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog directory: not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan catalog directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	return decode(ctx, value)
}

// Parse loads a catalog from CUE source.
func Parse(filename, src string) (*Memory, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	return decode(ctx, value)
}

func decode(ctx *cue.Context, value cue.Value) (*Memory, error) {
	if err := value.Err(); err != nil {
		return nil, formatCUEError("", err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	sequenceSchema := schema.LookupPath(cue.ParsePath("#Sequence"))

	seqs := value.LookupPath(cue.ParsePath("sequence"))
	if !seqs.Exists() {
		return nil, &LoadError{Message: "no sequences found (expected a top-level `sequence` struct)", Pos: value.Pos()}
	}

	iter, err := seqs.Fields()
	if err != nil {
		return nil, formatCUEError("", err)
	}

	var (
		defs    []progress.SequenceDefinition
		content = map[string]map[string]string{}
	)
	for iter.Next() {
		id := iter.Selector().Unquoted()
		v := sequenceSchema.Unify(iter.Value())
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, formatCUEError(id, err)
		}

		var raw rawSequence
		if err := v.Decode(&raw); err != nil {
			return nil, formatCUEError(id, err)
		}

		def, err := raw.definition(id)
		if err != nil {
			return nil, &LoadError{Sequence: id, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		defs = append(defs, def)
		if len(raw.Content) > 0 {
			content[id] = raw.Content
		}
	}

	m, err := NewMemory(defs...)
	if err != nil {
		return nil, err
	}
	for id, items := range content {
		for key, text := range items {
			n, err := strconv.Atoi(key)
			if err != nil {
				return nil, &LoadError{Sequence: id, Message: fmt.Sprintf("content key %q is not an item number", key)}
			}
			m.SetContent(id, n, text)
		}
	}
	return m, nil
}

func (r rawSequence) definition(id string) (progress.SequenceDefinition, error) {
	def := progress.SequenceDefinition{
		ID:                id,
		Kind:              progress.Kind(r.Kind),
		Title:             r.Title,
		TotalItems:        r.TotalItems,
		StreakGroup:       r.StreakGroup,
		ExcludeFromStreak: r.ExcludeFromStreak,
	}
	if r.WindowStart != "" {
		d, err := calendar.ParseDate(r.WindowStart)
		if err != nil {
			return def, fmt.Errorf("window_start: %w", err)
		}
		def.WindowStart = &d
	}
	if r.WindowEnd != "" {
		d, err := calendar.ParseDate(r.WindowEnd)
		if err != nil {
			return def, fmt.Errorf("window_end: %w", err)
		}
		def.WindowEnd = &d
	}
	if err := Validate(def); err != nil {
		return def, err
	}
	return def, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(sequence string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Sequence: sequence, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Sequence: sequence, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
