package smt

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ParseModel reads a solver's (get-model) response and returns the
// variable assignments it defines. Uses the same participle-based approach
// internal/irtext uses for the textual IR surface syntax, rather than
// hand-rolling an s-expression scanner for what is, after all, just another
// small grammar.
func ParseModel(r io.Reader) (Model, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading model output")
	}
	if len(body) == 0 {
		return Model{}, nil
	}

	file, err := modelParser.ParseBytes("", body)
	if err != nil {
		return nil, errors.Wrap(err, "parsing model s-expression")
	}

	model := Model{}
	for _, e := range file.Entries {
		v, err := resolveModelValue(e.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %s", e.Name)
		}
		model[e.Name] = v
	}
	return model, nil
}

func resolveModelValue(v *modelValue) (ModelValue, error) {
	switch {
	case v.True:
		return ModelValue{IsBool: true, Bool: true}, nil
	case v.False:
		return ModelValue{IsBool: true, Bool: false}, nil
	case v.Neg != nil:
		inner, err := resolveModelValue(v.Neg)
		if err != nil {
			return ModelValue{}, err
		}
		inner.Int = -inner.Int
		return inner, nil
	default:
		n, err := strconv.ParseInt(v.Num, 10, 64)
		if err != nil {
			return ModelValue{}, errors.Wrapf(err, "invalid integer literal %q", v.Num)
		}
		return ModelValue{Int: n}, nil
	}
}
