package definition

import (
	"github.com/meigma/jagcache/internal/stream"
)

// Struct is a bag of typed parameters.
type Struct struct {
	ID     int         `json:"id"`
	Params map[int]any `json:"params,omitempty" jsonschema:"description=Parameter values keyed by param id; strings or integers"`
}

var structTable = Table[Struct]{
	249: func(r *stream.Reader, s *Struct) error {
		params, err := readParams(r)
		if err != nil {
			return err
		}
		s.Params = params
		return nil
	},
}

// readParams reads a parameter block: a count, then per entry a string flag,
// a 24-bit key and the string or integer value.
func readParams(r *stream.Reader) (map[int]any, error) {
	n, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	params := make(map[int]any, n)
	for range n {
		isString, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		key, err := r.Uint24()
		if err != nil {
			return nil, err
		}
		if isString == 1 {
			s, err := r.CString()
			if err != nil {
				return nil, err
			}
			params[key] = s
			continue
		}
		v, err := r.Int32()
		if err != nil {
			return nil, err
		}
		params[key] = v
	}
	return params, nil
}

// LoadStruct decodes the struct stored in file id.
func LoadStruct(id int, b []byte) (*Struct, error) {
	s := &Struct{ID: id}
	if err := load(id, b, structTable, s); err != nil {
		return nil, err
	}
	return s, nil
}
