package definition

import "github.com/meigma/jagcache/internal/stream"

// Varbit is a bit range within a player variable.
type Varbit struct {
	ID                  int `json:"id"`
	Index               int `json:"index" jsonschema:"description=Player variable holding the bits"`
	LeastSignificantBit int `json:"leastSignificantBit"`
	MostSignificantBit  int `json:"mostSignificantBit"`
}

var varbitTable = Table[Varbit]{
	1: func(r *stream.Reader, v *Varbit) error {
		var err error
		if v.Index, err = r.Uint16(); err != nil {
			return err
		}
		if v.LeastSignificantBit, err = r.Uint8(); err != nil {
			return err
		}
		v.MostSignificantBit, err = r.Uint8()
		return err
	},
}

// LoadVarbit decodes the varbit stored in file id.
func LoadVarbit(id int, b []byte) (*Varbit, error) {
	v := &Varbit{ID: id}
	if err := load(id, b, varbitTable, v); err != nil {
		return nil, err
	}
	return v, nil
}
