package definition

import (
	"github.com/meigma/jagcache/internal/stream"
)

// Enum maps integer keys to string or integer values.
type Enum struct {
	ID            int           `json:"id"`
	KeyType       ScriptVarType `json:"keyType"`
	ValType       ScriptVarType `json:"valType"`
	DefaultString string        `json:"defaultString"`
	DefaultInt    int           `json:"defaultInt"`
	Size          int           `json:"size"`
	Keys          []int         `json:"keys,omitempty"`
	IntVals       []int         `json:"intVals,omitempty" jsonschema:"description=Values of an integer enum parallel to keys"`
	StringVals    []string      `json:"stringVals,omitempty" jsonschema:"description=Values of a string enum parallel to keys"`
}

var enumTable = Table[Enum]{
	1: varType(func(e *Enum, t ScriptVarType) { e.KeyType = t }),
	2: varType(func(e *Enum, t ScriptVarType) { e.ValType = t }),
	3: String(cstring, func(e *Enum, s string) { e.DefaultString = s }),
	4: Int(i32, func(e *Enum, v int) { e.DefaultInt = v }),
	5: func(r *stream.Reader, e *Enum) error {
		n, err := r.Uint16()
		if err != nil {
			return err
		}
		e.Size = n
		e.Keys = make([]int, n)
		e.StringVals = make([]string, n)
		for i := range n {
			if e.Keys[i], err = r.Int32(); err != nil {
				return err
			}
			if e.StringVals[i], err = r.CString(); err != nil {
				return err
			}
		}
		return nil
	},
	6: func(r *stream.Reader, e *Enum) error {
		n, err := r.Uint16()
		if err != nil {
			return err
		}
		e.Size = n
		e.Keys = make([]int, n)
		e.IntVals = make([]int, n)
		for i := range n {
			if e.Keys[i], err = r.Int32(); err != nil {
				return err
			}
			if e.IntVals[i], err = r.Int32(); err != nil {
				return err
			}
		}
		return nil
	},
}

func varType(set func(*Enum, ScriptVarType)) Field[Enum] {
	return func(r *stream.Reader, e *Enum) error {
		c, err := r.Uint8()
		if err != nil {
			return err
		}
		set(e, VarTypeForKey(byte(c)))
		return nil
	}
}

// IsPlaceholder reports whether b is an empty placeholder record: a lone
// terminator. Such files pad the enum archive and are not real enums.
func IsPlaceholder(b []byte) bool {
	return len(b) == 1 && b[0] == 0
}

// LoadEnum decodes the enum stored in file id.
func LoadEnum(id int, b []byte) (*Enum, error) {
	e := &Enum{ID: id, DefaultString: "null"}
	if err := load(id, b, enumTable, e); err != nil {
		return nil, err
	}
	return e, nil
}
