package definition

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/meigma/jagcache/internal/stream"
)

// ScriptVarType is the type of an enum key or value, stored as a one-byte
// character key.
type ScriptVarType int

// Script variable types. The zero value is an unrecognized key.
const (
	VarTypeUnknown ScriptVarType = iota
	VarTypeInteger
	VarTypeBoolean
	VarTypeSeq
	VarTypeColour
	VarTypeComponent
	VarTypeIDKit
	VarTypeMidi
	VarTypeSynth
	VarTypeStat
	VarTypeCoordGrid
	VarTypeGraphic
	VarTypeFontMetrics
	VarTypeEnum
	VarTypeJingle
	VarTypeLoc
	VarTypeModel
	VarTypeNPC
	VarTypeNamedObj
	VarTypeObj
	VarTypeString
	VarTypeSpotAnim
	VarTypeInv
	VarTypeTexture
	VarTypeChar
	VarTypeMapSceneIcon
	VarTypeMapElement
	VarTypeHitmark
	VarTypeStruct
)

var varTypes = []struct {
	key  rune
	name string
	full string
}{
	VarTypeUnknown:      {0, "", ""},
	VarTypeInteger:      {'i', "INTEGER", "integer"},
	VarTypeBoolean:      {'1', "BOOLEAN", "boolean"},
	VarTypeSeq:          {'A', "SEQ", "seq"},
	VarTypeColour:       {'C', "COLOUR", "colour"},
	VarTypeComponent:    {'I', "COMPONENT", "component"},
	VarTypeIDKit:        {'K', "IDKIT", "idkit"},
	VarTypeMidi:         {'M', "MIDI", "midi"},
	VarTypeSynth:        {'P', "SYNTH", "synth"},
	VarTypeStat:         {'S', "STAT", "stat"},
	VarTypeCoordGrid:    {'c', "COORDGRID", "coordgrid"},
	VarTypeGraphic:      {'d', "GRAPHIC", "graphic"},
	VarTypeFontMetrics:  {'f', "FONTMETRICS", "fontmetrics"},
	VarTypeEnum:         {'g', "ENUM", "enum"},
	VarTypeJingle:       {'j', "JINGLE", "jingle"},
	VarTypeLoc:          {'l', "LOC", "loc"},
	VarTypeModel:        {'m', "MODEL", "model"},
	VarTypeNPC:          {'n', "NPC", "npc"},
	VarTypeNamedObj:     {'O', "NAMEDOBJ", "namedobj"},
	VarTypeObj:          {'o', "OBJ", "obj"},
	VarTypeString:       {'s', "STRING", "string"},
	VarTypeSpotAnim:     {'t', "SPOTANIM", "spotanim"},
	VarTypeInv:          {'v', "INV", "inv"},
	VarTypeTexture:      {'x', "TEXTURE", "texture"},
	VarTypeChar:         {'z', "CHAR", "char"},
	VarTypeMapSceneIcon: {'£', "MAPSCENEICON", "mapsceneicon"},
	VarTypeMapElement:   {'µ', "MAPELEMENT", "mapelement"},
	VarTypeHitmark:      {'×', "HITMARK", "hitmark"},
	VarTypeStruct:       {'J', "STRUCT", "struct"},
}

// VarTypeForKey returns the type whose character key is c, a CP1252 byte.
func VarTypeForKey(c byte) ScriptVarType {
	key := stream.DecodeChar(c)
	for t, v := range varTypes {
		if t != int(VarTypeUnknown) && v.key == key {
			return ScriptVarType(t)
		}
	}
	return VarTypeUnknown
}

// Key returns the character key of t, or 0 for VarTypeUnknown.
func (t ScriptVarType) Key() rune {
	if t < 0 || int(t) >= len(varTypes) {
		return 0
	}
	return varTypes[t].key
}

// FullName returns the lower-case script name of t.
func (t ScriptVarType) FullName() string {
	if t < 0 || int(t) >= len(varTypes) {
		return ""
	}
	return varTypes[t].full
}

func (t ScriptVarType) String() string {
	if t <= VarTypeUnknown || int(t) >= len(varTypes) {
		return "unknown"
	}
	return varTypes[t].name
}

// MarshalJSON encodes t by name, or null when unknown.
func (t ScriptVarType) MarshalJSON() ([]byte, error) {
	if t <= VarTypeUnknown || int(t) >= len(varTypes) {
		return []byte("null"), nil
	}
	return json.Marshal(varTypes[t].name)
}

// JSONSchema describes the encoding produced by MarshalJSON.
func (ScriptVarType) JSONSchema() *jsonschema.Schema {
	names := make([]any, 0, len(varTypes)-1)
	for _, v := range varTypes[1:] {
		names = append(names, v.name)
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Enum: names},
			{Type: "null"},
		},
	}
}
