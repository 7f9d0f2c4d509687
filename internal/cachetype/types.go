package cachetype

// IndexType identifies an index within the store.
type IndexType int

const (
	IndexFrames       IndexType = 0
	IndexFrameMaps    IndexType = 1
	IndexConfigs      IndexType = 2
	IndexInterfaces   IndexType = 3
	IndexSoundEffects IndexType = 4
	IndexMaps         IndexType = 5
	IndexTrack1       IndexType = 6
	IndexModels       IndexType = 7
	IndexSprites      IndexType = 8
	IndexTextures     IndexType = 9
	IndexBinary       IndexType = 10
	IndexTrack2       IndexType = 11
	IndexClientScript IndexType = 12
	IndexFonts        IndexType = 13
	IndexVorbis       IndexType = 14
	IndexInstruments  IndexType = 15
	IndexWorldMap     IndexType = 16
)

var indexNames = map[IndexType]string{
	IndexFrames:       "frames",
	IndexFrameMaps:    "framemaps",
	IndexConfigs:      "configs",
	IndexInterfaces:   "interfaces",
	IndexSoundEffects: "soundeffects",
	IndexMaps:         "maps",
	IndexTrack1:       "track1",
	IndexModels:       "models",
	IndexSprites:      "sprites",
	IndexTextures:     "textures",
	IndexBinary:       "binary",
	IndexTrack2:       "track2",
	IndexClientScript: "clientscript",
	IndexFonts:        "fonts",
	IndexVorbis:       "vorbis",
	IndexInstruments:  "instruments",
	IndexWorldMap:     "worldmap",
}

func (t IndexType) String() string {
	if name, ok := indexNames[t]; ok {
		return name
	}
	return "unknown"
}

// ConfigType identifies an archive within the configs index.
type ConfigType int

const (
	ConfigUnderlay        ConfigType = 1
	ConfigIdentKit        ConfigType = 3
	ConfigOverlay         ConfigType = 4
	ConfigInv             ConfigType = 5
	ConfigObject          ConfigType = 6
	ConfigEnum            ConfigType = 8
	ConfigNPC             ConfigType = 9
	ConfigItem            ConfigType = 10
	ConfigParams          ConfigType = 11
	ConfigSequence        ConfigType = 12
	ConfigSpotAnim        ConfigType = 13
	ConfigVarbit          ConfigType = 14
	ConfigVarClientString ConfigType = 15
	ConfigVarPlayer       ConfigType = 16
	ConfigVarClient       ConfigType = 19
	ConfigHitSplat        ConfigType = 32
	ConfigHealthBar       ConfigType = 33
	ConfigStruct          ConfigType = 34
	ConfigArea            ConfigType = 35
)
