package jagcache

import (
	"github.com/meigma/jagcache/internal/cachetype"
	"github.com/meigma/jagcache/internal/container"
)

// Re-export types from internal packages for the public API.
type (
	// Compression identifies the codec of a container.
	Compression = cachetype.Compression

	// IndexType identifies a well-known index.
	IndexType = cachetype.IndexType

	// ConfigType identifies an archive of the configs index.
	ConfigType = cachetype.ConfigType

	// Keys is a 128-bit XTEA key as four signed words.
	Keys = container.Keys
)

// Re-export compression constants.
const (
	CompressionNone  = cachetype.CompressionNone
	CompressionBzip2 = cachetype.CompressionBzip2
	CompressionGzip  = cachetype.CompressionGzip
)

// Re-export index ids.
const (
	IndexFrames       = cachetype.IndexFrames
	IndexFrameMaps    = cachetype.IndexFrameMaps
	IndexConfigs      = cachetype.IndexConfigs
	IndexInterfaces   = cachetype.IndexInterfaces
	IndexSoundEffects = cachetype.IndexSoundEffects
	IndexMaps         = cachetype.IndexMaps
	IndexTrack1       = cachetype.IndexTrack1
	IndexModels       = cachetype.IndexModels
	IndexSprites      = cachetype.IndexSprites
	IndexTextures     = cachetype.IndexTextures
	IndexBinary       = cachetype.IndexBinary
	IndexTrack2       = cachetype.IndexTrack2
	IndexClientScript = cachetype.IndexClientScript
	IndexFonts        = cachetype.IndexFonts
	IndexVorbis       = cachetype.IndexVorbis
	IndexInstruments  = cachetype.IndexInstruments
	IndexWorldMap     = cachetype.IndexWorldMap
)

// Re-export config archive ids.
const (
	ConfigUnderlay        = cachetype.ConfigUnderlay
	ConfigIdentKit        = cachetype.ConfigIdentKit
	ConfigOverlay         = cachetype.ConfigOverlay
	ConfigInv             = cachetype.ConfigInv
	ConfigObject          = cachetype.ConfigObject
	ConfigEnum            = cachetype.ConfigEnum
	ConfigNPC             = cachetype.ConfigNPC
	ConfigItem            = cachetype.ConfigItem
	ConfigParams          = cachetype.ConfigParams
	ConfigSequence        = cachetype.ConfigSequence
	ConfigSpotAnim        = cachetype.ConfigSpotAnim
	ConfigVarbit          = cachetype.ConfigVarbit
	ConfigVarClientString = cachetype.ConfigVarClientString
	ConfigVarPlayer       = cachetype.ConfigVarPlayer
	ConfigVarClient       = cachetype.ConfigVarClient
	ConfigHitSplat        = cachetype.ConfigHitSplat
	ConfigHealthBar       = cachetype.ConfigHealthBar
	ConfigStruct          = cachetype.ConfigStruct
	ConfigArea            = cachetype.ConfigArea
)
