package config

const (
	defaultConfigPath         = "~/.config/curator/config.toml"
	defaultLogDir             = "~/.local/share/curator/logs"
	defaultManifestPath       = "~/.local/share/curator/manifest.db"
	defaultSubjectPattern     = "Mouse"
	defaultUnmatchedPolicy    = UnmatchedWarn
	defaultCollisionPolicy    = CollisionFail
	defaultContainerExtension = "nwb.json"
	defaultSessionDescription = "Mouse exploring T-maze and linear track"
	defaultSpecies            = "Mus musculus"
	defaultSex                = "U"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Policy names accepted by the [curation] section.
const (
	UnmatchedWarn   = "warn"
	UnmatchedIgnore = "ignore"
	UnmatchedFail   = "fail"

	CollisionFail      = "fail"
	CollisionOverwrite = "overwrite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:       defaultLogDir,
			ManifestPath: defaultManifestPath,
		},
		Discovery: Discovery{
			SubjectPattern: defaultSubjectPattern,
			IncludeHidden:  true,
		},
		Timestamps: Timestamps{
			Extensions: []string{".csv"},
		},
		Curation: Curation{
			Unmatched:  defaultUnmatchedPolicy,
			Collisions: defaultCollisionPolicy,
		},
		Container: Container{
			Extension:          defaultContainerExtension,
			SessionDescription: defaultSessionDescription,
			RequiredRoles:      []string{"imaging"},
			Species:            defaultSpecies,
			Sex:                defaultSex,
			Imaging: Imaging{
				SeriesName:        "gcamp",
				DeviceDescription: "Custom, chronically implanted miniscope",
				Description:       "Hippocampus",
				Indicator:         "GFP",
				Location:          "CA1",
				ImagingRate:       25.0,
				EmissionLambda:    520.0,
				ExcitationLambda:  500.0,
				GridSpacing:       []float64{0.83, 0.83},
				GridSpacingUnit:   "micrometers",
				OriginCoords:      []float64{0, 0},
				OriginCoordsUnit:  "micrometers",
				Dimension:         []int{640, 480},
			},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
