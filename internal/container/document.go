package container

import (
	"path/filepath"
	"time"

	"curator/internal/classify"
)

// FormatName identifies container documents written by this package.
const (
	FormatName    = "curator.nwb+json"
	FormatVersion = "1"
)

// TimestampsName is the name every stream uses to link the shared series.
const TimestampsName = "session_timestamps"

// Document is the serialized container.
type Document struct {
	Format        string         `json:"format"`
	FormatVersion string         `json:"format_version"`
	Identifier    string         `json:"identifier"`
	Session       SessionInfo    `json:"session"`
	Subject       SubjectInfo    `json:"subject"`
	Devices       []Device       `json:"devices"`
	ImagingPlanes []ImagingPlane `json:"imaging_planes"`
	Timestamps    TimeSeries     `json:"timestamps"`
	Acquisition   []Stream       `json:"acquisition"`
}

// SessionInfo describes the recording session.
type SessionInfo struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	StartTime    time.Time `json:"start_time"`
	Experimenter string    `json:"experimenter,omitempty"`
	Lab          string    `json:"lab,omitempty"`
	Institution  string    `json:"institution,omitempty"`
}

// SubjectInfo describes the recorded animal.
type SubjectInfo struct {
	SubjectID   string `json:"subject_id"`
	Species     string `json:"species"`
	Sex         string `json:"sex"`
	Age         string `json:"age,omitempty"`
	Description string `json:"description,omitempty"`
}

// Device is one stream-producing camera or sensor.
type Device struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Manufacturer string `json:"manufacturer,omitempty"`
}

// OpticalChannel describes the imaging emission channel.
type OpticalChannel struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	EmissionLambda float64 `json:"emission_lambda"`
}

// ImagingPlane describes the miniscope field of view.
type ImagingPlane struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Device           string         `json:"device"`
	OpticalChannel   OpticalChannel `json:"optical_channel"`
	ImagingRate      float64        `json:"imaging_rate"`
	ExcitationLambda float64        `json:"excitation_lambda"`
	Indicator        string         `json:"indicator"`
	Location         string         `json:"location"`
	GridSpacing      []float64      `json:"grid_spacing,omitempty"`
	GridSpacingUnit  string         `json:"grid_spacing_unit,omitempty"`
	OriginCoords     []float64      `json:"origin_coords,omitempty"`
	OriginCoordsUnit string         `json:"origin_coords_unit,omitempty"`
}

// TimeSeries is the relative time base shared by all streams.
type TimeSeries struct {
	Name   string    `json:"name"`
	Source string    `json:"source"`
	Unit   string    `json:"unit"`
	Data   []float64 `json:"data"`
}

// Stream is one acquisition stream referencing external files of one role.
type Stream struct {
	Name          string        `json:"name"`
	Role          classify.Role `json:"role"`
	NeurodataType string        `json:"neurodata_type"`
	Format        string        `json:"format"`
	ExternalFile  []string      `json:"external_file"`
	Device        string        `json:"device"`
	ImagingPlane  string        `json:"imaging_plane,omitempty"`
	Dimension     []int         `json:"dimension,omitempty"`
	Timestamps    string        `json:"timestamps"`
}

// FirstFile returns the first external file resolved against the directory
// holding the container, or "" when the stream lists none.
func (s Stream) FirstFile(containerPath string) string {
	if len(s.ExternalFile) == 0 {
		return ""
	}
	return filepath.Join(filepath.Dir(containerPath), s.ExternalFile[0])
}

// Stream returns the acquisition stream with the given name.
func (d Document) Stream(name string) (Stream, bool) {
	for _, s := range d.Acquisition {
		if s.Name == name {
			return s, true
		}
	}
	return Stream{}, false
}

// StreamByRole returns the acquisition stream for role r.
func (d Document) StreamByRole(r classify.Role) (Stream, bool) {
	for _, s := range d.Acquisition {
		if s.Role == r {
			return s, true
		}
	}
	return Stream{}, false
}

// Path returns the container location inside the canonical session directory:
// <output>/sub-<subject>/ses-<id>/sub-<subject>-ses-<id>.<ext>.
func Path(outputDir, subject, sessionID, ext string) string {
	sub := "sub-" + subject
	ses := "ses-" + sessionID
	return filepath.Join(outputDir, sub, ses, sub+"-"+ses+"."+ext)
}
