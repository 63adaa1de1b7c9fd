package container

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/pipeline"
	"curator/internal/session"
	"curator/internal/timestamps"
)

const stage = "container"

type deviceSpec struct {
	name        string
	description string
}

var behaviorDevices = map[classify.Role]deviceSpec{
	classify.RoleBehaviorLinear: {name: "linear_track", description: "Camera mounted above linear track"},
	classify.RoleBehaviorHome:   {name: "home", description: "Camera mounted above home cage"},
}

const (
	imagingDevice    = "miniscope"
	imagingPlaneName = "ImagingPlane"
)

// Input is everything needed to assemble one session's container.
type Input struct {
	Session session.Session
	// Files is the partition of copied files; names are what the container
	// records.
	Files  classify.Partition
	Series timestamps.Series
}

// Assembler builds containers from curated sessions.
type Assembler struct {
	cfg      config.Container
	subjects SubjectCatalog
	newID    func() string
}

// NewAssembler returns an assembler stamping metadata from cfg. subjects may be nil.
func NewAssembler(cfg config.Container, subjects SubjectCatalog) *Assembler {
	if subjects == nil {
		subjects = SubjectCatalog{}
	}
	return &Assembler{cfg: cfg, subjects: subjects, newID: uuid.NewString}
}

// Assemble builds the container document for one session.
func (a *Assembler) Assemble(in Input) (Document, error) {
	for _, name := range a.cfg.RequiredRoles {
		role := classify.Role(name)
		if in.Files.Count(role) == 0 {
			return Document{}, pipeline.Wrap(pipeline.ErrValidation, stage, "check required streams",
				fmt.Sprintf("session %s has no %s files", in.Session.Key(), role), nil)
		}
	}
	if in.Series.Len() == 0 {
		return Document{}, pipeline.Wrap(pipeline.ErrValidation, stage, "check timestamps",
			fmt.Sprintf("session %s has an empty timestamp series", in.Session.Key()), nil)
	}

	start := in.Series.Start
	if start.IsZero() {
		start = in.Session.StartTime()
	}

	doc := Document{
		Format:        FormatName,
		FormatVersion: FormatVersion,
		Identifier:    a.newID(),
		Session: SessionInfo{
			ID:           in.Session.ID(),
			Description:  fmt.Sprintf("%s for %s on %s at %s", a.cfg.SessionDescription, in.Session.Subject, in.Session.DateToken, in.Session.TimeToken),
			StartTime:    start,
			Experimenter: a.cfg.Experimenter,
			Lab:          a.cfg.Lab,
			Institution:  a.cfg.Institution,
		},
		Subject: a.subjects.Resolve(in.Session.Subject, SubjectInfo{
			Species: a.cfg.Species,
			Sex:     a.cfg.Sex,
			Age:     a.cfg.Age,
		}),
		Devices:       []Device{},
		ImagingPlanes: []ImagingPlane{},
		Timestamps: TimeSeries{
			Name:   TimestampsName,
			Source: filepath.Base(in.Series.Source),
			Unit:   "seconds",
			Data:   append([]float64(nil), in.Series.Offsets...),
		},
		Acquisition: []Stream{},
	}

	for _, role := range in.Files.Streams() {
		names := in.Files.Names(role)
		if role == classify.RoleImaging {
			a.addImaging(&doc, names)
			continue
		}
		dev := behaviorDevices[role]
		doc.Devices = append(doc.Devices, Device{Name: dev.name, Description: dev.description})
		doc.Acquisition = append(doc.Acquisition, Stream{
			Name:          string(role),
			Role:          role,
			NeurodataType: "ImageSeries",
			Format:        "external",
			ExternalFile:  names,
			Device:        dev.name,
			Timestamps:    TimestampsName,
		})
	}

	if len(doc.Acquisition) == 0 {
		return Document{}, pipeline.Wrap(pipeline.ErrValidation, stage, "check streams",
			fmt.Sprintf("session %s has no classified recording files", in.Session.Key()), nil)
	}
	return doc, nil
}

func (a *Assembler) addImaging(doc *Document, names []string) {
	img := a.cfg.Imaging
	doc.Devices = append(doc.Devices, Device{
		Name:         imagingDevice,
		Description:  img.DeviceDescription,
		Manufacturer: img.DeviceManufacturer,
	})
	doc.ImagingPlanes = append(doc.ImagingPlanes, ImagingPlane{
		Name:        imagingPlaneName,
		Description: img.Description,
		Device:      imagingDevice,
		OpticalChannel: OpticalChannel{
			Name:           "OpticalChannel",
			Description:    "One photon channel",
			EmissionLambda: img.EmissionLambda,
		},
		ImagingRate:      img.ImagingRate,
		ExcitationLambda: img.ExcitationLambda,
		Indicator:        img.Indicator,
		Location:         img.Location,
		GridSpacing:      img.GridSpacing,
		GridSpacingUnit:  img.GridSpacingUnit,
		OriginCoords:     img.OriginCoords,
		OriginCoordsUnit: img.OriginCoordsUnit,
	})
	doc.Acquisition = append(doc.Acquisition, Stream{
		Name:          img.SeriesName,
		Role:          classify.RoleImaging,
		NeurodataType: "OnePhotonSeries",
		Format:        "external",
		ExternalFile:  names,
		Device:        imagingDevice,
		ImagingPlane:  imagingPlaneName,
		Dimension:     img.Dimension,
		Timestamps:    TimestampsName,
	})
}

// Encode validates doc against the schema and returns its canonical JSON form.
func Encode(doc Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, stage, "encode document", doc.Session.ID, err)
	}
	if err := ValidateJSON(raw); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, stage, "validate document", doc.Session.ID, err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, stage, "canonicalize document", doc.Session.ID, err)
	}
	return canonical, nil
}

// Write encodes doc and writes it atomically to path. It returns the SHA-256
// hex digest of the written bytes.
func Write(doc Document, path string) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, data); err != nil {
		return "", pipeline.Wrap(pipeline.ErrWrite, stage, "write container", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Read loads a container document written by Write.
func Read(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read container: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, pipeline.Wrap(pipeline.ErrParse, stage, "decode container", path, err)
	}
	if doc.Format != FormatName {
		return Document{}, pipeline.Wrap(pipeline.ErrValidation, stage, "decode container",
			fmt.Sprintf("%s has unexpected format %q", path, doc.Format), nil)
	}
	return doc, nil
}
