package config

import (
	"errors"
	"fmt"
	"regexp"
)

var knownRoles = map[string]struct{}{
	"imaging":         {},
	"behavior_linear": {},
	"behavior_home":   {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateCuration(); err != nil {
		return err
	}
	if err := c.validateContainer(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if _, err := regexp.Compile(c.Discovery.SubjectPattern); err != nil {
		return fmt.Errorf("discovery.subject_pattern is not a valid regular expression: %w", err)
	}
	return nil
}

func (c *Config) validateCuration() error {
	switch c.Curation.Unmatched {
	case UnmatchedWarn, UnmatchedIgnore, UnmatchedFail:
	default:
		return fmt.Errorf("curation.unmatched must be one of warn, ignore, fail (got %q)", c.Curation.Unmatched)
	}
	switch c.Curation.Collisions {
	case CollisionFail, CollisionOverwrite:
	default:
		return fmt.Errorf("curation.collisions must be one of fail, overwrite (got %q)", c.Curation.Collisions)
	}
	return nil
}

func (c *Config) validateContainer() error {
	for _, role := range c.Container.RequiredRoles {
		if _, ok := knownRoles[role]; !ok {
			return fmt.Errorf("container.required_roles: unknown role %q", role)
		}
	}
	img := c.Container.Imaging
	if img.ImagingRate <= 0 {
		return errors.New("container.imaging.imaging_rate must be positive")
	}
	if img.EmissionLambda <= 0 || img.ExcitationLambda <= 0 {
		return errors.New("container.imaging emission_lambda and excitation_lambda must be positive")
	}
	if len(img.Dimension) != 0 && len(img.Dimension) != 2 {
		return errors.New("container.imaging.dimension must have exactly two values")
	}
	for _, d := range img.Dimension {
		if d <= 0 {
			return errors.New("container.imaging.dimension values must be positive")
		}
	}
	if len(img.GridSpacing) != 0 && len(img.GridSpacing) != 2 {
		return errors.New("container.imaging.grid_spacing must have exactly two values")
	}
	if len(img.OriginCoords) != 0 && len(img.OriginCoords) != 2 {
		return errors.New("container.imaging.origin_coords must have exactly two values")
	}
	return nil
}
