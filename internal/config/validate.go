package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"workers.books":    c.Workers.Books,
		"workers.segments": c.Workers.Segments,
	})
}

func (c *Config) validateSplit() error {
	if c.Split.SegmentSeconds <= 0 {
		return errors.New("split.segment_seconds must be positive")
	}
	switch c.Split.Collisions {
	case CollisionOverwrite, CollisionSuffix:
	default:
		return fmt.Errorf("split.collisions must be %q or %q, got %q", CollisionOverwrite, CollisionSuffix, c.Split.Collisions)
	}
	if strings.ContainsAny(c.Split.Extension, `/\`) {
		return errors.New("split.extension must not contain path separators")
	}
	return nil
}

func (c *Config) validateMerge() error {
	if strings.ContainsAny(c.Merge.OutputExtension, `/\`) {
		return errors.New("merge.output_extension must not contain path separators")
	}
	for _, ext := range c.Merge.Extensions {
		if "."+c.Merge.IntermediateExtension == ext {
			return fmt.Errorf("merge.intermediate_extension %q must differ from merge inputs", c.Merge.IntermediateExtension)
		}
	}
	switch c.Merge.Order {
	case MergeOrderName, MergeOrderTrack:
	default:
		return fmt.Errorf("merge.order must be %q or %q, got %q", MergeOrderName, MergeOrderTrack, c.Merge.Order)
	}
	return nil
}

func (c *Config) validateLogging() error {
	for key, value := range map[string]string{
		"logging.level":         c.Logging.Level,
		"logging.console_level": c.Logging.ConsoleLevel,
	} {
		switch value {
		case "debug", "info", "warn", "error":
		default:
			return fmt.Errorf("%s must be one of debug, info, warn, error (got %q)", key, value)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
