// Package config defines the closed set of pipeline options. Unknown
// YAML keys and unrecognized enum values are rejected at load time
// rather than silently ignored.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the recognized configuration record. Zero values are
// replaced by documented defaults via Default / ApplyDefaults.
type Options struct {
	ImputationStrategy    string              `yaml:"imputation_strategy"`
	OutlierDetector       string              `yaml:"outlier_detector"`
	EncodingSchemeOrdinal string              `yaml:"encoding_scheme_ordinal"`
	EncodingSchemeNominal string              `yaml:"encoding_scheme_nominal"`
	ScalerChoice          string              `yaml:"scaler_choice"`
	SmoteVariant          string              `yaml:"smote_variant"`
	ArtifactPath          string              `yaml:"artifact_paths"`
	TestRatio             float64             `yaml:"test_ratio"`
	RandomSeed            int64               `yaml:"random_seed"`
	ScaleOneHot           bool                `yaml:"scale_onehot"`
	InverseTransform      bool                `yaml:"inverse_transform"`
	MissingDropThreshold  float64             `yaml:"missing_drop_threshold"`
	OrdinalLevels         map[string][]string `yaml:"ordinal_levels"`
	IgnoredColumns        []string            `yaml:"ignored_columns"`
}

// Default returns the documented defaults.
func Default() Options {
	return Options{
		ImputationStrategy:    "median",
		OutlierDetector:       "iqr",
		EncodingSchemeOrdinal: "ordinal",
		EncodingSchemeNominal: "onehot",
		ScalerChoice:          "standard",
		SmoteVariant:          "smote",
		ArtifactPath:          "artifacts",
		TestRatio:             0.2,
		RandomSeed:            42,
		InverseTransform:      true,
		MissingDropThreshold:  0.3,
	}
}

// ApplyDefaults fills unset string and ratio fields with defaults.
func (o *Options) ApplyDefaults() {
	d := Default()
	if o.ImputationStrategy == "" {
		o.ImputationStrategy = d.ImputationStrategy
	}
	if o.OutlierDetector == "" {
		o.OutlierDetector = d.OutlierDetector
	}
	if o.EncodingSchemeOrdinal == "" {
		o.EncodingSchemeOrdinal = d.EncodingSchemeOrdinal
	}
	if o.EncodingSchemeNominal == "" {
		o.EncodingSchemeNominal = d.EncodingSchemeNominal
	}
	if o.ScalerChoice == "" {
		o.ScalerChoice = d.ScalerChoice
	}
	if o.SmoteVariant == "" {
		o.SmoteVariant = d.SmoteVariant
	}
	if o.ArtifactPath == "" {
		o.ArtifactPath = d.ArtifactPath
	}
	if o.TestRatio == 0 {
		o.TestRatio = d.TestRatio
	}
	if o.MissingDropThreshold == 0 {
		o.MissingDropThreshold = d.MissingDropThreshold
	}
}

var enumFields = []struct {
	name    string
	get     func(*Options) string
	allowed []string
}{
	{"imputation_strategy", func(o *Options) string { return o.ImputationStrategy }, []string{"mean", "median", "mode"}},
	{"outlier_detector", func(o *Options) string { return o.OutlierDetector }, []string{"zscore", "iqr", "isolation_forest", "none"}},
	{"encoding_scheme_ordinal", func(o *Options) string { return o.EncodingSchemeOrdinal }, []string{"ordinal"}},
	{"encoding_scheme_nominal", func(o *Options) string { return o.EncodingSchemeNominal }, []string{"onehot"}},
	{"scaler_choice", func(o *Options) string { return o.ScalerChoice }, []string{"standard", "minmax", "robust"}},
	{"smote_variant", func(o *Options) string { return o.SmoteVariant }, []string{"smote", "random_oversample", "none"}},
}

// Validate rejects unrecognized enum values and out-of-range ratios.
func (o *Options) Validate() error {
	for _, f := range enumFields {
		v := f.get(o)
		ok := false
		for _, a := range f.allowed {
			if v == a {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("option %s: unrecognized value %q (allowed: %v)", f.name, v, f.allowed)
		}
	}
	if o.TestRatio <= 0 || o.TestRatio >= 1 {
		return fmt.Errorf("option test_ratio: %v not in (0, 1)", o.TestRatio)
	}
	if o.MissingDropThreshold < 0 || o.MissingDropThreshold > 1 {
		return fmt.Errorf("option missing_drop_threshold: %v not in [0, 1]", o.MissingDropThreshold)
	}
	return nil
}

// Load reads an options file. Unknown keys are an error.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes options from YAML with strict key checking.
func Parse(data []byte) (Options, error) {
	var o Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		return Options{}, fmt.Errorf("parse config: %w", err)
	}
	o.ApplyDefaults()
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}
