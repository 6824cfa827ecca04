// Package config loads the .scenariodoc.yml project file, applies
// environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/gitinfo"
	"github.com/eykd/scenariodoc/internal/writer"
)

// FileName is the project configuration file looked up in the working
// directory.
const FileName = ".scenariodoc.yml"

// RevisionFromGit in the revision field asks for the HEAD commit hash.
const RevisionFromGit = "git"

// Defaults.
const (
	DefaultTargetDir = "scenariodocu"
	DefaultFormat    = "xml"
	DefaultRegion    = "us-east-1"
)

// Config is the documentation run configuration.
type Config struct {
	TargetDir                     string          `yaml:"targetDir"`
	BranchName                    string          `yaml:"branchName"`
	BranchDescription             string          `yaml:"branchDescription,omitempty"`
	BuildName                     string          `yaml:"buildName"`
	Revision                      string          `yaml:"revision,omitempty"`
	Format                        string          `yaml:"format"`
	Schema                        string          `yaml:"schema,omitempty"`
	Disabled                      bool            `yaml:"disabled"`
	CapturePageSource             bool            `yaml:"capturePageSource"`
	ReportStepOnExpectationFailed bool            `yaml:"reportStepOnExpectationFailed"`
	RecordLastStepForStatus       map[string]bool `yaml:"recordLastStepForStatus"`
	Publish                       PublishConfig   `yaml:"publish"`
}

// PublishConfig locates the S3-compatible bucket `sdoc publish` mirrors to.
type PublishConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	UseSSL    bool   `yaml:"useSSL"`
	Prefix    string `yaml:"prefix,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		TargetDir: DefaultTargetDir,
		Format:    DefaultFormat,
		Schema:    string(entity.SchemaCurrent),
		RecordLastStepForStatus: map[string]bool{
			string(entity.StatusFailed): true,
		},
		Publish: PublishConfig{Region: DefaultRegion, UseSSL: true},
	}
}

// Load reads .env (if present), then the config file at path, then the
// SCENARIODOC_* environment. An empty path looks for FileName in the working
// directory and tolerates its absence.
func Load(path string) (Config, error) {
	_ = godotenv.Load()
	return LoadFrom(path, os.Getenv)
}

// LoadFrom is Load with an explicit environment lookup and without .env.
func LoadFrom(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	optional := path == ""
	if optional {
		path = FileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays non-empty SCENARIODOC_* variables onto c.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	flag := func(key string, dst *bool) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = v
	}

	str("SCENARIODOC_TARGET_DIR", &c.TargetDir)
	str("SCENARIODOC_BRANCH", &c.BranchName)
	str("SCENARIODOC_BRANCH_DESCRIPTION", &c.BranchDescription)
	str("SCENARIODOC_BUILD", &c.BuildName)
	str("SCENARIODOC_REVISION", &c.Revision)
	str("SCENARIODOC_FORMAT", &c.Format)
	str("SCENARIODOC_SCHEMA", &c.Schema)
	flag("SCENARIODOC_DISABLED", &c.Disabled)

	str("SCENARIODOC_S3_ENDPOINT", &c.Publish.Endpoint)
	str("SCENARIODOC_S3_REGION", &c.Publish.Region)
	str("SCENARIODOC_S3_ACCESS_KEY", &c.Publish.AccessKey)
	str("SCENARIODOC_S3_SECRET_KEY", &c.Publish.SecretKey)
	str("SCENARIODOC_S3_BUCKET", &c.Publish.Bucket)
	flag("SCENARIODOC_S3_USE_SSL", &c.Publish.UseSSL)
	return errors.Join(errs...)
}

// Validate reports every problem with a run configuration at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TargetDir) == "" {
		errs = append(errs, errors.New("targetDir is required"))
	}
	if strings.TrimSpace(c.BranchName) == "" {
		errs = append(errs, errors.New("branchName is required"))
	}
	if strings.TrimSpace(c.BuildName) == "" {
		errs = append(errs, errors.New("buildName is required"))
	}
	if _, err := writer.CodecFor(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := entity.ParseSchema(c.Schema); err != nil {
		errs = append(errs, err)
	}
	for status := range c.RecordLastStepForStatus {
		if !entity.Status(status).IsKnown() {
			errs = append(errs, fmt.Errorf("recordLastStepForStatus: unknown status %q", status))
		}
	}
	return errors.Join(errs...)
}

// ValidatePublish reports missing bucket settings.
func (c Config) ValidatePublish() error {
	var errs []error
	if c.Publish.Endpoint == "" {
		errs = append(errs, errors.New("publish.endpoint is required"))
	}
	if c.Publish.Bucket == "" {
		errs = append(errs, errors.New("publish.bucket is required"))
	}
	return errors.Join(errs...)
}

// SchemaValue returns the parsed schema, defaulting to current.
func (c Config) SchemaValue() entity.Schema {
	s, err := entity.ParseSchema(c.Schema)
	if err != nil {
		return entity.SchemaCurrent
	}
	return s
}

// LastStepStatuses converts RecordLastStepForStatus to status keys.
func (c Config) LastStepStatuses() map[entity.Status]bool {
	out := make(map[entity.Status]bool, len(c.RecordLastStepForStatus))
	for k, v := range c.RecordLastStepForStatus {
		out[entity.Status(k)] = v
	}
	return out
}

// ResolveGit replaces a revision or branch name of "git" with the HEAD
// commit hash or checked-out branch of the repository enclosing dir.
func (c *Config) ResolveGit(dir string) error {
	if c.Revision == RevisionFromGit {
		rev, err := gitinfo.Revision(dir)
		if err != nil {
			return fmt.Errorf("resolving revision: %w", err)
		}
		c.Revision = rev
	}
	if c.BranchName == RevisionFromGit {
		branch, err := gitinfo.Branch(dir)
		if err != nil {
			return fmt.Errorf("resolving branch: %w", err)
		}
		c.BranchName = branch
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
