package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/config"
	"github.com/eykd/scenariodoc/internal/publish"
)

// PublishIO handles I/O for the publish command.
type PublishIO interface {
	LoadConfig(path string) (config.Config, error)
	// NewStore connects to the bucket described by cfg.
	NewStore(cfg config.PublishConfig) (publish.Store, error)
}

// NewPublishCmd creates the publish subcommand.
func NewPublishCmd(pio PublishIO) *cobra.Command {
	return newPublishCmdWithID(pio, uuid.NewString)
}

func newPublishCmdWithID(pio PublishIO, newID func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "publish [dir]",
		Short:        "Upload a documentation tree to an S3-compatible bucket",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, pio.LoadConfig)
			if err != nil {
				return err
			}
			if err := cfg.ValidatePublish(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			root := cfg.TargetDir
			if len(args) == 1 {
				root = args[0]
			}

			prefix, _ := cmd.Flags().GetString("prefix")
			prefix = firstNonEmpty(prefix, cfg.Publish.Prefix, cfg.BuildName, newID())
			prefix = strings.Trim(prefix, "/")

			store, err := pio.NewStore(cfg.Publish)
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"bucket": cfg.Publish.Bucket, "prefix": prefix}).Debug("publishing")
			names, err := publish.Tree(cmd.Context(), store, prefix, root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d files to %s/%s\n", len(names), cfg.Publish.Bucket, prefix)
			return nil
		},
	}

	cmd.Flags().String("prefix", "", "object key prefix (default: config prefix, then build name, then a random id)")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// filePublishIO implements PublishIO with a minio-backed store.
type filePublishIO struct{}

func newDefaultPublishIO() *filePublishIO {
	return &filePublishIO{}
}

// LoadConfig reads .env, the config file and the environment.
func (f *filePublishIO) LoadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// NewStore builds an S3 store; the bucket is created on first upload.
func (f *filePublishIO) NewStore(cfg config.PublishConfig) (publish.Store, error) {
	return publish.NewS3Store(publish.S3Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	})
}
