package check

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
	"github.com/mpapenbr/go-dashsim/pkg/util"
	"github.com/mpapenbr/go-dashsim/version"
)

func NewSchemaCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "check if dashsim is compatible with a session store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCompatibility(cmd.Context(), config.DefaultCliArgs())
		},
	}
	cmd.Flags().StringVar(&config.DefaultCliArgs().StoreFile,
		"store",
		"",
		"sqlite store")
	//nolint:errcheck // flag exists
	cmd.MarkFlagRequired("store")
	return cmd
}

func checkCompatibility(ctx context.Context, cfg *config.CliArgs) error {
	logger := log.FromContextOrDefault(ctx)

	logger.Debug("Starting...", log.String("store", cfg.StoreFile))
	schema, err := store.InspectSchema(ctx, cfg.StoreFile)
	if err != nil {
		logger.Error("error reading store schema", log.ErrorField(err))
		return err
	}
	compatible := util.CheckSchemaVersion(schema, version.SchemaVersion)
	logger.Debug("Compatibility check done",
		log.String("this-dashsim-version", version.Version),
		log.String("store-schema", schema),
		log.String("supported-schema", version.SchemaVersion),
		log.Bool("compatible", compatible),
	)
	fmt.Printf(`
Dashsim version     : v%s
Store schema        : %s
Supported schema    : %s
Compatible          : %t
`,
		version.Version,
		schema,
		version.SchemaVersion,
		compatible)
	if !compatible {
		return store.ErrIncompatibleSchema
	}
	return nil
}
