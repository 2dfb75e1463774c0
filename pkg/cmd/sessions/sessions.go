package sessions

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

var deleteKey string

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "list the sessions of a store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd.Context(), config.DefaultCliArgs(), os.Stdout)
		},
	}
	cmd.Flags().StringVar(&config.DefaultCliArgs().StoreFile,
		"store",
		"",
		"sqlite store")
	cmd.Flags().StringVar(&deleteKey,
		"delete",
		"",
		"delete the session with this key")
	//nolint:errcheck // flag exists
	cmd.MarkFlagRequired("store")
	return cmd
}

func listSessions(ctx context.Context, cfg *config.CliArgs, out io.Writer) error {
	logger := log.FromContextOrDefault(ctx)
	st, err := store.Open(ctx, cfg.StoreFile)
	if err != nil {
		return err
	}
	defer st.Close()

	if deleteKey != "" {
		if err := st.DeleteSession(ctx, deleteKey); err != nil {
			return err
		}
		logger.Info("Session deleted", log.String("key", deleteKey))
		return nil
	}

	sessions, err := st.Sessions(ctx)
	if err != nil {
		return err
	}
	logger.Debug("Sessions read", log.Int("count", len(sessions)))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tSOURCE\tCREATED\tSAMPLES\tTICK\tMAX RPM\tMAX SPEED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			s.Key, s.Name, s.Source, s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.Samples, s.TickInterval, s.MaxRPM, s.MaxSpeed)
	}
	return w.Flush()
}
