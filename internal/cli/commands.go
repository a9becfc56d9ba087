package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/conference-central/internal/database"
	"github.com/iliyamo/conference-central/internal/utils"
)

var errNoQueue = errors.New("RABBITMQ_URL is required")

// NewRefreshAnnouncementCommand creates refresh-announcement, meant for
// cron-style schedulers.
func NewRefreshAnnouncementCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-announcement",
		Short: "Recompute the nearly-sold-out banner once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			msg, err := a.svc.Announcements.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if msg == "" {
				msg = "(cleared)"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}
}

// IssueTokenOptions holds flags for issue-token.
type IssueTokenOptions struct {
	*RootOptions
	UserID string
	Email  string
	Name   string
	TTL    time.Duration
}

// NewIssueTokenCommand creates issue-token, which signs a bearer token
// with JWT_SECRET for local testing.
func NewIssueTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IssueTokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign an access token for a user",
		Example: `  conference-central issue-token --user u-123 --email ada@example.com --name Ada
  curl -H "Authorization: Bearer $(conference-central issue-token --user u-123)" localhost:8080/v1/profile`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl := opts.TTL
			if ttl <= 0 {
				ttl = opts.cfg.JWT.AccessTTL()
			}
			tok, err := utils.NewAccessToken(opts.cfg.JWT.Secret, opts.UserID, opts.Email, opts.Name, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "subject (user id)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "e-mail claim")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "lifetime (default ACCESS_TOKEN_TTL_MIN)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// NewMigrateCommand creates migrate, which applies the MySQL schema.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the MySQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), opts.cfg.Log)
			db, err := database.Open(cmd.Context(), opts.cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema up to date", "database", opts.cfg.DB.Name)
			return nil
		},
	}
}
