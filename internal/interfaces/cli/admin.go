package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// Migrator is the schema migration surface used by the migrate commands.
type Migrator interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
	Close() error
}

// openMigrator is replaced in tests.
var openMigrator = func(cliCtx *CLIContext) (Migrator, error) {
	cfg, err := cliCtx.Config()
	if err != nil {
		return nil, err
	}
	return postgres.NewMigrator(cfg.Database.DSN(), cliCtx.Logger)
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.AddCommand(
		migrateSubcommand("up", "Apply all pending migrations", func(m Migrator, _ int) error { return m.Up() }),
		migrateDownCmd(),
		migrateSubcommand("status", "Show the applied schema version", func(Migrator, int) error { return nil }),
	)
	return cmd
}

func migrateDownCmd() *cobra.Command {
	cmd := migrateSubcommand("down", "Roll back migrations", func(m Migrator, steps int) error { return m.Down(steps) })
	cmd.Flags().Int("steps", 1, "number of migrations to roll back")
	return cmd
}

func migrateSubcommand(use, short string, run func(Migrator, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, err := openMigrator(cliCtx)
			if err != nil {
				return err
			}
			defer m.Close()

			steps := 0
			if cmd.Flags().Lookup("steps") != nil {
				steps, _ = cmd.Flags().GetInt("steps")
			}
			if err := run(m, steps); err != nil {
				return err
			}

			version, dirty, err := m.Status()
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			PrintSuccess(cmd, fmt.Sprintf("schema version %d (%s)", version, state))
			return nil
		},
	}
}

type issuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      user.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t issuedToken) TableHeaders() []string { return []string{"SUBJECT", "ROLE", "EXPIRES", "TOKEN"} }

func (t issuedToken) TableRows() [][]string {
	return [][]string{{t.Subject, string(t.Role), t.ExpiresAt.Format(time.RFC3339), t.Token}}
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	var u user.User
	var role string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			u.Role = user.Role(role)
			if !u.Role.Valid() {
				return errors.InvalidParam("--role must be admin, editor or viewer").WithDetail(role)
			}
			cfg, err := cliCtx.Config()
			if err != nil {
				return err
			}
			tm, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return err
			}
			token, exp, err := tm.Issue(&u)
			if err != nil {
				return err
			}
			out := issuedToken{Token: token, Subject: u.ID, Role: u.Role, ExpiresAt: exp}
			return printResult(cmd, out, out)
		},
	}
	f := issue.Flags()
	f.StringVar(&u.ID, "user", "", "user id (token subject)")
	f.StringVar(&u.Name, "name", "", "display name")
	f.StringVar(&u.Email, "email", "", "email address")
	f.StringVar(&role, "role", string(user.RoleViewer), "role (admin, editor, viewer)")
	_ = issue.MarkFlagRequired("user")

	cmd.AddCommand(issue)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "radar %s\ncommit: %s\nbuilt: %s\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}
