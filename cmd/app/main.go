// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gatekeeper/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "gatekeeper",
		Usage:   "Access control service: authentication, sessions, and policy decisions",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "create-principal",
				Usage: "Register a new principal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Identifying name, unique among principals",
					},
					&cli.StringFlag{
						Name:    "role",
						Aliases: []string{"r"},
						Value:   "member",
						Usage:   "Role: guest, member, senior, council, or admin",
					},
					&cli.BoolFlag{
						Name:    "elevated",
						Aliases: []string{"e"},
						Value:   false,
						Usage:   "Grant elevated authority (consumed by elevated-approval gates)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreatePrincipal(
						ctx,
						cmd.String("name"),
						cmd.String("role"),
						cmd.Bool("elevated"),
					)
				},
			},
			{
				Name:  "enroll-credential",
				Usage: "Enroll a credential for a principal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Principal ID (UUID)",
					},
					&cli.StringFlag{
						Name:     "method",
						Aliases:  []string{"m"},
						Required: true,
						Usage:    "Authentication method (password, totp, sms, biometric, hardware_token, community_verification)",
					},
					&cli.StringFlag{
						Name:    "secret",
						Aliases: []string{"s"},
						Usage:   "Secret material (omit to read from stdin)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEnrollCredential(
						ctx,
						cmd.String("id"),
						cmd.String("method"),
						cmd.String("secret"),
						commands.DefaultIO(),
					)
				},
			},
			{
				Name:  "unlock-principal",
				Usage: "Administratively unlock a locked principal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Principal ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunUnlockPrincipal(ctx, cmd.String("id"))
				},
			},
			{
				Name:  "deactivate-principal",
				Usage: "Deactivate a principal (soft delete)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"i"},
						Required: true,
						Usage:    "Principal ID (UUID)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDeactivatePrincipal(ctx, cmd.String("id"))
				},
			},
			{
				Name:  "create-access-rule",
				Usage: "Create or replace the access rule for a resource type",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "resource-type",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "Resource type the rule applies to",
					},
					&cli.StringFlag{
						Name:    "minimum-role",
						Aliases: []string{"r"},
						Value:   "member",
						Usage:   "Minimum role required for access",
					},
					&cli.StringFlag{
						Name:    "permissions",
						Aliases: []string{"p"},
						Usage:   "Comma-separated list of required permissions",
					},
					&cli.BoolFlag{
						Name:  "consensus",
						Usage: "Require consensus approval",
					},
					&cli.BoolFlag{
						Name:  "elevated",
						Usage: "Require elevated approval",
					},
					&cli.IntFlag{
						Name:    "sensitivity",
						Aliases: []string{"l"},
						Value:   0,
						Usage:   "Sensitivity level attached to grants (0-10)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateAccessRule(
						ctx,
						cmd.String("resource-type"),
						cmd.String("minimum-role"),
						cmd.String("permissions"),
						cmd.Bool("consensus"),
						cmd.Bool("elevated"),
						int(cmd.Int("sensitivity")),
					)
				},
			},
			{
				Name:  "clean-expired-sessions",
				Usage: "Delete expired sessions from the session store",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCleanExpiredSessions(ctx)
				},
			},
			{
				Name:  "clean-audit-logs",
				Usage: "Delete audit logs older than specified days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "days",
						Aliases:  []string{"d"},
						Required: true,
						Usage:    "Delete audit logs older than this many days",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Value: false,
						Usage: "Show how many logs would be deleted without deleting",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCleanAuditLogs(ctx, int(cmd.Int("days")), cmd.Bool("dry-run"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
