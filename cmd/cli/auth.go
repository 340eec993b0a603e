package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

func authCommands() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Account and session commands",
	}
	authCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd())
	return authCmd
}

func registerCmd() *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and its first team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				User struct {
					ID       int64  `json:"id"`
					Username string `json:"username"`
				} `json:"user"`
				Team struct {
					ID   int64  `json:"id"`
					Name string `json:"name"`
				} `json:"team"`
			}
			if err := newAPIClient().do(cmd.Context(), http.MethodPost, "/auth/register", in, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (user %d) with team %q (team %d)\n",
				out.User.Username, out.User.ID, out.Team.Name, out.Team.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.TeamName, "team", "", "name of the first team")
	for _, f := range []string{"email", "username", "password", "team"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out service.LoginResult
			body := map[string]string{"email": email, "password": password}
			if err := newAPIClient().do(cmd.Context(), http.MethodPost, "/auth/login", body, &out); err != nil {
				return err
			}
			if err := saveToken(out.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s, token expires %s\n",
				out.User.Username, out.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := newAPIClient()
			if client.token != "" {
				if err := client.do(cmd.Context(), http.MethodPost, "/auth/logout", nil, nil); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}
			if err := removeToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user and their teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var profile service.Profile
			if err := newAPIClient().do(cmd.Context(), http.MethodGet, "/auth/me", nil, &profile); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s <%s>\n", profile.User.Username, profile.User.Email)
			tw := newTable(w)
			fmt.Fprintln(tw, "TEAM\tNAME\tROLE")
			for _, t := range profile.Teams {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Name, t.Role)
			}
			return tw.Flush()
		},
	}
}
