package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/issuedesk/internal/domain"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

func teamCommands() *cobra.Command {
	teamCmd := &cobra.Command{
		Use:   "teams",
		Short: "Team commands",
	}

	teamCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var teams []domain.TeamMembership
			if err := newAPIClient().do(cmd.Context(), http.MethodGet, "/teams", nil, &teams); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tCREATED")
			for _, t := range teams {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Role, t.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	})

	teamCmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a team you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var team domain.TeamMembership
			body := map[string]string{"team_name": args[0]}
			if err := newAPIClient().do(cmd.Context(), http.MethodPost, "/teams", body, &team); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created team %q (id %d)\n", team.Name, team.ID)
			return nil
		},
	})

	return teamCmd
}

func siteCommands() *cobra.Command {
	siteCmd := &cobra.Command{
		Use:   "sites",
		Short: "Site commands",
	}

	var teamID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List a team's sites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sites []domain.Site
			path := "/sites?team_id=" + strconv.FormatInt(teamID, 10)
			if err := newAPIClient().do(cmd.Context(), http.MethodGet, path, nil, &sites); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tURL\tISSUES")
			for _, s := range sites {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", s.ID, s.Name, s.URL, s.IssueCount)
			}
			return tw.Flush()
		},
	}
	list.Flags().Int64Var(&teamID, "team", 0, "team id")
	_ = list.MarkFlagRequired("team")

	var in service.CreateSiteInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a site under a team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var site domain.Site
			if err := newAPIClient().do(cmd.Context(), http.MethodPost, "/sites", in, &site); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created site %q (id %d)\n", site.Name, site.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "site name")
	create.Flags().StringVar(&in.URL, "url", "", "site URL")
	create.Flags().Int64Var(&in.TeamID, "team", 0, "team id")
	for _, f := range []string{"name", "url", "team"} {
		_ = create.MarkFlagRequired(f)
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a site without issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := newAPIClient().do(cmd.Context(), http.MethodDelete, fmt.Sprintf("/sites/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted site %d\n", id)
			return nil
		},
	}

	siteCmd.AddCommand(list, create, remove)
	return siteCmd
}

func issueCommands() *cobra.Command {
	issueCmd := &cobra.Command{
		Use:   "issues",
		Short: "Issue commands",
	}

	var siteID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List issues across your teams, or for one site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/issues"
			if siteID != 0 {
				path = fmt.Sprintf("/sites/%d/issues", siteID)
			}
			var issues []domain.Issue
			if err := newAPIClient().do(cmd.Context(), http.MethodGet, path, nil, &issues); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tSITE\tSTATUS\tPRIORITY\tCONTACT\tDESCRIPTION")
			for _, i := range issues {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
					i.ID, i.SiteID, i.Status, i.Priority, deref(i.ContactEmail), truncate(i.Description, 60))
			}
			return tw.Flush()
		},
	}
	list.Flags().Int64Var(&siteID, "site", 0, "only issues of this site")

	var (
		submitSite        int64
		submitURL         string
		submitDescription string
		submitEmail       string
	)
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Send a report through the public widget endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := map[string]any{
				"report": map[string]any{
					"description":   submitDescription,
					"contact_email": submitEmail,
				},
				"context": map[string]any{
					"site_id":   submitSite,
					"url":       submitURL,
					"userAgent": "issuedesk-cli",
				},
			}
			client := newAPIClient()
			client.token = ""
			var issue domain.Issue
			if err := client.do(cmd.Context(), http.MethodPost, "/issues", report, &issue); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted issue %d\n", issue.ID)
			return nil
		},
	}
	submit.Flags().Int64Var(&submitSite, "site", 0, "site id")
	submit.Flags().StringVar(&submitURL, "url", "", "page URL the issue happened on")
	submit.Flags().StringVar(&submitDescription, "description", "", "what went wrong")
	submit.Flags().StringVar(&submitEmail, "email", "", "contact email")
	for _, f := range []string{"site", "url", "description"} {
		_ = submit.MarkFlagRequired(f)
	}

	var status, priority string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an issue's status or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := map[string]string{}
			if status != "" {
				patch["status"] = status
			}
			if priority != "" {
				patch["priority"] = priority
			}
			if len(patch) == 0 {
				return fmt.Errorf("nothing to update: pass --status or --priority")
			}
			var issue domain.Issue
			if err := newAPIClient().do(cmd.Context(), http.MethodPut, fmt.Sprintf("/issues/%d", id), patch, &issue); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "issue %d is now %s/%s\n", issue.ID, issue.Status, issue.Priority)
			return nil
		},
	}
	update.Flags().StringVar(&status, "status", "", "new, in_progress, resolved or wont_fix")
	update.Flags().StringVar(&priority, "priority", "", "low, medium, high or critical")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print an issue with its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var issue domain.Issue
			if err := newAPIClient().do(cmd.Context(), http.MethodGet, fmt.Sprintf("/issues/%d", id), nil, &issue); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issue)
		},
	}

	issueCmd.AddCommand(list, submit, update, show)
	return issueCmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
