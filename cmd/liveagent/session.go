package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/chat"
	"github.com/zulandar/liveagent/internal/db"
	"github.com/zulandar/liveagent/internal/models"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Live-agent session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionAssignCmd())
	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionDeleteCmd())
	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var (
		configPath string
		tenant     string
		account    string
		name       string
		meta       map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a pending session for an end user",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			s, err := chat.CreateSession(gormDB, tenant, account, chat.SessionOpts{
				UserName: name,
				Metadata: metadataFromFlags(meta),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s\n", s.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant domain (required)")
	cmd.Flags().StringVar(&account, "account", "", "end-user account (required)")
	cmd.Flags().StringVar(&name, "name", "", "end-user display name")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "metadata key=value pairs")
	cmd.MarkFlagRequired("tenant")
	cmd.MarkFlagRequired("account")
	return cmd
}

func newSessionListCmd() *cobra.Command {
	var (
		configPath string
		tenant     string
		account    string
		status     string
		agentID    int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			f := chat.SessionFilter{
				TenantDomain: tenant,
				UserAccount:  account,
				Status:       status,
				Limit:        limit,
			}
			if cmd.Flags().Changed("agent-id") {
				f.AssignedAgentID = &agentID
			}
			sessions, err := chat.ListSessions(gormDB, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTENANT\tACCOUNT\tSTATUS\tAGENT\tUNREAD(U/A)\tCREATED")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					s.ID, s.TenantDomain, s.UserAccount, s.Status, agentLabel(s),
					s.UnreadCountUser, s.UnreadCountAgent, s.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().StringVar(&tenant, "tenant", "", "filter by tenant domain")
	cmd.Flags().StringVar(&account, "account", "", "filter by end-user account")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, active, closed)")
	cmd.Flags().IntVar(&agentID, "agent-id", 0, "filter by assigned agent ID")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sessions to show (0 for all)")
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			s, err := chat.GetSession(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:       %s\n", s.ID)
			fmt.Fprintf(out, "Tenant:        %s\n", s.TenantDomain)
			fmt.Fprintf(out, "Account:       %s\n", s.UserAccount)
			if s.UserName != nil {
				fmt.Fprintf(out, "User name:     %s\n", *s.UserName)
			}
			fmt.Fprintf(out, "Status:        %s\n", s.Status)
			fmt.Fprintf(out, "Agent:         %s\n", agentLabel(*s))
			fmt.Fprintf(out, "Unread:        user %d, agent %d\n", s.UnreadCountUser, s.UnreadCountAgent)
			fmt.Fprintf(out, "Created:       %s\n", s.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Updated:       %s\n", s.UpdatedAt.Local().Format(time.DateTime))
			if s.LastMessageAt != nil {
				fmt.Fprintf(out, "Last message:  %s\n", s.LastMessageAt.Local().Format(time.DateTime))
			}
			if len(s.Metadata) > 0 {
				fmt.Fprintf(out, "Metadata:      %s\n", string(s.Metadata))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func newSessionAssignCmd() *cobra.Command {
	var (
		configPath string
		agentID    int
		agentName  string
	)

	cmd := &cobra.Command{
		Use:   "assign <session-id>",
		Short: "Record the agent holding a session",
		Long:  "Stores the agent assignment and marks a pending session active. It does not pick the agent.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := chat.AssignAgent(gormDB, args[0], agentID, agentName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned session %s to agent %d\n", args[0], agentID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().IntVar(&agentID, "agent-id", 0, "agent ID (required)")
	cmd.Flags().StringVar(&agentName, "agent-name", "", "agent display name")
	cmd.MarkFlagRequired("agent-id")
	return cmd
}

func newSessionStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <session-id> <pending|active|closed>",
		Short: "Set a session's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := chat.UpdateStatus(gormDB, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s is now %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and all of its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := chat.DeleteSession(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	return cmd
}

func agentLabel(s models.Session) string {
	if s.AssignedAgentID == nil {
		return "-"
	}
	if name := models.Deref(s.AssignedAgentName); name != "" {
		return fmt.Sprintf("%d (%s)", *s.AssignedAgentID, name)
	}
	return fmt.Sprintf("%d", *s.AssignedAgentID)
}

func metadataFromFlags(kv map[string]string) map[string]interface{} {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(kv))
	for k, v := range kv {
		out[k] = v
	}
	return out
}
