package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/liveagent/internal/chat"
	"github.com/zulandar/liveagent/internal/db"
	"github.com/zulandar/liveagent/internal/models"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Session message commands",
	}

	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageHistoryCmd())
	cmd.AddCommand(newMessageDeliveredCmd())
	cmd.AddCommand(newMessageReadCmd())
	return cmd
}

func newMessageSendCmd() *cobra.Command {
	var (
		configPath string
		sender     string
		text       string
		senderID   string
		senderName string
		meta       map[string]string
	)

	cmd := &cobra.Command{
		Use:   "send <session-id>",
		Short: "Append a message to a session",
		Long:  "Appends a message from the user or the agent and bumps the other party's unread counter.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			msg, err := chat.AppendMessage(gormDB, args[0], sender, text, chat.MessageOpts{
				SenderID:   senderID,
				SenderName: senderName,
				Metadata:   metadataFromFlags(meta),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent message %d to session %s\n", msg.ID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().StringVar(&sender, "sender", "", "sender type: user or agent (required)")
	cmd.Flags().StringVar(&text, "text", "", "message text (required)")
	cmd.Flags().StringVar(&senderID, "sender-id", "", "sender identifier")
	cmd.Flags().StringVar(&senderName, "sender-name", "", "sender display name")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "metadata key=value pairs")
	cmd.MarkFlagRequired("sender")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newMessageHistoryCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Show a session's messages in conversation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			msgs, err := chat.History(gormDB, args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSENDER\tSENT\tDELIVERED\tREAD\tTEXT")
			for _, m := range msgs {
				delivered := "-"
				if m.DeliveredAt != nil {
					delivered = m.DeliveredAt.Local().Format(time.DateTime)
				}
				read := "-"
				switch {
				case m.ReadByUser && m.ReadByAgent:
					read = "both"
				case m.ReadByUser:
					read = "user"
				case m.ReadByAgent:
					read = "agent"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					m.ID, senderLabel(m.SenderType, models.Deref(m.SenderName)), m.CreatedAt.Local().Format(time.DateTime),
					delivered, read, m.MessageText)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum messages to show (0 for all)")
	return cmd
}

func newMessageDeliveredCmd() *cobra.Command {
	var (
		configPath string
		at         string
	)

	cmd := &cobra.Command{
		Use:   "delivered <message-id>",
		Short: "Record when a message was delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid message ID %q: %w", args[0], err)
			}
			ts, err := parseAt(at)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			if err := chat.MarkDelivered(gormDB, uint(id), ts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message %d delivered at %s\n", id, ts.Local().Format(time.DateTime))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().StringVar(&at, "at", "", "delivery time in RFC 3339 (default now)")
	return cmd
}

func newMessageReadCmd() *cobra.Command {
	var (
		configPath string
		reader     string
		at         string
	)

	cmd := &cobra.Command{
		Use:   "read <session-id>",
		Short: "Mark the other party's messages as read",
		Long:  "Marks every message the other party sent so far as read by --reader and clears the reader's unread counter.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := parseAt(at)
			if err != nil {
				return err
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			defer db.Close(gormDB)

			n, err := chat.MarkRead(gormDB, args[0], reader, ts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d messages read by %s\n", n, reader)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to liveagent config file")
	cmd.Flags().StringVar(&reader, "reader", "", "who read the messages: user or agent (required)")
	cmd.Flags().StringVar(&at, "at", "", "read time in RFC 3339 (default now)")
	cmd.MarkFlagRequired("reader")
	return cmd
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: want RFC 3339", s)
	}
	return t.Local(), nil
}

func senderLabel(senderType, name string) string {
	if name == "" {
		return senderType
	}
	return senderType + " (" + name + ")"
}
