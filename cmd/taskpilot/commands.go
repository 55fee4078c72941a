package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/taskpilot/internal/version"
	"github.com/GoCodeAlone/taskpilot/tracker"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printf(cmd, "taskpilot %s\n", version.String())
		},
	}
}

func newStatusCommand(c *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result struct {
				Status    string `json:"status"`
				Version   string `json:"version"`
				Assistant bool   `json:"assistant"`
				Mail      bool   `json:"mail"`
			}
			if err := c.get("/api/status", &result); err != nil {
				return err
			}
			printf(cmd, "status:    %s\n", result.Status)
			printf(cmd, "version:   %s\n", result.Version)
			printf(cmd, "assistant: %s\n", configured(result.Assistant))
			printf(cmd, "mail:      %s\n", configured(result.Mail))
			return nil
		},
	}
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func newListCommand(c *Client) *cobra.Command {
	var status, sort string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			q.Set("status", status)
			q.Set("sort", sort)
			var views []tracker.View
			if err := c.get("/api/tasks?"+q.Encode(), &views); err != nil {
				return err
			}
			printViews(cmd, views)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "All", "filter: All, Pending or Completed")
	cmd.Flags().StringVar(&sort, "sort", "Deadline", "sort: Deadline, Priority or \"Date Added\"")
	return cmd
}

func printViews(cmd *cobra.Command, views []tracker.View) {
	if len(views) == 0 {
		printf(cmd, "no tasks\n")
		return
	}
	printf(cmd, "%-5s %-30s %-10s %-8s %-10s %s\n", "ID", "TITLE", "DEADLINE", "PRIORITY", "STATUS", "URGENCY")
	printf(cmd, "%s\n", strings.Repeat("-", 90))
	for _, v := range views {
		urgency := v.Urgency.Label
		if v.Status == "Completed" {
			urgency = "-"
		}
		printf(cmd, "%-5d %-30s %-10s %-8s %-10s %s\n",
			v.ID, truncate(v.Title, 29), v.Deadline, v.Priority, v.Status, urgency)
	}
}

func newAddCommand(c *Client) *cobra.Command {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Deadline    string `json:"deadline"`
		Priority    string `json:"priority"`
		Email       string `json:"email"`
	}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var created struct {
				ID    int64  `json:"id"`
				Title string `json:"title"`
			}
			if err := c.post("/api/tasks", body, &created); err != nil {
				return err
			}
			printf(cmd, "created task %d: %s\n", created.ID, created.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&body.Title, "title", "", "task title")
	f.StringVar(&body.Description, "description", "", "task description")
	f.StringVar(&body.Deadline, "deadline", "", "deadline as YYYY-MM-DD")
	f.StringVar(&body.Priority, "priority", "Medium", "Low, Medium or High")
	f.StringVar(&body.Email, "email", "", "reminder email address")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("deadline")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// taskID parses a positional task id.
func taskID(arg string) (string, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid task id: %s", arg)
	}
	return strconv.FormatInt(id, 10), nil
}

func newShowCommand(c *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskID(args[0])
			if err != nil {
				return err
			}
			var v tracker.View
			if err := c.get("/api/tasks/"+id, &v); err != nil {
				return err
			}
			printf(cmd, "#%d %s\n", v.ID, v.Title)
			printf(cmd, "  description: %s\n", v.Description)
			printf(cmd, "  deadline:    %s (%s)\n", v.Deadline, v.Urgency.Label)
			printf(cmd, "  priority:    %s\n", v.Priority)
			printf(cmd, "  status:      %s\n", v.Status)
			printf(cmd, "  email:       %s\n", v.Email)
			printf(cmd, "  added:       %s\n", v.CreatedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newStatusChangeCommand(c *Client, use, short, status string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskID(args[0])
			if err != nil {
				return err
			}
			var v tracker.View
			if err := c.do(http.MethodPatch, "/api/tasks/"+id, map[string]string{"status": status}, &v); err != nil {
				return err
			}
			printf(cmd, "task %d is now %s\n", v.ID, v.Status)
			return nil
		},
	}
}

func newToggleCommand(c *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between Pending and Completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskID(args[0])
			if err != nil {
				return err
			}
			var v tracker.View
			if err := c.post("/api/tasks/"+id+"/toggle", nil, &v); err != nil {
				return err
			}
			printf(cmd, "task %d is now %s\n", v.ID, v.Status)
			return nil
		},
	}
}

func newDeleteCommand(c *Client) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Permanently delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskID(args[0])
			if err != nil {
				return err
			}
			if err := c.do(http.MethodDelete, "/api/tasks/"+id, nil, nil); err != nil {
				return err
			}
			printf(cmd, "task %s deleted\n", id)
			return nil
		},
	}
}

func newBreakdownCommand(c *Client) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "breakdown [id]",
		Short: "Break a task into subtasks",
		Long:  "Break a stored task (by id) or an ad-hoc --title/--description into subtasks.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Text string `json:"text"`
			}
			if len(args) == 1 {
				id, err := taskID(args[0])
				if err != nil {
					return err
				}
				if err := c.post("/api/tasks/"+id+"/breakdown", nil, &resp); err != nil {
					return err
				}
			} else {
				if title == "" {
					return fmt.Errorf("give a task id or --title")
				}
				body := map[string]string{"title": title, "description": description}
				if err := c.post("/api/breakdown", body, &resp); err != nil {
					return err
				}
			}
			printf(cmd, "%s\n", resp.Text)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "ad-hoc task title")
	cmd.Flags().StringVar(&description, "description", "", "ad-hoc task description")
	return cmd
}

func newRemindCommand(c *Client) *cobra.Command {
	var email, title string
	cmd := &cobra.Command{
		Use:   "remind [id]",
		Short: "Email a reminder for a task",
		Long:  "Email a reminder for a stored task, or a test reminder with --email and --title.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res tracker.ReminderResult
			if len(args) == 1 {
				id, err := taskID(args[0])
				if err != nil {
					return err
				}
				if err := c.post("/api/tasks/"+id+"/reminder", nil, &res); err != nil {
					return err
				}
			} else {
				body := map[string]string{"email": email, "title": title}
				if err := c.post("/api/reminders/test", body, &res); err != nil {
					return err
				}
			}
			printf(cmd, "%s\n\n", res.Body)
			if !res.Sent {
				return fmt.Errorf("reminder was not sent; check the server's mail configuration")
			}
			printf(cmd, "reminder sent\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "recipient for a test reminder")
	cmd.Flags().StringVar(&title, "title", "", "task title for a test reminder")
	return cmd
}

func newSuggestCommand(c *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest follow-up tasks based on completed ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Suggestions []string `json:"suggestions"`
			}
			if err := c.get("/api/suggestions", &resp); err != nil {
				return err
			}
			if len(resp.Suggestions) == 0 {
				printf(cmd, "complete some tasks to get suggestions\n")
				return nil
			}
			for _, s := range resp.Suggestions {
				printf(cmd, "- %s\n", s)
			}
			return nil
		},
	}
}

func newUpcomingCommand(c *Client) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List pending tasks due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var views []tracker.View
			if err := c.get("/api/upcoming?days="+strconv.Itoa(days), &views); err != nil {
				return err
			}
			printViews(cmd, views)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", tracker.DefaultUpcomingDays, "look-ahead window in days")
	return cmd
}
