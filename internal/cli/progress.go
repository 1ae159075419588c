package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pathway/internal/engine"
	"github.com/roach88/pathway/internal/progress"
)

// UserOptions holds the flags shared by per-user commands.
type UserOptions struct {
	*RootOptions
	UserID   string
	TimeZone string
}

func (o *UserOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.UserID, "user", "u", "", "user id (required)")
	cmd.Flags().StringVar(&o.TimeZone, "tz", "", "IANA time zone (default calendar.default_timezone)")
	_ = cmd.MarkFlagRequired("user")
}

func (o *UserOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// CompleteOptions holds flags for the complete command.
type CompleteOptions struct {
	UserOptions
	Key string
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{UserOptions: UserOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "complete <sequence> <item>",
		Short: "Record a completion",
		Long: `Record that a user completed one item of a sequence.

Repeating the command for an item that is already completed returns the
original record. --key binds a client idempotency key to the completion.

Exit codes:
  0 - Recorded or replayed
  1 - Rejected (ITEM_LOCKED, OUT_OF_RANGE, TOO_EARLY, UNKNOWN_SEQUENCE, INVALID_ARGUMENT)
  2 - Command error (config, catalog, database)

Examples:
  pathway complete john-21 1 --user u-42
  pathway complete wdep-7 3 --user u-42 --tz America/New_York --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			item, err := parseItem(args[1])
			if err != nil {
				return out.Fail(ErrCodeInput, err)
			}
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				res, err := a.svc.RecordCompletion(cmd.Context(), engine.CompleteRequest{
					UserID:         opts.UserID,
					SequenceID:     args[0],
					ItemNumber:     item,
					IdempotencyKey: opts.Key,
					TimeZone:       opts.TimeZone,
				})
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				verb := "Recorded"
				if res.Replayed {
					verb = "Already completed"
				}
				return out.Success(res, fmt.Sprintf("✓ %s %s #%d on %s (%s)",
					verb, res.Record.SequenceID, res.Record.ItemNumber, res.Record.CompletedOn, res.Record.ID))
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Key, "key", "", "idempotency key")

	return cmd
}

// NewUnlockCommand creates the unlock command.
func NewUnlockCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "unlock <sequence>",
		Short: "Show which items of a sequence are unlocked",
		Long: `Show the unlock state of a sequence for one user.

Examples:
  pathway unlock john-21 --user u-42
  pathway unlock daily-spark --user u-42 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				state, err := a.svc.GetUnlockState(cmd.Context(), opts.UserID, args[0])
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				return out.Success(state, formatUnlock(state))
			})
		},
	}

	opts.bind(cmd)

	return cmd
}

// StreakOptions holds flags for the streak command.
type StreakOptions struct {
	UserOptions
	Group string
}

// NewStreakCommand creates the streak command.
func NewStreakCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StreakOptions{UserOptions: UserOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show the user's daily streak",
		Long: `Show the current and longest streak of consecutive completion days.

Days are counted in the user's time zone. --group restricts the streak to
sequences of one streak group.

Examples:
  pathway streak --user u-42 --tz Europe/Berlin
  pathway streak --user u-42 --group coaching`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				s, err := a.svc.GetStreakSummary(cmd.Context(), opts.UserID, opts.Group, opts.TimeZone)
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				return out.Success(s, formatStreak(s))
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.Group, "group", "", "streak group (default: all eligible sequences)")

	return cmd
}

// NewExperimentCommand creates the experiment command.
func NewExperimentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "experiment <sequence>",
		Short: "Show the state of a dated experiment",
		Long: `Show the window, phase and per-day availability of an experiment.

Examples:
  pathway experiment wdep-7 --user u-42 --tz America/New_York`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			return withApp(cmd.Context(), rootOpts, func(a *app) error {
				st, err := a.svc.GetExperimentStatus(cmd.Context(), opts.UserID, args[0], opts.TimeZone)
				if err != nil {
					return out.Fail(ErrCodeDatabase, err)
				}
				text := fmt.Sprintf("%s: %s, %d/%d days, window %s..%s",
					st.SequenceID, st.Phase, st.CompletedCount, st.TotalItems, st.WindowStart, st.WindowEnd)
				if st.ReflectionUnlocked {
					text += ", reflection unlocked"
				}
				return out.Success(st, text)
			})
		},
	}

	opts.bind(cmd)

	return cmd
}

func parseItem(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, progress.NewInvalidArgumentError("item number %q is not an integer", s)
	}
	return n, nil
}

func formatUnlock(u progress.UnlockState) string {
	var b strings.Builder
	total := "unbounded"
	if u.TotalItems > 0 {
		total = strconv.Itoa(u.TotalItems)
	}
	fmt.Fprintf(&b, "%s: %d completed of %s", u.SequenceID, u.CompletedCount, total)
	if u.NextItem > 0 {
		fmt.Fprintf(&b, ", next item %d", u.NextItem)
	} else {
		b.WriteString(", all items completed")
	}
	for _, it := range u.Items {
		fmt.Fprintf(&b, "\n  %3d  %s", it.Number, it.State)
	}
	return b.String()
}

func formatStreak(s progress.StreakSummary) string {
	text := fmt.Sprintf("current streak %d, longest %d", s.CurrentStreak, s.LongestStreak)
	if s.CompletedToday {
		text += ", completed today"
	}
	return text + fmt.Sprintf(", next expected %s", s.NextExpectedDate)
}
