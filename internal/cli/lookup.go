package cli

import (
	"fmt"
	"io"
	"strings"

	"safc/internal/identity"
	"safc/internal/models"
	"safc/internal/store"

	"github.com/spf13/cobra"
)

func newVerifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <comment_id> <otp>",
		Short: "Check an authorship claim against the stored sign",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToLower(args[0])
			if !identity.IsID(id) {
				return wrapExit(ExitCommandError, "comment id must be 16 hex characters", nil)
			}
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			com, err := b.store.FindCommentByID(cmd.Context(), id)
			if err != nil {
				return wrapExit(ExitCommandError, "failed to read comment", err)
			}
			if com == nil {
				return wrapExit(ExitFailure, "comment not found: "+id, nil)
			}
			if com.AuthorSign == nil {
				return wrapExit(ExitFailure, "comment has no author sign", nil)
			}

			ok := identity.VerifyAuthor(com.ID, args[1], *com.AuthorSign)
			err = opts.output(cmd.OutOrStdout(), map[string]interface{}{"comment_id": com.ID, "verified": ok}, func(w io.Writer) {
				if ok {
					fmt.Fprintln(w, "verified")
				}
			})
			if err != nil {
				return err
			}
			if !ok {
				return wrapExit(ExitFailure, "author sign does not match", nil)
			}
			return nil
		},
	}
}

func newSearchCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Fuzzy search supervisors or comments (% and _ wildcards)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "supervisors <pattern>",
		Short: "Search supervisor names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := b.engine.SearchSupervisors(cmd.Context(), args[0])
			if err != nil {
				return wrapExit(ExitCommandError, "search failed", err)
			}
			return opts.output(cmd.OutOrStdout(), res, func(w io.Writer) {
				for _, m := range res.Items {
					fmt.Fprintf(w, "%s  %s / %s / %s / %s\n", m.ObjectID, m.SchoolCate, m.University, m.Department, m.Supervisor)
				}
				printTruncation(w, len(res.Items), res.Total)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "comments <pattern>",
		Short: "Search comment text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := b.engine.SearchComments(cmd.Context(), args[0])
			if err != nil {
				return wrapExit(ExitCommandError, "search failed", err)
			}
			return opts.output(cmd.OutOrStdout(), res, func(w io.Writer) {
				for _, c := range res.Items {
					printComment(w, c)
				}
				printTruncation(w, len(res.Items), res.Total)
			})
		},
	})
	return cmd
}

func newLookupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <id>",
		Short: "Show the object or comment with this id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToLower(args[0])
			if !identity.IsID(id) {
				return wrapExit(ExitCommandError, "id must be 16 hex characters", nil)
			}
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			kind, err := b.store.ObjectOrCommentKind(ctx, id)
			if err != nil {
				return wrapExit(ExitCommandError, "lookup failed", err)
			}
			switch kind {
			case store.KindObject:
				obj, err := b.store.FindObjectByID(ctx, id)
				if err != nil || obj == nil {
					return wrapExit(ExitCommandError, "lookup failed", err)
				}
				return opts.output(cmd.OutOrStdout(), map[string]interface{}{"kind": kind, "object": obj}, func(w io.Writer) {
					fmt.Fprintf(w, "object %s\n%s\ncreated %s\n", obj.ObjectID, strings.Join(obj.Path(), " / "), obj.Date)
				})
			case store.KindComment:
				com, err := b.store.FindCommentByID(ctx, id)
				if err != nil || com == nil {
					return wrapExit(ExitCommandError, "lookup failed", err)
				}
				return opts.output(cmd.OutOrStdout(), map[string]interface{}{"kind": kind, "comment": com}, func(w io.Writer) {
					fmt.Fprintf(w, "comment on %s\n", com.TargetID)
					printComment(w, *com)
				})
			default:
				return wrapExit(ExitFailure, "unknown id: "+id, nil)
			}
		},
	}
}

func printComment(w io.Writer, c models.Comment) {
	fmt.Fprintf(w, "%s  %s  %s/%s\n  %s\n", c.ID, c.Date, c.SourceCate, c.Type, strings.ReplaceAll(c.Description, "\n", "\n  "))
}

func printTruncation(w io.Writer, shown int, total int64) {
	if int64(shown) < total {
		fmt.Fprintf(w, "(showing %d of %d matches)\n", shown, total)
	}
}
