package cli

import (
	"fmt"
	"io"

	"safc/internal/identity"

	"github.com/spf13/cobra"
)

func newHashCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Derive object ids, comment ids and author signs",
		Long: `Derive the content-addressed identifiers used by the review store.

Examples:
  safcctl hash object university department supervisor
  safcctl hash comment bf3d2da3a9bfc528 "很好的导师" 2024-01-01
  safcctl hash sign cba0415143b305c0 201809`,
	}

	printID := func(cmd *cobra.Command, kind, id string) error {
		return opts.output(cmd.OutOrStdout(), map[string]string{kind: id}, func(w io.Writer) {
			fmt.Fprintln(w, id)
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "object <university> <department> <supervisor>",
		Short: "Object id of a hierarchy path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printID(cmd, "object_id", identity.ObjectID(args[0], args[1], args[2]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "comment <target_id> <content> <date>",
		Short: "Comment id of a review",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printID(cmd, "comment_id", identity.CommentID(args[0], args[1], args[2]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sign <comment_id> <otp>",
		Short: "Author sign for a comment and one-time secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printID(cmd, "author_sign", identity.AuthorSign(args[0], args[1]))
		},
	})
	return cmd
}
