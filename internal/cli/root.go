// Package cli implements the safcctl admin commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"safc/internal/config"
	"safc/internal/db"
	"safc/internal/query"
	"safc/internal/store"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // 校验不通过、未找到
	ExitCommandError = 2 // 配置或数据库错误
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func wrapExit(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode 非 ExitError 视为一般失败
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// RootOptions 全局参数
type RootOptions struct {
	ConfigPath string
	Database   string // 覆盖配置，直接打开 sqlite 文件
	Format     string // text | json
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "safcctl",
		Short: "SAFC admin tool",
		Long:  "Inspect the SAFC review database: counts, derived ids, authorship claims and searches.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return wrapExit(ExitCommandError, fmt.Sprintf("invalid format %q: must be text or json", opts.Format), nil)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to the YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "sqlite database file (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newHashCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newSearchCommand(opts))
	cmd.AddCommand(newLookupCommand(opts))

	return cmd
}

// backend 命令使用的存储与查询引擎
type backend struct {
	gdb    *gorm.DB
	store  *store.Store
	engine *query.Engine
}

func (b *backend) Close() {
	_ = db.Close(b.gdb)
}

func (o *RootOptions) open() (*backend, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, wrapExit(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database.Driver = "sqlite"
		cfg.Database.Path = o.Database
	}
	cfg.Database.LogLevel = "silent"

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, wrapExit(ExitCommandError, "failed to open database", err)
	}
	s := store.New(gdb)
	engine, err := query.NewEngine(s, cfg.Search.MaxObjectMatches, cfg.Search.MaxCommentMatches)
	if err != nil {
		_ = db.Close(gdb)
		return nil, wrapExit(ExitCommandError, "invalid search limits", err)
	}
	return &backend{gdb: gdb, store: s, engine: engine}, nil
}

// output 按 --format 输出；text 由 render 负责
func (o *RootOptions) output(w io.Writer, v interface{}, render func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render(w)
	return nil
}

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print object and comment counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.open()
			if err != nil {
				return err
			}
			defer b.Close()

			st, err := b.store.AggregateStatus(cmd.Context(), time.Now())
			if err != nil {
				return wrapExit(ExitCommandError, "failed to read status", err)
			}
			return opts.output(cmd.OutOrStdout(), st, func(w io.Writer) {
				fmt.Fprintf(w, "objects:  %d (+%d since %s)\n", st.Objects, st.NewObjects, st.Since)
				fmt.Fprintf(w, "comments: %d (+%d since %s)\n", st.Comments, st.NewComments, st.Since)
			})
		},
	}
}
