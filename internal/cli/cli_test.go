package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"safc/internal/config"
	"safc/internal/db"
	"safc/internal/identity"
	"safc/internal/store"
	"safc/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dbPath     string
	objectID   string
	signedID   string
	unsignedID string
}

// seed 写入一个客体、一条带签名的评价和一条匿名评价
func seed(t *testing.T) fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "safc.sqlite")
	gdb, err := db.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         path,
		LogLevel:     "silent",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxLifetime:  time.Minute,
	})
	require.NoError(t, err)
	defer db.Close(gdb)

	obj := testutils.CreateTestObject(t, gdb)
	signed := testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("signed review"), testutils.WithOTP("201809"))
	unsigned := testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("anonymous review"))

	return fixture{dbPath: path, objectID: obj.ObjectID, signedID: signed.ID, unsignedID: unsigned.ID}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"status", "hash", "verify", "search", "lookup"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "db", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "--format", "yaml", "hash", "object", "a", "b", "c")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHashKnownVectors(t *testing.T) {
	out, err := run(t, "hash", "object", "university", "department", "supervisor")
	require.NoError(t, err)
	assert.Equal(t, "bf3d2da3a9bfc528\n", out)

	out, err = run(t, "hash", "sign", "cba0415143b305c0", "201809")
	require.NoError(t, err)
	assert.Equal(t, "633d8c27f20896ab27a9c762d4e1e9da16b54edec78de13f3c950820aca70b7c\n", out)

	out, err = run(t, "hash", "comment", "bf3d2da3a9bfc528", "great", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, identity.CommentID("bf3d2da3a9bfc528", "great", "2024-01-01")+"\n", out)
}

func TestHashJSON(t *testing.T) {
	out, err := run(t, "--format", "json", "hash", "object", "university", "department", "supervisor")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "bf3d2da3a9bfc528", got["object_id"])
}

func TestHashArgCount(t *testing.T) {
	_, err := run(t, "hash", "object", "only-one")
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	fx := seed(t)

	out, err := run(t, "--db", fx.dbPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "objects:  1 (")
	assert.Contains(t, out, "comments: 2 (")

	out, err = run(t, "--db", fx.dbPath, "--format", "json", "status")
	require.NoError(t, err)
	var st store.Status
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(1), st.Objects)
	assert.Equal(t, int64(2), st.Comments)
}

func TestVerify(t *testing.T) {
	fx := seed(t)

	out, err := run(t, "--db", fx.dbPath, "verify", fx.signedID, "201809")
	require.NoError(t, err)
	assert.Equal(t, "verified\n", out)

	_, err = run(t, "--db", fx.dbPath, "verify", fx.signedID, "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, "--db", fx.dbPath, "verify", fx.unsignedID, "201809")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no author sign")

	_, err = run(t, "--db", fx.dbPath, "verify", "0000000000000000", "201809")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = run(t, "--db", fx.dbPath, "verify", "nope", "201809")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyJSONReportsMismatch(t *testing.T) {
	fx := seed(t)

	out, err := run(t, "--db", fx.dbPath, "--format", "json", "verify", fx.signedID, "wrong")
	require.Error(t, err)

	var got struct {
		CommentID string `json:"comment_id"`
		Verified  bool   `json:"verified"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, fx.signedID, got.CommentID)
	assert.False(t, got.Verified)
}

func TestLookup(t *testing.T) {
	fx := seed(t)

	out, err := run(t, "--db", fx.dbPath, "lookup", fx.objectID)
	require.NoError(t, err)
	assert.Contains(t, out, "object "+fx.objectID)
	assert.Contains(t, out, "985 / U1 / D1 / S1")

	out, err = run(t, "--db", fx.dbPath, "lookup", fx.signedID)
	require.NoError(t, err)
	assert.Contains(t, out, "comment on "+fx.objectID)
	assert.Contains(t, out, "signed review")

	_, err = run(t, "--db", fx.dbPath, "lookup", "0000000000000000")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSearch(t *testing.T) {
	fx := seed(t)

	out, err := run(t, "--db", fx.dbPath, "search", "supervisors", "S")
	require.NoError(t, err)
	assert.Contains(t, out, fx.objectID)
	assert.NotContains(t, out, "showing")

	out, err = run(t, "--db", fx.dbPath, "search", "comments", "review")
	require.NoError(t, err)
	assert.Contains(t, out, fx.signedID)
	assert.Contains(t, out, fx.unsignedID)
}

func TestSearchTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safc.sqlite")
	gdb, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: path, LogLevel: "silent", MaxOpenConns: 1, MaxIdleConns: 1, MaxLifetime: time.Minute})
	require.NoError(t, err)
	obj := testutils.CreateTestObject(t, gdb)
	for i := 0; i < 12; i++ {
		testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent(fmt.Sprintf("review %d", i)))
	}
	require.NoError(t, db.Close(gdb))

	out, err := run(t, "--db", path, "search", "comments", "review")
	require.NoError(t, err)
	assert.Contains(t, out, "(showing 10 of 12 matches)")
}
