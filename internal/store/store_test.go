package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"safc/internal/apperr"
	"safc/internal/identity"
	"safc/internal/models"
	"safc/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyLookups(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D1", "S1"))
	testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D1", "S2"))
	testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D2", "S3"))
	testutils.CreateTestObject(t, gdb, testutils.WithPath("211", "U2", "D1", "S4"))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"211", "985"}, cats)

	univs, err := s.ListUniversities(ctx, "985")
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, univs)

	depts, err := s.ListDepartments(ctx, "985", "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, depts)

	sups, err := s.ListSupervisors(ctx, "985", "U1", "D1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, sups)

	none, err := s.ListSupervisors(ctx, "985", "U1", "D9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindObject(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	obj := testutils.CreateTestObject(t, gdb)

	got, err := s.FindObject(ctx, "U1", "D1", "S1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, obj.ObjectID, got.ObjectID)

	missing, err := s.FindObject(ctx, "U1", "D1", "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := s.FindObjectByID(ctx, obj.ObjectID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "S1", byID.Supervisor)

	missing, err = s.FindObjectByID(ctx, "0000000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindObjectInvariant(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)

	// 历史数据中同一路径的两个客体
	a := models.NewObject("985", "U1", "D1", "S1", "2024-01-01")
	b := a
	b.ObjectID = "ffffffffffffffff"
	require.NoError(t, gdb.Create(&a).Error)
	require.NoError(t, gdb.Create(&b).Error)

	_, err := s.FindObject(context.Background(), "U1", "D1", "S1")
	assert.ErrorIs(t, err, apperr.ErrInvariant)
}

func TestAddObjectDedup(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	obj := models.NewObject("985", "U1", "D1", "S1", "2024-01-01")
	inserted, err := s.AddObject(ctx, obj)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.AddObject(ctx, obj)
	require.NoError(t, err)
	assert.False(t, inserted)

	var n int64
	require.NoError(t, gdb.Model(&models.ReviewedObject{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	_, err = s.AddObject(ctx, models.NewObject("985", "", "D1", "S1", "2024-01-01"))
	assert.True(t, apperr.IsValidation(err))
}

func TestAddCommentDedup(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	obj := testutils.CreateTestObject(t, gdb)
	c := models.NewComment(obj.ObjectID, "nice mentor", "2024-01-01", models.SourceTelegram, models.TypeTeacher, "otp")

	inserted, err := s.AddComment(ctx, c)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := models.NewComment(obj.ObjectID, "nice mentor", "2024-01-01", models.SourceWeb, models.TypeTeacher, "")
	assert.Equal(t, c.ID, again.ID)
	inserted, err = s.AddComment(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	coms, err := s.CommentsByTarget(ctx, obj.ObjectID)
	require.NoError(t, err)
	require.Len(t, coms, 1)
	assert.Equal(t, models.SourceTelegram, coms[0].SourceCate)
	require.NotNil(t, coms[0].AuthorSign)
	assert.True(t, identity.VerifyAuthor(c.ID, "otp", *coms[0].AuthorSign))

	_, err = s.AddComment(ctx, models.NewComment(obj.ObjectID, "  ", "2024-01-01", models.SourceWeb, models.TypeTeacher, ""))
	assert.True(t, apperr.IsValidation(err))

	bad := models.NewComment(obj.ObjectID, "x", "2024-01-01", models.SourceCate("fax"), models.TypeTeacher, "")
	_, err = s.AddComment(ctx, bad)
	assert.True(t, apperr.IsValidation(err))
}

func TestObjectOrCommentKind(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	obj := testutils.CreateTestObject(t, gdb)
	com := testutils.CreateTestComment(t, gdb, obj.ObjectID)

	kind, err := s.ObjectOrCommentKind(ctx, obj.ObjectID)
	require.NoError(t, err)
	assert.Equal(t, KindObject, kind)

	kind, err = s.ObjectOrCommentKind(ctx, com.ID)
	require.NoError(t, err)
	assert.Equal(t, KindComment, kind)

	kind, err = s.ObjectOrCommentKind(ctx, "0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, KindNone, kind)

	got, err := s.FindCommentByID(ctx, com.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "nice mentor", got.Description)
}

func TestFuzzyFindSupervisors(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D1", fmt.Sprintf("Zhang%d", i)))
	}
	testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D1", "Li"))

	res, err := s.FuzzyFindSupervisors(ctx, "Zhang%", 3)
	require.NoError(t, err)
	assert.Len(t, res.Items, 3)
	assert.Equal(t, int64(5), res.Total)
	assert.True(t, res.Truncated())
	assert.Equal(t, "Zhang0", res.Items[0].Supervisor)
	assert.Equal(t, identity.ObjectID("U1", "D1", "Zhang0"), res.Items[0].ObjectID)

	res, err = s.FuzzyFindSupervisors(ctx, "L_", 3)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.False(t, res.Truncated())

	res, err = s.FuzzyFindSupervisors(ctx, "Wang%", 3)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.False(t, res.Truncated())

	_, err = s.FuzzyFindSupervisors(ctx, " ", 3)
	assert.True(t, apperr.IsValidation(err))
}

func TestFuzzyFindComments(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)
	ctx := context.Background()

	obj := testutils.CreateTestObject(t, gdb)
	testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("very nice mentor"))
	testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("terrible lab"))

	res, err := s.FuzzyFindComments(ctx, "%nice%", 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "very nice mentor", res.Items[0].Description)
	assert.Equal(t, int64(1), res.Total)
}

func TestAggregateStatus(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)

	old := testutils.CreateTestObject(t, gdb, testutils.WithObjectDate("2020-01-01"))
	testutils.CreateTestObject(t, gdb, testutils.WithPath("985", "U1", "D1", "S2"), testutils.WithObjectDate("2024-05-01"))
	testutils.CreateTestComment(t, gdb, old.ObjectID, testutils.WithCommentDate("2019-01-01"))
	testutils.CreateTestComment(t, gdb, old.ObjectID, testutils.WithContent("recent"), testutils.WithCommentDate("2024-06-01"))

	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	st, err := s.AggregateStatus(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, Status{
		Objects:     2,
		Comments:    2,
		NewObjects:  1,
		NewComments: 1,
		Since:       "2023-07-02",
	}, st)
}

func TestStorageErrorOnClosedDB(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = s.ListCategories(context.Background())
	require.Error(t, err)
	var se *apperr.StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "list categories", se.Op)
}

func TestRecentComments(t *testing.T) {
	gdb := testutils.SetupTestDB(t)
	s := New(gdb)

	obj := testutils.CreateTestObject(t, gdb)
	old := testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("old"), testutils.WithCommentDate("2023-01-01"))
	mid := testutils.CreateTestComment(t, gdb, obj.ObjectID, testutils.WithContent("mid"), testutils.WithCommentDate("2023-06-01"))
	reply := testutils.CreateTestComment(t, gdb, mid.ID, testutils.WithContent("reply"), testutils.WithCommentDate("2024-01-01"), testutils.WithType(models.TypeNest))

	coms, err := s.RecentComments(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, coms, 2)
	assert.Equal(t, reply.ID, coms[0].ID)
	assert.Equal(t, mid.ID, coms[1].ID)

	coms, err = s.RecentComments(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, coms, 3)
	assert.Equal(t, old.ID, coms[2].ID)
}
