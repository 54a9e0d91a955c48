package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edtech/internal/database"
	"edtech/internal/database/dbtest"
)

func seedCatalog(t *testing.T, store *database.CourseStore) {
	t.Helper()
	n, err := store.SeedCourses(context.Background(), []database.Course{
		{Title: "Python for Beginners", Description: "d", Category: "Programming", Price: 499, Rating: 4.7},
		{Title: "Data Science Masterclass", Description: "d", Category: "Data Science", Price: 999, Rating: 4.9},
		{Title: "Business Analytics with Excel", Description: "d", Category: "Business", Price: 799, Rating: 4.6},
		{Title: "UI/UX Design Bootcamp", Description: "d", Category: "Design", Price: 599, Rating: 4.8},
	})
	require.NoError(t, err)
	require.Equal(t, 4, n)
}

func titles(courses []database.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Title)
	}
	return out
}

func TestCourseStore_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := database.NewCourseStore(dbtest.Open(t))
	seedCatalog(t, store)

	all, err := store.ListCourses(ctx, database.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byPrice, err := store.ListCourses(ctx, database.CourseFilter{Sort: database.CourseSortPrice})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Python for Beginners", "UI/UX Design Bootcamp", "Business Analytics with Excel", "Data Science Masterclass",
	}, titles(byPrice))

	byRating, err := store.ListCourses(ctx, database.CourseFilter{Sort: database.CourseSortRating})
	require.NoError(t, err)
	assert.Equal(t, "Data Science Masterclass", byRating[0].Title)

	search, err := store.ListCourses(ctx, database.CourseFilter{Search: "PYTHON"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Python for Beginners"}, titles(search))

	design, err := store.ListCourses(ctx, database.CourseFilter{Category: "Design"})
	require.NoError(t, err)
	assert.Equal(t, []string{"UI/UX Design Bootcamp"}, titles(design))
}

func TestCourseStore_SeedIsIdempotent(t *testing.T) {
	store := database.NewCourseStore(dbtest.Open(t))
	seedCatalog(t, store)

	n, err := store.SeedCourses(context.Background(), []database.Course{
		{Title: "Python for Beginners", Description: "d", Category: "Programming", Price: 499, Rating: 4.7},
	})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCourseStore_EnrollAndProgress(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	store := database.NewCourseStore(db)
	seedCatalog(t, store)

	account := &database.Account{Username: "jane", Email: "jane@x.com", PasswordHash: "h"}
	require.NoError(t, database.NewAccountStore(db).CreateAccount(ctx, account))

	first, created, err := store.Enroll(ctx, account.ID, 1)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.Enroll(ctx, account.ID, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = store.Enroll(ctx, account.ID, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, store.UpdateProgress(ctx, first, 150))
	assert.Equal(t, database.MaxProgress, first.Progress)

	list, err := store.ListEnrollmentsByAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 100, list[0].Progress)
	assert.Equal(t, "Python for Beginners", list[0].Course.Title)
}

func TestBlogStore_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := database.NewBlogStore(dbtest.Open(t))

	require.NoError(t, store.CreateBlog(ctx, &database.Blog{Title: "first", Content: "c", Author: "jane"}))
	require.NoError(t, store.CreateBlog(ctx, &database.Blog{Title: "second", Content: "c", Author: "jane"}))

	blogs, err := store.ListBlogs(ctx)
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	assert.Equal(t, "second", blogs[0].Title)

	_, err = store.FindBlogByID(ctx, 42)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
