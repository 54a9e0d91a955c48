package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edtech/internal/database"
)

func (e *testEnv) seedCourses(t *testing.T) {
	t.Helper()
	_, err := e.courses.SeedCourses(context.Background(), []database.Course{
		{Title: "Python for Beginners", Description: "d", Category: "Programming", Price: 499, Rating: 4.7},
		{Title: "Data Science Masterclass", Description: "d", Category: "Data Science", Price: 999, Rating: 4.9},
	})
	require.NoError(t, err)
}

func TestCourses_ListAndGet(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourses(t)

	rec := env.do(t, http.MethodGet, "/v1/courses?sort=rating", nil, "")
	assertStatus(t, http.StatusOK, rec)
	courses := decode[[]courseResponse](t, rec)
	require.Len(t, courses, 2)
	assert.Equal(t, "Data Science Masterclass", courses[0].Title)

	rec = env.do(t, http.MethodGet, "/v1/courses?search=python", nil, "")
	assertStatus(t, http.StatusOK, rec)
	assert.Len(t, decode[[]courseResponse](t, rec), 1)

	assertStatus(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/courses?sort=title", nil, ""))
	assertStatus(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/courses/1", nil, ""))
	assertStatus(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/courses/42", nil, ""))
}

func TestCourses_EnrollIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourses(t)
	_, token := env.createAccount(t, "jane", "student", true)

	assertStatus(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/courses/1/enroll", nil, token))
	rec := env.do(t, http.MethodPost, "/v1/courses/1/enroll", nil, token)
	assertStatus(t, http.StatusOK, rec)
	assert.Contains(t, rec.Body.String(), "already enrolled")

	assertStatus(t, http.StatusNotFound, env.do(t, http.MethodPost, "/v1/courses/42/enroll", nil, token))

	rec = env.do(t, http.MethodGet, "/v1/me/courses", nil, token)
	assertStatus(t, http.StatusOK, rec)
	mine := decode[[]enrollmentResponse](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Python for Beginners", mine[0].Course.Title)
}

func TestCourses_UpdateProgress(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourses(t)
	_, token := env.createAccount(t, "jane", "student", true)
	_, otherToken := env.createAccount(t, "john", "student", true)

	rec := env.do(t, http.MethodPost, "/v1/courses/1/enroll", nil, token)
	assertStatus(t, http.StatusCreated, rec)
	enrollmentID := uint(decode[map[string]any](t, rec)["enrollment"].(map[string]any)["id"].(float64))
	path := fmt.Sprintf("/v1/enrollments/%d/progress", enrollmentID)

	rec = env.do(t, http.MethodPut, path, map[string]int{"progress": 150}, token)
	assertStatus(t, http.StatusOK, rec)
	assert.Equal(t, 100, decode[enrollmentResponse](t, rec).Progress)

	rec = env.do(t, http.MethodPut, path, map[string]int{"progress": 40}, token)
	assertStatus(t, http.StatusOK, rec)
	assert.Equal(t, 40, decode[enrollmentResponse](t, rec).Progress)

	assertStatus(t, http.StatusBadRequest, env.do(t, http.MethodPut, path, map[string]int{"progress": -1}, token))
	assertStatus(t, http.StatusBadRequest, env.do(t, http.MethodPut, path, map[string]string{}, token))
	assertStatus(t, http.StatusForbidden, env.do(t, http.MethodPut, path, map[string]int{"progress": 10}, otherToken))
	assertStatus(t, http.StatusNotFound, env.do(t, http.MethodPut, "/v1/enrollments/999/progress", map[string]int{"progress": 10}, token))
}

func TestAdmin_UpdateRole(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createAccount(t, "root", database.RoleAdmin, true)
	student, studentToken := env.createAccount(t, "jane", database.RoleStudent, true)
	path := fmt.Sprintf("/v1/admin/accounts/%d/role", student.ID)

	assertStatus(t, http.StatusForbidden, env.do(t, http.MethodGet, "/v1/admin/accounts", nil, studentToken))

	rec := env.do(t, http.MethodGet, "/v1/admin/accounts", nil, adminToken)
	assertStatus(t, http.StatusOK, rec)
	assert.Len(t, decode[[]accountResponse](t, rec), 2)

	assertStatus(t, http.StatusBadRequest, env.do(t, http.MethodPut, path, map[string]string{"role": "root"}, adminToken))
	assertStatus(t, http.StatusNotFound, env.do(t, http.MethodPut, "/v1/admin/accounts/999/role", map[string]string{"role": "admin"}, adminToken))

	rec = env.do(t, http.MethodPut, path, map[string]string{"role": database.RoleInstructor}, adminToken)
	assertStatus(t, http.StatusOK, rec)
	assert.Contains(t, rec.Body.String(), "Role updated for jane to instructor")

	updated, err := env.accounts.FindAccountByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, database.RoleInstructor, updated.Role)
}

func TestBlogs_CreateAndRead(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createAccount(t, "jane", database.RoleStudent, true)

	assertStatus(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/v1/blogs", map[string]string{"title": "t", "content": "c"}, ""))

	rec := env.do(t, http.MethodPost, "/v1/blogs", map[string]string{"title": "Hello", "content": "World"}, token)
	assertStatus(t, http.StatusCreated, rec)
	blog := decode[blogResponse](t, rec)
	assert.Equal(t, "jane", blog.Author)

	rec = env.do(t, http.MethodGet, "/v1/blogs", nil, "")
	assertStatus(t, http.StatusOK, rec)
	assert.Len(t, decode[[]blogResponse](t, rec), 1)

	assertStatus(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/v1/blogs/%d", blog.ID), nil, ""))
	assertStatus(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/blogs/999", nil, ""))
}
