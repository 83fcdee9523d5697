package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exercise-tracker/internal/apperror"
	"github.com/sakif/exercise-tracker/internal/handler"
	"github.com/sakif/exercise-tracker/internal/model"
	"github.com/sakif/exercise-tracker/internal/service"
)

// fakeRepo is an in-memory UserRepository for exercising the full
// handler -> service pipeline without a database.
type fakeRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*model.User)}
}

func (f *fakeRepo) Create(_ context.Context, user *model.User) error {
	f.nextID++
	user.ID = fmt.Sprintf("internal-%d", f.nextID)
	user.PublicID = fmt.Sprintf("pub%05d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	if user.Exercises == nil {
		user.Exercises = []model.Exercise{}
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return f.copyOf(u), nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeRepo) FindByPublicID(_ context.Context, publicID string) (*model.User, error) {
	for _, u := range f.users {
		if u.PublicID == publicID {
			return f.copyOf(u), nil
		}
	}
	return nil, apperror.NotFound("user", publicID)
}

func (f *fakeRepo) List(_ context.Context) ([]model.UserSummary, error) {
	out := []model.UserSummary{}
	for _, u := range f.users {
		out = append(out, model.UserSummary{Username: u.Username, PublicID: u.PublicID})
	}
	return out, nil
}

func (f *fakeRepo) AppendExercise(_ context.Context, userID string, ex model.Exercise) error {
	u, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	if ex.Date.IsZero() {
		ex.Date = time.Now().UTC()
	}
	u.Exercises = append(u.Exercises, ex)
	return nil
}

func (f *fakeRepo) copyOf(u *model.User) *model.User {
	out := *u
	out.Exercises = append([]model.Exercise{}, u.Exercises...)
	return &out
}

func newTestHandler(t *testing.T) (*handler.UserHandler, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewUserService(repo, logger)
	return handler.NewUserHandler(svc, logger), repo
}

func postForm(h http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func createUser(t *testing.T, h *handler.UserHandler, username string) string {
	t.Helper()
	rr := postForm(h.HandleCreateUser, "/api/exercise/new-user", url.Values{"username": {username}})
	require.Equal(t, http.StatusOK, rr.Code)

	var res map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotEmpty(t, res["user ID"], "create response missing user ID")
	return res["user ID"]
}

func TestHandleCreateUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, _ := newTestHandler(t)

		form := url.Values{"username": {"alice"}}
		req := httptest.NewRequest(http.MethodPost, "/api/exercise/new-user", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		req.Header.Set("User-Agent", "test-agent/1.0")
		rr := httptest.NewRecorder()

		h.HandleCreateUser(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "alice", res["username"])
		assert.NotEmpty(t, res["user ID"])
	})

	t.Run("JSON body accepted", func(t *testing.T) {
		h, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/exercise/new-user",
			strings.NewReader(`{"username":"bob"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleCreateUser(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "bob", res["username"])
	})

	t.Run("duplicate username is a 200 message, no second record", func(t *testing.T) {
		h, repo := newTestHandler(t)
		createUser(t, h, "alice")

		rr := postForm(h.HandleCreateUser, "/api/exercise/new-user", url.Values{"username": {"alice"}})

		assert.Equal(t, http.StatusOK, rr.Code)
		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Username already exists. Please try again ...", res["message"])
		assert.Len(t, repo.users, 1)
	})

	t.Run("over-long username is a 200 message", func(t *testing.T) {
		h, _ := newTestHandler(t)

		long := strings.Repeat("x", 32)
		rr := postForm(h.HandleCreateUser, "/api/exercise/new-user", url.Values{"username": {long}})

		assert.Equal(t, http.StatusOK, rr.Code)
		var res map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Username length exceeds maximum limit", res["message"])
	})

	t.Run("empty username is a 400", func(t *testing.T) {
		h, _ := newTestHandler(t)

		rr := postForm(h.HandleCreateUser, "/api/exercise/new-user", url.Values{"username": {"   "}})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "username is required")
	})
}

func TestHandleListUsers(t *testing.T) {
	h, _ := newTestHandler(t)
	idA := createUser(t, h, "alice")
	idB := createUser(t, h, "bob")

	req := httptest.NewRequest(http.MethodGet, "/api/exercise/users", nil)
	rr := httptest.NewRecorder()
	h.HandleListUsers(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var res []map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.Len(t, res, 2)

	// Store-native order only, so compare as a set.
	byName := map[string]string{}
	for _, entry := range res {
		byName[entry["username"]] = entry["ID"]
	}
	assert.Equal(t, idA, byName["alice"])
	assert.Equal(t, idB, byName["bob"])
}

func TestHandleAddExercise(t *testing.T) {
	t.Run("success without date defaults to now", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")

		rr := postForm(h.HandleAddExercise, "/api/exercise/add", url.Values{
			"userId":      {id},
			"description": {"run"},
			"duration":    {"30"},
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Username  string           `json:"username"`
			Exercises []model.Exercise `json:"exercises"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "alice", res.Username)
		require.Len(t, res.Exercises, 1)
		assert.Equal(t, "run", res.Exercises[0].Description)
		assert.Equal(t, float64(30), res.Exercises[0].Duration)
		assert.WithinDuration(t, time.Now().UTC(), res.Exercises[0].Date, time.Minute)
	})

	t.Run("returns the full updated list", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")

		postForm(h.HandleAddExercise, "/api/exercise/add", url.Values{
			"userId": {id}, "description": {"run"}, "duration": {"30"},
		})
		rr := postForm(h.HandleAddExercise, "/api/exercise/add", url.Values{
			"userId": {id}, "description": {"swim"}, "duration": {"20"}, "date": {"2024-03-02"},
		})

		var res struct {
			Exercises []model.Exercise `json:"exercises"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Len(t, res.Exercises, 2)
	})

	t.Run("JSON body with numeric duration", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")

		payload := fmt.Sprintf(`{"userId":%q,"description":"row","duration":25}`, id)
		req := httptest.NewRequest(http.MethodPost, "/api/exercise/add", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		h.HandleAddExercise(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res struct {
			Exercises []model.Exercise `json:"exercises"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		require.Len(t, res.Exercises, 1)
		assert.Equal(t, float64(25), res.Exercises[0].Duration)
	})

	t.Run("missing fields answer the invalid-ID message", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")

		for name, form := range map[string]url.Values{
			"no userId":      {"description": {"run"}, "duration": {"30"}},
			"no description": {"userId": {id}, "duration": {"30"}},
			"no duration":    {"userId": {id}, "description": {"run"}},
			"malformed id":   {"userId": {"not valid!"}, "description": {"run"}, "duration": {"30"}},
		} {
			rr := postForm(h.HandleAddExercise, "/api/exercise/add", form)
			assert.Equal(t, http.StatusOK, rr.Code, name)

			var res map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res), name)
			assert.Equal(t, "Please insert a valid ID ...", res["message"], name)
		}
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		h, _ := newTestHandler(t)

		rr := postForm(h.HandleAddExercise, "/api/exercise/add", url.Values{
			"userId": {"pub99999"}, "description": {"run"}, "duration": {"30"},
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("bad duration is a 400 with the field message", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")

		rr := postForm(h.HandleAddExercise, "/api/exercise/add", url.Values{
			"userId": {id}, "description": {"run"}, "duration": {"a while"},
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "duration must be a number")
	})
}

func TestHandleGetLog(t *testing.T) {
	addExercise := func(t *testing.T, h *handler.UserHandler, id, desc, dur, date string) {
		t.Helper()
		form := url.Values{"userId": {id}, "description": {desc}, "duration": {dur}}
		if date != "" {
			form.Set("date", date)
		}
		rr := postForm(h.HandleAddExercise, "/api/exercise/add", form)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	getLog := func(h *handler.UserHandler, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/exercise/log?"+query, nil)
		rr := httptest.NewRecorder()
		h.HandleGetLog(rr, req)
		return rr
	}

	t.Run("full log", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")
		addExercise(t, h, id, "run", "30", "2024-03-01")
		addExercise(t, h, id, "swim", "20", "2024-03-02")

		rr := getLog(h, "userId="+id)
		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			ID       string           `json:"id"`
			Username string           `json:"username"`
			Exercise []model.Exercise `json:"exercise"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, id, res.ID)
		assert.Equal(t, "alice", res.Username)
		assert.Len(t, res.Exercise, 2)
	})

	t.Run("limit truncates and count echoes the requested value", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")
		addExercise(t, h, id, "run", "30", "2024-03-01")
		addExercise(t, h, id, "swim", "20", "2024-03-02")
		addExercise(t, h, id, "lift", "10", "2024-03-03")

		rr := getLog(h, "userId="+id+"&limit=1")

		var res struct {
			Exercise []model.Exercise `json:"exercise"`
			Count    *int             `json:"count"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Len(t, res.Exercise, 1)
		require.NotNil(t, res.Count)
		assert.Equal(t, 1, *res.Count)
	})

	t.Run("range bounds echoed as date strings", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")
		addExercise(t, h, id, "run", "30", "2024-03-01")
		addExercise(t, h, id, "swim", "20", "2024-03-02")
		addExercise(t, h, id, "lift", "10", "2024-03-03")

		rr := getLog(h, "userId="+id+"&from=2024-03-02&to=2024-03-03")

		var res struct {
			Exercise []model.Exercise `json:"exercise"`
			From     string           `json:"from"`
			To       string           `json:"to"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Len(t, res.Exercise, 2)
		assert.Equal(t, "Sat Mar 02 2024", res.From)
		assert.Equal(t, "Sun Mar 03 2024", res.To)
	})

	t.Run("invalid bound omitted from the body entirely", func(t *testing.T) {
		h, _ := newTestHandler(t)
		id := createUser(t, h, "alice")
		addExercise(t, h, id, "run", "30", "2024-03-01")

		rr := getLog(h, "userId="+id+"&from=whenever")

		var res map[string]interface{}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		_, hasFrom := res["from"]
		assert.False(t, hasFrom, "unparseable from must not be echoed")
		_, hasCount := res["count"]
		assert.False(t, hasCount, "count must be absent without a limit")
	})

	t.Run("invalid id is a 200 message and never reaches the store", func(t *testing.T) {
		h, _ := newTestHandler(t)

		for _, id := range []string{"", "abcdefghijkl", "has spaces", "inv@lid"} {
			rr := getLog(h, "userId="+url.QueryEscape(id))
			assert.Equal(t, http.StatusOK, rr.Code)

			var res map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
			assert.Equal(t, "Not a valid Id...", res["message"], "id=%q", id)
		}
	})

	t.Run("unknown user is a 404", func(t *testing.T) {
		h, _ := newTestHandler(t)

		rr := getLog(h, "userId=pub00042")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
