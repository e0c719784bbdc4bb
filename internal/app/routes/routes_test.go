package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/controllers"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/repositories/memory"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/middleware"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
	"github.com/yigit/schoolyard/internal/pkg/websocket"
	"golang.org/x/crypto/bcrypt"
)

type apiFixture struct {
	engine *gin.Engine
	repos  *repositories.Repositories
	school *models.School
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())
	auth.BcryptCost = bcrypt.MinCost

	broker := realtime.NewBroker(zerolog.Nop(), 16)
	repos := memory.New(broker).Repositories()
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	svc := services.New(repos, jwt, services.Options{}, zerolog.Nop())

	engine := gin.New()
	SetupRouter(
		engine,
		controllers.New(svc, zerolog.Nop()),
		middleware.NewAuthMiddleware(jwt, svc.Identity, zerolog.Nop()),
		websocket.NewHandler(websocket.NewHub(zerolog.Nop()), svc.Notifications, svc.Chats, broker, nil, zerolog.Nop()),
	)

	school := &models.School{Name: "Central"}
	require.NoError(t, repos.Schools.Create(context.Background(), school))
	return &apiFixture{engine: engine, repos: repos, school: school}
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// register signs up a student at the fixture school and returns its token
func (f *apiFixture) register(t *testing.T, username string) string {
	t.Helper()
	status, env := f.call(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    username + "@example.com",
		"password": "correct horse",
		"username": username,
		"schoolId": f.school.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(env.Data))
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token.AccessToken)
	return resp.Token.AccessToken
}

func TestPing(t *testing.T) {
	f := newAPIFixture(t)
	status, env := f.call(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestRegisterLoginAndMe(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t, "ada")

	status, env := f.call(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "ada@example.com", "password": "correct horse", "username": "ada_two",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)

	status, env = f.call(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "bad", "password": "short", "username": "x y",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)

	status, _ = f.call(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = f.call(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, http.StatusOK, status)
	var login dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &login))

	status, env = f.call(t, http.MethodGet, "/api/v1/auth/me", login.Token.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me dto.ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "ada", me.Username)
	assert.Equal(t, f.school.ID, *me.SchoolID)

	status, _ = f.call(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGuestReadsButCannotWrite(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ada")
	status, _ := f.call(t, http.MethodPost, "/api/v1/posts", token, gin.H{"content": "first post"})
	require.Equal(t, http.StatusCreated, status)

	status, env := f.call(t, http.MethodGet, "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, status)
	var posts []dto.PostView
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Nil(t, posts[0].UserVote)

	status, _ = f.call(t, http.MethodPost, "/api/v1/posts", "", gin.H{"content": "sneaky"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodPost, "/api/v1/posts/"+posts[0].ID+"/vote", "", gin.H{"direction": "up"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = f.call(t, http.MethodGet, "/api/v1/posts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestVoteFlow(t *testing.T) {
	f := newAPIFixture(t)
	author := f.register(t, "ada")
	voter := f.register(t, "grace")

	status, env := f.call(t, http.MethodPost, "/api/v1/posts?sort=new", author, gin.H{"content": "vote on me"})
	require.Equal(t, http.StatusCreated, status)
	var posts []dto.PostView
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	postID := posts[0].ID

	vote := func(direction string) dto.PostView {
		status, env := f.call(t, http.MethodPost, "/api/v1/posts/"+postID+"/vote", voter, gin.H{"direction": direction})
		require.Equal(t, http.StatusOK, status)
		var feed []dto.PostView
		require.NoError(t, json.Unmarshal(env.Data, &feed))
		require.Len(t, feed, 1)
		return feed[0]
	}

	post := vote("up")
	assert.Equal(t, 1, post.Votes)
	require.NotNil(t, post.UserVote)
	assert.Equal(t, models.VoteUp, *post.UserVote)

	post = vote("down")
	assert.Equal(t, -1, post.Votes)

	post = vote("down")
	assert.Equal(t, 0, post.Votes)
	assert.Nil(t, post.UserVote)

	status, _ = f.call(t, http.MethodPost, "/api/v1/posts/"+postID+"/vote", voter, gin.H{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = f.call(t, http.MethodPost, "/api/v1/posts/not-a-uuid/vote", voter, gin.H{"direction": "up"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrorCodeBadRequest, env.Error.Code)

	status, _ = f.call(t, http.MethodPost, "/api/v1/posts/8a3b9c1e-2f4d-4e5a-9b6c-7d8e9f0a1b2c/vote", voter, gin.H{"direction": "up"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.call(t, http.MethodGet, "/api/v1/posts?sort=random", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCommentsAndNotifications(t *testing.T) {
	f := newAPIFixture(t)
	author := f.register(t, "ada")
	commenter := f.register(t, "grace")

	_, env := f.call(t, http.MethodPost, "/api/v1/posts", author, gin.H{"content": "talk to me"})
	var posts []dto.PostView
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	postID := posts[0].ID

	status, _ := f.call(t, http.MethodPost, "/api/v1/posts/"+postID+"/comments", commenter, gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, status)

	status, env = f.call(t, http.MethodGet, "/api/v1/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	var comments []dto.CommentView
	require.NoError(t, json.Unmarshal(env.Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "grace", *comments[0].AuthorUsername)

	status, env = f.call(t, http.MethodGet, "/api/v1/notifications/unread-count", author, nil)
	require.Equal(t, http.StatusOK, status)
	var count struct {
		UnreadCount int `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.Equal(t, 1, count.UnreadCount)

	status, _ = f.call(t, http.MethodPost, "/api/v1/notifications/read-all", author, nil)
	require.Equal(t, http.StatusOK, status)
	_, env = f.call(t, http.MethodGet, "/api/v1/notifications/unread-count", author, nil)
	require.NoError(t, json.Unmarshal(env.Data, &count))
	assert.Equal(t, 0, count.UnreadCount)
}

func TestFriendRequestFlow(t *testing.T) {
	f := newAPIFixture(t)
	ada := f.register(t, "ada")
	grace := f.register(t, "grace")

	_, env := f.call(t, http.MethodGet, "/api/v1/auth/me", grace, nil)
	var graceProfile dto.ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &graceProfile))

	status, _ := f.call(t, http.MethodPost, "/api/v1/friends/requests", ada, gin.H{"receiverId": graceProfile.ID})
	require.Equal(t, http.StatusCreated, status)

	status, env = f.call(t, http.MethodGet, "/api/v1/friends/requests", grace, nil)
	require.Equal(t, http.StatusOK, status)
	var pending []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	requestID, _ := pending[0]["id"].(string)

	status, _ = f.call(t, http.MethodPost, "/api/v1/friends/requests/"+requestID+"/accept", ada, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.call(t, http.MethodPost, "/api/v1/friends/requests/"+requestID+"/accept", grace, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = f.call(t, http.MethodGet, "/api/v1/friends", ada, nil)
	require.Equal(t, http.StatusOK, status)
	var friends []dto.Friend
	require.NoError(t, json.Unmarshal(env.Data, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, "grace", friends[0].Username)
}

func TestRateTeacher(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ada")
	teacher := &models.Teacher{SchoolID: f.school.ID, Name: "Mr. Keating"}
	require.NoError(t, f.repos.Teachers.Create(context.Background(), teacher))
	path := "/api/v1/teachers/" + teacher.ID + "/ratings"

	status, env := f.call(t, http.MethodPost, path, token, gin.H{"score": 6})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)

	status, env = f.call(t, http.MethodPost, path, token, gin.H{"score": 4, "comment": "inspiring"})
	require.Equal(t, http.StatusOK, status)
	var teachers []dto.TeacherView
	require.NoError(t, json.Unmarshal(env.Data, &teachers))
	require.Len(t, teachers, 1)
	assert.Equal(t, 4.0, teachers[0].AverageRating)
	require.NotNil(t, teachers[0].UserRating)
	assert.Equal(t, 4, *teachers[0].UserRating)

	status, env = f.call(t, http.MethodPost, path, token, gin.H{"score": 2})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &teachers))
	assert.Equal(t, 1, teachers[0].TotalRatings)
	assert.Equal(t, 2.0, teachers[0].AverageRating)

	status, env = f.call(t, http.MethodGet, "/api/v1/teachers?schoolId="+f.school.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &teachers))
	assert.Nil(t, teachers[0].UserRating)
}

func TestInterests(t *testing.T) {
	f := newAPIFixture(t)
	token := f.register(t, "ada")

	status, env := f.call(t, http.MethodPost, "/api/v1/interests/Programming/toggle", token, nil)
	require.Equal(t, http.StatusOK, status)
	var resp struct {
		Interests []string `json:"interests"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, []string{"Programming"}, resp.Interests)

	status, env = f.call(t, http.MethodPost, "/api/v1/interests/Programming/toggle", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Empty(t, resp.Interests)
}
