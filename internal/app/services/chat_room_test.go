package services

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func (f *fixture) student(t *testing.T, username string, school *models.School, grade string) *session.Viewer {
	t.Helper()
	u := &models.User{Email: username + "@example.com", PasswordHash: "unused"}
	p := &models.Profile{Username: username, SchoolID: &school.ID, GradeLevel: &grade}
	require.NoError(t, f.repos.Users.CreateWithProfile(f.ctx, u, p))
	return f.resolve(t, u.ID, u.Email)
}

func (f *fixture) chat(t *testing.T, school *models.School, name string, grade *string) *models.GroupChat {
	t.Helper()
	c := &models.GroupChat{SchoolID: school.ID, Name: name, GradeLevel: grade}
	require.NoError(t, f.repos.Chats.CreateChat(f.ctx, c))
	return c
}

func (f *fixture) room(t *testing.T, v *session.Viewer) *ChatRoom {
	t.Helper()
	room, err := NewChatRoom(f.svc.Chats, f.broker, v, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(room.Close)
	return room
}

func TestListChatsFiltersByGrade(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	other := f.school(t, "Remote")
	f.chat(t, school, "Whole school", nil)
	f.chat(t, school, "Grade 10", strp("10"))
	f.chat(t, school, "Grade 11", strp("11"))
	f.chat(t, other, "Elsewhere", nil)

	tenth := f.student(t, "tenth", school, "10")
	chats, err := f.svc.Chats.ListChats(f.ctx, tenth)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Grade 10", chats[0].Name)
	assert.Equal(t, "Whole school", chats[1].Name)

	drifter := f.viewer(t, "drifter", nil)
	chats, err = f.svc.Chats.ListChats(f.ctx, drifter)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestChatRoomHistoryAndPush(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	general := f.chat(t, school, "General", nil)
	alice := f.student(t, "alice", school, "10")
	bruno := f.student(t, "bruno", school, "11")

	_, err := f.svc.Chats.SendMessage(f.ctx, alice, general.ID, "hello")
	require.NoError(t, err)
	_, err = f.svc.Chats.SendMessage(f.ctx, bruno, general.ID, "hi alice")
	require.NoError(t, err)

	room := f.room(t, alice)
	require.NoError(t, room.Switch(f.ctx, general.ID))
	assert.Equal(t, general.ID, room.ChatID())
	history := room.Messages()
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "bruno", *history[1].SenderUsername)

	sent, err := f.svc.Chats.SendMessage(f.ctx, bruno, general.ID, "  how are you  ")
	require.NoError(t, err)
	assert.Equal(t, "how are you", sent.Content)

	got := recv(t, room.Updates())
	assert.Equal(t, sent.ID, got.ID)
	require.NotNil(t, got.SenderUsername)
	assert.Equal(t, "bruno", *got.SenderUsername)
	assert.Len(t, room.Messages(), 3)

	mine, err := room.Send(f.ctx, "fine")
	require.NoError(t, err)
	assert.Equal(t, "alice", *mine.SenderUsername)
	assert.Equal(t, mine.ID, recv(t, room.Updates()).ID)

	_, err = room.Send(f.ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestChatRoomLongMultibyteMessage(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	general := f.chat(t, school, "General", nil)
	alice := f.student(t, "alice", school, "10")
	room := f.room(t, alice)
	require.NoError(t, room.Switch(f.ctx, general.ID))

	content := strings.Repeat("😀", 2000)
	sent, err := room.Send(f.ctx, content)
	require.NoError(t, err)
	assert.Equal(t, content, sent.Content)
	got := recv(t, room.Updates())
	assert.Equal(t, content, got.Content)

	_, err = room.Send(f.ctx, content+"😀")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestChatRoomSwitchDropsPreviousChat(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	first := f.chat(t, school, "First", nil)
	second := f.chat(t, school, "Second", nil)
	alice := f.student(t, "alice", school, "10")
	bruno := f.student(t, "bruno", school, "10")

	room := f.room(t, alice)
	require.NoError(t, room.Switch(f.ctx, first.ID))
	require.NoError(t, room.Switch(f.ctx, second.ID))
	assert.Equal(t, 1, f.broker.SubscriberCount(models.RelationMessages))

	_, err := f.svc.Chats.SendMessage(f.ctx, bruno, first.ID, "to the old chat")
	require.NoError(t, err)
	assertQuiet(t, room.Updates())
	assert.Empty(t, room.Messages())

	msg, err := f.svc.Chats.SendMessage(f.ctx, bruno, second.ID, "to the new chat")
	require.NoError(t, err)
	assert.Equal(t, msg.ID, recv(t, room.Updates()).ID)
	require.Len(t, room.Messages(), 1)
	assert.Equal(t, second.ID, room.Messages()[0].ChatID)
}

func TestChatAccessControl(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	other := f.school(t, "Remote")
	remote := f.chat(t, other, "Remote chat", nil)
	eleventh := f.chat(t, school, "Grade 11", strp("11"))
	alice := f.student(t, "alice", school, "10")

	_, err := f.svc.Chats.ListMessages(f.ctx, alice, remote.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Chats.SendMessage(f.ctx, alice, eleventh.ID, "sneaky")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = f.svc.Chats.ListMessages(f.ctx, alice, "missing")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	room := f.room(t, alice)
	err = room.Switch(f.ctx, remote.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Empty(t, room.ChatID())
	assert.Equal(t, 0, f.broker.SubscriberCount(models.RelationMessages))

	_, err = NewChatRoom(f.svc.Chats, f.broker, session.Guest(), zerolog.Nop())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestChatRoomClose(t *testing.T) {
	f := newFixture(t)
	school := f.school(t, "Central")
	general := f.chat(t, school, "General", nil)
	alice := f.student(t, "alice", school, "10")

	room, err := NewChatRoom(f.svc.Chats, f.broker, alice, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, room.Switch(f.ctx, general.ID))

	room.Close()
	room.Close()
	assert.Equal(t, 0, f.broker.SubscriberCount(models.RelationMessages))
	_, ok := <-room.Updates()
	assert.False(t, ok)
	require.NoError(t, room.Switch(f.ctx, general.ID))
	assert.Equal(t, 0, f.broker.SubscriberCount(models.RelationMessages))
}
