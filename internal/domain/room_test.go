package domain

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC)

func testQuestions(n int) []QuestionSnapshot {
	out := make([]QuestionSnapshot, n)
	for i := range out {
		out[i] = QuestionSnapshot{
			ID:            "q" + strconv.Itoa(i+1),
			Prompt:        "prompt " + strconv.Itoa(i+1),
			Points:        10,
			Options:       []Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
			CorrectAnswer: "a",
			Explanation:   "because",
		}
	}
	return out
}

func newTestRoom(t *testing.T, cfg RoomConfig, guests ...string) *Room {
	t.Helper()
	room := NewRoom("abc234", "host", Profile{DisplayName: "Host"}, cfg, t0)
	for _, id := range guests {
		_, err := room.Join(id, Profile{DisplayName: id}, t0)
		require.NoError(t, err)
	}
	return room
}

func startedRoom(t *testing.T, cfg RoomConfig, guests ...string) *Room {
	t.Helper()
	room := newTestRoom(t, cfg, guests...)
	_, err := room.Begin(testQuestions(room.Config.QuestionsCount), t0, 5*time.Second)
	require.NoError(t, err)
	return room
}

func TestNewRoom(t *testing.T) {
	room := NewRoom(" abc234 ", "host", Profile{DisplayName: "Host"}, RoomConfig{}, t0)

	assert.Equal(t, "ABC234", room.Code)
	assert.Equal(t, StatusWaiting, room.Status)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].Ready)
	assert.True(t, room.Players[0].Online)
	assert.Equal(t, DefaultMaxPlayers, room.Config.MaxPlayers)
}

func TestJoin(t *testing.T) {
	room := newTestRoom(t, RoomConfig{MaxPlayers: 2})

	joined, err := room.Join("b", Profile{DisplayName: "B"}, t0)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.False(t, room.Players[1].Ready)

	joined, err = room.Join("b", Profile{DisplayName: "B again"}, t0)
	require.NoError(t, err)
	assert.False(t, joined, "rejoin is a no-op")
	assert.Len(t, room.Players, 2)
	assert.Equal(t, "B", room.Players[1].DisplayName)

	_, err = room.Join("c", Profile{DisplayName: "C"}, t0)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestJoinAfterStartIsRejected(t *testing.T) {
	room := startedRoom(t, RoomConfig{QuestionsCount: 2}, "b")

	_, err := room.Join("c", Profile{DisplayName: "C"}, t0)
	assert.ErrorIs(t, err, ErrRoomNotJoinable)

	joined, err := room.Join("b", Profile{DisplayName: "B"}, t0)
	require.NoError(t, err, "existing players can reconnect")
	assert.False(t, joined)
}

func TestSetReady(t *testing.T) {
	room := newTestRoom(t, RoomConfig{}, "b")
	assert.False(t, room.AllReady())

	require.NoError(t, room.SetReady("b", true))
	assert.True(t, room.AllReady())

	assert.ErrorIs(t, room.SetReady("ghost", true), ErrPlayerNotInRoom)
}

func TestLeavePassesHostToEarliestJoined(t *testing.T) {
	room := newTestRoom(t, RoomConfig{}, "b", "c")

	require.NoError(t, room.Leave("host", t0))
	assert.Equal(t, "b", room.HostID)
	assert.Len(t, room.Players, 2)

	require.NoError(t, room.Leave("c", t0))
	assert.Equal(t, "b", room.HostID)

	require.NoError(t, room.Leave("b", t0))
	assert.True(t, room.IsEmpty())
	assert.Empty(t, room.HostID)
	assert.Equal(t, StatusWaiting, room.Status)

	assert.ErrorIs(t, room.Leave("b", t0), ErrPlayerNotInRoom)
}

func TestLeaveEmptyingStartedRoomCancels(t *testing.T) {
	room := startedRoom(t, RoomConfig{QuestionsCount: 1}, "b")

	require.NoError(t, room.Leave("host", t0))
	assert.Equal(t, StatusInProgress, room.Status)
	require.NoError(t, room.Leave("b", t0.Add(time.Minute)))
	assert.Equal(t, StatusCancelled, room.Status)
	assert.Equal(t, t0.Add(time.Minute), room.EndedAt)
}

func TestJoinAfterLastLeaveTakesHost(t *testing.T) {
	room := newTestRoom(t, RoomConfig{})
	require.NoError(t, room.Leave("host", t0))
	assert.Empty(t, room.HostID)

	joined, err := room.Join("b", Profile{DisplayName: "B"}, t0)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, "b", room.HostID)
	assert.ErrorIs(t, room.CanStart("b"), ErrInsufficientPlayers)
}

func TestCanStart(t *testing.T) {
	room := newTestRoom(t, RoomConfig{})
	assert.ErrorIs(t, room.CanStart("host"), ErrInsufficientPlayers)

	_, err := room.Join("b", Profile{DisplayName: "B"}, t0)
	require.NoError(t, err)
	assert.ErrorIs(t, room.CanStart("b"), ErrNotHost)
	assert.NoError(t, room.CanStart("host"))

	_, err = room.Begin(testQuestions(room.Config.QuestionsCount), t0, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, room.CanStart("host"), ErrInvalidTransition)
}

func TestBeginWithTooFewQuestionsLeavesRoomUntouched(t *testing.T) {
	room := newTestRoom(t, RoomConfig{QuestionsCount: 5}, "b")

	_, err := room.Begin(testQuestions(4), t0, 5*time.Second)
	require.ErrorIs(t, err, ErrInsufficientQuestions)
	assert.Equal(t, StatusWaiting, room.Status)
	assert.Empty(t, room.Questions)
	assert.True(t, room.StartedAt.IsZero())
}

func TestBeginFreezesSnapshots(t *testing.T) {
	room := newTestRoom(t, RoomConfig{QuestionsCount: 2}, "b")
	questions := testQuestions(3)

	previews, err := room.Begin(questions, t0, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, previews, 2)
	assert.Equal(t, StatusInProgress, room.Status)
	assert.Equal(t, t0.Add(5*time.Second), room.StartedAt)

	questions[0].Options[0].Text = "mutated"
	assert.Equal(t, "A", room.Questions[0].Options[0].Text)
}

func TestSubmitAnswer(t *testing.T) {
	room := startedRoom(t, RoomConfig{QuestionsCount: 2, TimePerQuestion: 30}, "b")

	outcome, err := room.SubmitAnswer("host", 0, "a", 10, t0)
	require.NoError(t, err)
	assert.True(t, outcome.IsCorrect)
	assert.Equal(t, 13, outcome.AwardedPoints)
	assert.Equal(t, 13, outcome.NewPlayerScore)
	assert.Equal(t, "a", outcome.CorrectAnswer)
	require.Len(t, outcome.LiveStandings, 2)
	assert.Equal(t, "host", outcome.LiveStandings[0].UserID)

	outcome, err = room.SubmitAnswer("b", 0, "b", 5, t0)
	require.NoError(t, err)
	assert.False(t, outcome.IsCorrect)
	assert.Zero(t, outcome.AwardedPoints)

	_, err = room.SubmitAnswer("host", 0, "b", 1, t0)
	assert.ErrorIs(t, err, ErrDuplicateAnswer)
	assert.Equal(t, 2, room.Answers.Len())

	host, _ := room.Player("host")
	assert.Equal(t, 13, host.Score)
	assert.Equal(t, 1, host.CorrectAnswers)
	assert.Equal(t, 1, host.AnsweredCount)
	assert.Equal(t, 10.0, host.AverageTimeSeconds)

	_, err = room.SubmitAnswer("host", 1, "a", 20, t0)
	require.NoError(t, err)
	host, _ = room.Player("host")
	assert.Equal(t, 15.0, host.AverageTimeSeconds)
}

func TestSubmitAnswerPreconditionOrder(t *testing.T) {
	waiting := newTestRoom(t, RoomConfig{}, "b")
	_, err := waiting.SubmitAnswer("ghost", 99, "a", 1, t0)
	assert.ErrorIs(t, err, ErrBattleNotActive)

	room := startedRoom(t, RoomConfig{QuestionsCount: 2}, "b")
	_, err = room.SubmitAnswer("ghost", 99, "a", 1, t0)
	assert.ErrorIs(t, err, ErrPlayerNotInRoom)

	_, err = room.SubmitAnswer("b", 2, "a", 1, t0)
	assert.ErrorIs(t, err, ErrInvalidQuestionIndex)
	_, err = room.SubmitAnswer("b", -1, "a", 1, t0)
	assert.ErrorIs(t, err, ErrInvalidQuestionIndex)
}

func TestEnd(t *testing.T) {
	room := startedRoom(t, RoomConfig{QuestionsCount: 1}, "b")
	_, err := room.SubmitAnswer("b", 0, "a", 3, t0)
	require.NoError(t, err)

	rankings, err := room.End(t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "b", rankings[0].Player.UserID)
	assert.Equal(t, 100, rankings[0].XPEarned)
	assert.Equal(t, 60, rankings[1].XPEarned)
	assert.Equal(t, StatusFinished, room.Status)
	assert.Equal(t, "b", room.WinnerID)

	winner, ok := room.Winner()
	require.True(t, ok)
	assert.Equal(t, "b", winner.Player.UserID)

	_, err = room.End(t0)
	assert.ErrorIs(t, err, ErrAlreadyFinished)
	_, err = room.SubmitAnswer("host", 0, "a", 1, t0)
	assert.ErrorIs(t, err, ErrBattleNotActive)
}

func TestEndRequiresActiveBattle(t *testing.T) {
	room := newTestRoom(t, RoomConfig{}, "b")
	_, err := room.End(t0)
	assert.ErrorIs(t, err, ErrBattleNotActive)
	_, ok := room.Winner()
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	room := newTestRoom(t, RoomConfig{}, "b")
	assert.ErrorIs(t, room.Cancel("b", t0), ErrNotHost)
	require.NoError(t, room.Cancel("host", t0))
	assert.Equal(t, StatusCancelled, room.Status)
	assert.ErrorIs(t, room.Cancel("host", t0), ErrBattleNotActive)

	finished := startedRoom(t, RoomConfig{QuestionsCount: 1}, "b")
	_, err := finished.End(t0)
	require.NoError(t, err)
	assert.ErrorIs(t, finished.Cancel("host", t0), ErrAlreadyFinished)
}

func TestViewNeverLeaksAnswerKey(t *testing.T) {
	room := startedRoom(t, RoomConfig{QuestionsCount: 2}, "b")
	view := room.View()

	require.Len(t, view.Questions, 2)
	require.NotNil(t, view.StartedAt)
	assert.Nil(t, view.EndedAt)
	assert.Empty(t, view.WinnerID)
	assert.Empty(t, view.FinalRankings)

	view.Players[0].Score = 999
	assert.Zero(t, room.Players[0].Score, "view must not alias room state")
}

func TestSummaryAndListing(t *testing.T) {
	room := newTestRoom(t, RoomConfig{Subject: "math"}, "b")
	assert.True(t, room.Listed())

	summary := room.Summary()
	assert.Equal(t, "ABC234", summary.Code)
	assert.Equal(t, "Host", summary.HostName)
	assert.Equal(t, 2, summary.PlayerCount)
	assert.Equal(t, "math", summary.Subject)

	private := newTestRoom(t, RoomConfig{IsPrivate: true})
	assert.False(t, private.Listed())
}

func TestAnswerLedger(t *testing.T) {
	ledger := NewAnswerLedger()
	require.NoError(t, ledger.Append(0, AnswerRecord{UserID: "a"}))
	require.NoError(t, ledger.Append(0, AnswerRecord{UserID: "b"}))
	assert.ErrorIs(t, ledger.Append(0, AnswerRecord{UserID: "a"}), ErrDuplicateAnswer)
	require.NoError(t, ledger.Append(1, AnswerRecord{UserID: "a"}))

	assert.Equal(t, 3, ledger.Len())
	records := ledger.ForQuestion(0)
	require.Len(t, records, 2)
	records[0].UserID = "z"
	assert.True(t, ledger.Has(0, "a"))
	assert.False(t, ledger.Has(2, "a"))
}
