package service

import (
	"context"
	"testing"
	"time"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeHabitStore struct {
	habits   map[uint]model.Habit
	checkins []model.HabitCheckin
	nextID   uint
}

func newFakeHabitStore() *fakeHabitStore {
	return &fakeHabitStore{habits: make(map[uint]model.Habit), nextID: 1}
}

func (s *fakeHabitStore) Create(habit *model.Habit) error {
	habit.ID = s.nextID
	s.nextID++
	s.habits[habit.ID] = *habit
	return nil
}

func (s *fakeHabitStore) FindByIDAndUser(habitID, userID uint) (*model.Habit, error) {
	h, ok := s.habits[habitID]
	if !ok || h.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return &h, nil
}

func (s *fakeHabitStore) FindByUser(userID uint, includeArchived bool) ([]model.Habit, error) {
	var out []model.Habit
	for id := uint(1); id < s.nextID; id++ {
		h, ok := s.habits[id]
		if !ok || h.UserID != userID {
			continue
		}
		if h.IsArchived && !includeArchived {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *fakeHabitStore) Update(habit *model.Habit) error {
	s.habits[habit.ID] = *habit
	return nil
}

func (s *fakeHabitStore) FindCheckin(habitID uint, date time.Time) (*model.HabitCheckin, error) {
	for i := range s.checkins {
		c := s.checkins[i]
		if c.HabitID == habitID && c.CheckinDate.Equal(date) {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeHabitStore) CreateCheckin(checkin *model.HabitCheckin) error {
	for _, c := range s.checkins {
		if c.HabitID == checkin.HabitID && c.CheckinDate.Equal(checkin.CheckinDate) {
			return gorm.ErrDuplicatedKey
		}
	}
	checkin.ID = uint(len(s.checkins) + 1)
	s.checkins = append(s.checkins, *checkin)
	return nil
}

func (s *fakeHabitStore) CountCheckins(userID uint) (int64, error) {
	var n int64
	for _, c := range s.checkins {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeHabitStore) CountHabits(userID uint) (int64, error) {
	var n int64
	for _, h := range s.habits {
		if h.UserID == userID && !h.IsArchived {
			n++
		}
	}
	return n, nil
}

type fixedStreak struct {
	delta int64
}

func (f fixedStreak) StreakDelta(_ *model.Habit, _ *model.HabitCheckin) int64 {
	return f.delta
}

func newHabitFixture(t *testing.T, streaks StreakProvider, achievements ...model.Achievement) (*HabitService, *fakeHabitStore, *fakeStore) {
	t.Helper()
	habitStore := newFakeHabitStore()
	achStore := newFakeStore(achievements...)
	svc := NewHabitService(habitStore, NewAchievementService(achStore), streaks)
	return svc, habitStore, achStore
}

func mustCreateHabit(t *testing.T, svc *HabitService, userID uint) *model.Habit {
	t.Helper()
	habit, err := svc.Create(userID, HabitRequest{Title: "晨跑"})
	require.NoError(t, err)
	return habit
}

func TestCompleteFeedsAchievementProgress(t *testing.T) {
	first := testAchievement(1, 1, 10)
	hundred := testAchievement(2, 100, 500)
	svc, habitStore, achStore := newHabitFixture(t, nil, first, hundred)

	habit := mustCreateHabit(t, svc, 1)

	res, err := svc.Complete(context.Background(), 1, habit.ID, "跑了五公里")
	require.NoError(t, err)
	require.NotNil(t, res.Checkin)
	require.Len(t, habitStore.checkins, 1)

	// 每个 total_completions 成就各 +1
	require.Equal(t, 2, res.Achievements.SuccessfulUpdates)

	// 目标为 1 的成就立即解锁
	require.Len(t, achStore.awards, 1)
	require.Equal(t, 10, achStore.balances[1])

	// 目标为 100 的成就只累计进度
	p, err := achStore.FindProgress(context.Background(), 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.CurrentValue)
	require.Equal(t, 1, p.PercentComplete)
}

func TestCompleteTwiceSameDay(t *testing.T) {
	svc, habitStore, _ := newHabitFixture(t, nil, testAchievement(1, 100, 0))

	habit := mustCreateHabit(t, svc, 1)
	ctx := context.Background()

	_, err := svc.Complete(ctx, 1, habit.ID, "")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, 1, habit.ID, "")
	require.ErrorIs(t, err, util.ErrAlreadyCheckedIn)
	require.Len(t, habitStore.checkins, 1)

	// 重复打卡不会重复累计进度
	p, err := svc.Achievement.Store.FindProgress(ctx, 1, 1)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.CurrentValue)
}

func TestCompleteArchivedHabit(t *testing.T) {
	svc, _, _ := newHabitFixture(t, nil)

	habit := mustCreateHabit(t, svc, 1)
	require.NoError(t, svc.Archive(1, habit.ID))

	_, err := svc.Complete(context.Background(), 1, habit.ID, "")
	require.ErrorIs(t, err, util.ErrHabitArchived)
}

func TestCompleteWrongOwner(t *testing.T) {
	svc, _, _ := newHabitFixture(t, nil)

	habit := mustCreateHabit(t, svc, 1)

	_, err := svc.Complete(context.Background(), 2, habit.ID, "")
	require.ErrorIs(t, err, util.ErrHabitNotFound)
}

func TestCompleteWithStreakProvider(t *testing.T) {
	total := testAchievement(1, 100, 0)
	streak := testAchievement(2, 7, 30)
	streak.CriteriaType = model.CriteriaStreakDays

	svc, _, achStore := newHabitFixture(t, fixedStreak{delta: 3}, total, streak)

	habit := mustCreateHabit(t, svc, 1)

	res, err := svc.Complete(context.Background(), 1, habit.ID, "")
	require.NoError(t, err)
	require.Equal(t, 2, res.Achievements.SuccessfulUpdates)

	p, err := achStore.FindProgress(context.Background(), 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, p.CurrentValue)
}

func TestCompleteWithoutStreakProvider(t *testing.T) {
	streak := testAchievement(1, 7, 30)
	streak.CriteriaType = model.CriteriaStreakDays

	svc, _, achStore := newHabitFixture(t, nil, streak)

	habit := mustCreateHabit(t, svc, 1)

	res, err := svc.Complete(context.Background(), 1, habit.ID, "")
	require.NoError(t, err)

	// 未注入 streak 服务时，streak_days 类成就不被触碰
	require.Equal(t, 0, res.Achievements.SuccessfulUpdates)
	require.Empty(t, achStore.progress)
}

func TestListExcludesArchived(t *testing.T) {
	svc, _, _ := newHabitFixture(t, nil)

	keep := mustCreateHabit(t, svc, 1)
	gone := mustCreateHabit(t, svc, 1)
	require.NoError(t, svc.Archive(1, gone.ID))

	habits, err := svc.List(1, false)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	require.Equal(t, keep.ID, habits[0].ID)

	all, err := svc.List(1, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
