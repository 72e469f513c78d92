package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/repository"
	"habitloop_backend/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStore 内存版 repository.AchievementStore，
// AwardInTx 通过快照实现回滚语义
type fakeStore struct {
	achievements  map[uint]model.Achievement
	progress      map[string]model.AchievementProgress
	awards        map[string]model.UserAchievement
	ledger        []model.PointsTransaction
	balances      map[uint]int
	notifications []model.Notification

	// 注入积分入账失败，验证事务整体回滚
	failCredit bool
	// 让 FindAward 漏报一次，模拟两个请求同时通过幂等检查的竞争窗口
	blindAwardOnce bool
}

func newFakeStore(achievements ...model.Achievement) *fakeStore {
	s := &fakeStore{
		achievements: make(map[uint]model.Achievement),
		progress:     make(map[string]model.AchievementProgress),
		awards:       make(map[string]model.UserAchievement),
		balances:     make(map[uint]int),
	}
	for _, a := range achievements {
		s.achievements[a.ID] = a
	}
	return s
}

func pairKey(userID, achievementID uint) string {
	return fmt.Sprintf("%d:%d", userID, achievementID)
}

func (s *fakeStore) FindAchievement(_ context.Context, id uint) (*model.Achievement, error) {
	a, ok := s.achievements[id]
	if !ok {
		return nil, util.ErrAchievementNotFound
	}
	return &a, nil
}

func (s *fakeStore) ListAchievements(_ context.Context) ([]model.Achievement, error) {
	out := make([]model.Achievement, 0, len(s.achievements))
	for id := uint(1); id <= uint(len(s.achievements))+100; id++ {
		if a, ok := s.achievements[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAchievementsByCriteria(ctx context.Context, ct model.CriteriaType) ([]model.Achievement, error) {
	all, _ := s.ListAchievements(ctx)
	var out []model.Achievement
	for _, a := range all {
		if a.CriteriaType == ct {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) FindAward(_ context.Context, userID, achievementID uint) (*model.UserAchievement, error) {
	if s.blindAwardOnce {
		s.blindAwardOnce = false
		return nil, nil
	}
	a, ok := s.awards[pairKey(userID, achievementID)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *fakeStore) ListAwards(_ context.Context, userID uint) ([]model.UserAchievement, error) {
	var out []model.UserAchievement
	for _, a := range s.awards {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) FindProgress(_ context.Context, userID, achievementID uint) (*model.AchievementProgress, error) {
	p, ok := s.progress[pairKey(userID, achievementID)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeStore) ListProgress(_ context.Context, userID uint) ([]model.AchievementProgress, error) {
	var out []model.AchievementProgress
	for _, p := range s.progress {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertProgress(_ context.Context, userID uint, ach *model.Achievement, amount int64) (*model.AchievementProgress, error) {
	key := pairKey(userID, ach.ID)
	p, ok := s.progress[key]
	if !ok {
		p = model.AchievementProgress{
			UserID:        userID,
			AchievementID: ach.ID,
			CurrentValue:  amount,
			TargetValue:   ach.CriteriaValue,
		}
	} else {
		p.CurrentValue += amount
	}
	p.Recalc()
	p.UpdatedAt = time.Now()
	s.progress[key] = p
	return &p, nil
}

func (s *fakeStore) AwardInTx(_ context.Context, fn func(tx repository.AwardWriter) error) error {
	snapshot := s.snapshot()
	if err := fn(&fakeWriter{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type fakeState struct {
	progress      map[string]model.AchievementProgress
	awards        map[string]model.UserAchievement
	ledger        []model.PointsTransaction
	balances      map[uint]int
	notifications []model.Notification
}

func (s *fakeStore) snapshot() fakeState {
	st := fakeState{
		progress: make(map[string]model.AchievementProgress, len(s.progress)),
		awards:   make(map[string]model.UserAchievement, len(s.awards)),
		balances: make(map[uint]int, len(s.balances)),
	}
	for k, v := range s.progress {
		st.progress[k] = v
	}
	for k, v := range s.awards {
		st.awards[k] = v
	}
	for k, v := range s.balances {
		st.balances[k] = v
	}
	st.ledger = append(st.ledger, s.ledger...)
	st.notifications = append(st.notifications, s.notifications...)
	return st
}

func (s *fakeStore) restore(st fakeState) {
	s.progress = st.progress
	s.awards = st.awards
	s.balances = st.balances
	s.ledger = st.ledger
	s.notifications = st.notifications
}

type fakeWriter struct {
	store *fakeStore
}

func (w *fakeWriter) CreateAward(award *model.UserAchievement) error {
	key := pairKey(award.UserID, award.AchievementID)
	if _, exists := w.store.awards[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	w.store.awards[key] = *award
	return nil
}

func (w *fakeWriter) DeleteProgress(userID, achievementID uint) error {
	delete(w.store.progress, pairKey(userID, achievementID))
	return nil
}

func (w *fakeWriter) CreditPoints(entry *model.PointsTransaction) error {
	if w.store.failCredit {
		return errors.New("credit failed")
	}
	w.store.ledger = append(w.store.ledger, *entry)
	w.store.balances[entry.UserID] += entry.Points
	return nil
}

func (w *fakeWriter) CreateNotification(n *model.Notification) error {
	w.store.notifications = append(w.store.notifications, *n)
	return nil
}

func testAchievement(id uint, target int64, reward int) model.Achievement {
	a := model.Achievement{
		Name:          fmt.Sprintf("achievement-%d", id),
		Description:   "test",
		CriteriaType:  model.CriteriaTotalCompletions,
		CriteriaValue: target,
		PointsReward:  reward,
	}
	a.ID = id
	return a
}

func TestAddProgressUnknownAchievement(t *testing.T) {
	store := newFakeStore()
	svc := NewAchievementService(store)

	_, err := svc.AddProgress(context.Background(), 1, 99, 1)
	require.ErrorIs(t, err, util.ErrAchievementNotFound)
	require.Empty(t, store.progress)
	require.Empty(t, store.awards)
}

func TestAddProgressInvalidInput(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 0))
	svc := NewAchievementService(store)

	_, err := svc.AddProgress(context.Background(), 0, 1, 1)
	require.ErrorIs(t, err, util.ErrInvalidProgressInput)

	_, err = svc.Award(context.Background(), 1, 0, nil)
	require.ErrorIs(t, err, util.ErrInvalidProgressInput)
}

func TestAddProgressAccumulates(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 50))
	svc := NewAchievementService(store)
	ctx := context.Background()

	deltas := []int64{2, 3, 4}
	wantValues := []int64{2, 5, 9}
	wantPercents := []int{20, 50, 90}

	for i, d := range deltas {
		res, err := svc.AddProgress(ctx, 1, 1, d)
		require.NoError(t, err)
		require.Equal(t, OutcomeProgressUpdated, res.Outcome)
		require.Equal(t, wantValues[i], res.Progress.CurrentValue)
		require.Equal(t, wantPercents[i], res.Progress.PercentComplete)
	}

	require.Empty(t, store.awards)
	require.Empty(t, store.ledger)
	require.Empty(t, store.notifications)
}

func TestThresholdCrossing(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 50))
	svc := NewAchievementService(store)
	ctx := context.Background()

	res, err := svc.AddProgress(ctx, 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, OutcomeProgressUpdated, res.Outcome)
	require.EqualValues(t, 4, res.Progress.CurrentValue)

	res, err = svc.AddProgress(ctx, 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, OutcomeProgressUpdated, res.Outcome)
	require.EqualValues(t, 8, res.Progress.CurrentValue)

	// 第三次越过阈值（12 >= 10），同步颁发
	res, err = svc.AddProgress(ctx, 1, 1, 4)
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)
	require.NotNil(t, res.Award)

	// 颁发后进度记录被删除
	require.Empty(t, store.progress)
	require.Len(t, store.awards, 1)
	require.Len(t, store.ledger, 1)
	require.Equal(t, 50, store.balances[1])
	require.Len(t, store.notifications, 1)
	require.Equal(t, model.NotificationAchievement, store.notifications[0].Type)
	require.EqualValues(t, 1, store.notifications[0].RelatedID)
}

func TestAwardIdempotent(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 25))
	svc := NewAchievementService(store)
	ctx := context.Background()

	first, err := svc.Award(ctx, 1, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, first.Outcome)

	second, err := svc.Award(ctx, 1, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyAwarded, second.Outcome)
	require.NotNil(t, second.Award)

	// 重复调用不会产生第二条流水或通知
	require.Len(t, store.awards, 1)
	require.Len(t, store.ledger, 1)
	require.Len(t, store.notifications, 1)
	require.Equal(t, 25, store.balances[1])

	// 已颁发后的进度上报同样短路，不再写入
	res, err := svc.AddProgress(ctx, 1, 1, 5)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyAwarded, res.Outcome)
	require.Empty(t, store.progress)
}

func TestAwardRollbackOnCreditFailure(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 50))
	svc := NewAchievementService(store)
	ctx := context.Background()

	_, err := svc.AddProgress(ctx, 1, 1, 6)
	require.NoError(t, err)

	store.failCredit = true
	_, err = svc.Award(ctx, 1, 1, nil)
	require.Error(t, err)

	// 整个事务回滚：无颁发记录、无流水、无通知，进度保留
	require.Empty(t, store.awards)
	require.Empty(t, store.ledger)
	require.Empty(t, store.notifications)
	require.Equal(t, 0, store.balances[1])
	require.Len(t, store.progress, 1)
}

func TestZeroRewardAward(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 0))
	svc := NewAchievementService(store)

	res, err := svc.Award(context.Background(), 1, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)

	// 零奖励：有记录、有通知，但不产生积分流水
	require.Len(t, store.awards, 1)
	require.Len(t, store.notifications, 1)
	require.Empty(t, store.ledger)
	require.Equal(t, 0, store.balances[1])
}

func TestAwardLosesRace(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 50))
	svc := NewAchievementService(store)
	ctx := context.Background()

	_, err := svc.Award(ctx, 1, 1, nil)
	require.NoError(t, err)
	ledgerBefore := len(store.ledger)

	// 幂等检查漏报一次，事务内撞上唯一键，回滚后按幂等结果返回
	store.blindAwardOnce = true
	res, err := svc.Award(ctx, 1, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyAwarded, res.Outcome)

	require.Len(t, store.awards, 1)
	require.Len(t, store.ledger, ledgerBefore)
	require.Len(t, store.notifications, 1)
}

func TestAwardMetadata(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 0))
	svc := NewAchievementService(store)

	res, err := svc.Award(context.Background(), 1, 1, &AwardOptions{Metadata: `{"source":"manual-review"}`})
	require.NoError(t, err)
	require.Equal(t, `{"source":"manual-review"}`, res.Award.Metadata)
}

func TestAddProgressBulkIsolation(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 0), testAchievement(2, 5, 0))
	svc := NewAchievementService(store)

	result := svc.AddProgressBulk(context.Background(), 1, []BulkProgressUpdate{
		{AchievementID: 1, Amount: 3},
		{AchievementID: 99, Amount: 1},
		{AchievementID: 2, Amount: 2},
	})

	require.Equal(t, 2, result.SuccessfulUpdates)
	require.Len(t, result.Items, 3)
	require.Empty(t, result.Items[0].Error)
	require.NotEmpty(t, result.Items[1].Error)
	require.Empty(t, result.Items[2].Error)

	// 失败条目不影响其余条目的写入
	require.Len(t, store.progress, 2)
}

func TestGetProgressStates(t *testing.T) {
	store := newFakeStore(testAchievement(1, 10, 0))
	svc := NewAchievementService(store)
	ctx := context.Background()

	view, err := svc.GetProgress(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, StateNotStarted, view.State)
	require.NotNil(t, view.Achievement)
	require.Nil(t, view.Progress)

	_, err = svc.AddProgress(ctx, 1, 1, 4)
	require.NoError(t, err)

	view, err = svc.GetProgress(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, StateInProgress, view.State)
	require.EqualValues(t, 4, view.Progress.CurrentValue)

	_, err = svc.AddProgress(ctx, 1, 1, 6)
	require.NoError(t, err)

	view, err = svc.GetProgress(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, view.State)
	require.NotNil(t, view.AwardedAt)
	require.Nil(t, view.Progress)

	_, err = svc.GetProgress(ctx, 1, 99)
	require.ErrorIs(t, err, util.ErrAchievementNotFound)
}

func TestListWithStatusHidesLockedHidden(t *testing.T) {
	visible := testAchievement(1, 10, 0)
	hidden := testAchievement(2, 5, 0)
	hidden.Hidden = true

	store := newFakeStore(visible, hidden)
	svc := NewAchievementService(store)
	ctx := context.Background()

	views, err := svc.ListWithStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.EqualValues(t, 1, views[0].Achievement.ID)

	// 解锁后隐藏成就出现在列表里
	_, err = svc.Award(ctx, 1, 2, nil)
	require.NoError(t, err)

	views, err = svc.ListWithStatus(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
}
