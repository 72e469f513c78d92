package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitloop_backend/internal/model"
	"habitloop_backend/internal/repository"
	"habitloop_backend/internal/util"
	"habitloop_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// AchievementService 负责成就进度累计与颁发。
// 存储通过 repository.AchievementStore 注入，不持有全局句柄。
type AchievementService struct {
	Store repository.AchievementStore
}

func NewAchievementService(store repository.AchievementStore) *AchievementService {
	return &AchievementService{Store: store}
}

type AwardOutcome string

const (
	OutcomeProgressUpdated AwardOutcome = "progress_updated"
	OutcomeAwarded         AwardOutcome = "awarded"
	OutcomeAlreadyAwarded  AwardOutcome = "already_awarded"
)

type ProgressResult struct {
	Outcome     AwardOutcome               `json:"outcome"`
	Achievement *model.Achievement         `json:"achievement"`
	Progress    *model.AchievementProgress `json:"progress,omitempty"`
	Award       *model.UserAchievement     `json:"award,omitempty"`
}

type BulkProgressUpdate struct {
	AchievementID uint  `json:"achievementId" binding:"required"`
	Amount        int64 `json:"amount" binding:"min=0"`
}

type BulkProgressItem struct {
	AchievementID uint            `json:"achievementId"`
	Result        *ProgressResult `json:"result,omitempty"`
	Error         string          `json:"error,omitempty"`
}

type BulkProgressResult struct {
	Items             []BulkProgressItem `json:"items"`
	SuccessfulUpdates int                `json:"successfulUpdates"`
}

type AwardOptions struct {
	Metadata string
}

// AddProgress 为 (user, achievement) 累计一次进度增量，越过阈值时同步颁发。
// amount 非负由入参绑定校验保证，这里不再重复检查。
func (s *AchievementService) AddProgress(ctx context.Context, userID, achievementID uint, amount int64) (*ProgressResult, error) {
	if userID == 0 || achievementID == 0 {
		return nil, util.ErrInvalidProgressInput
	}

	ach, err := s.Store.FindAchievement(ctx, achievementID)
	if err != nil {
		return nil, err
	}

	// 幂等检查：已颁发则短路返回，不再发生任何写入
	award, err := s.Store.FindAward(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	if award != nil {
		return &ProgressResult{Outcome: OutcomeAlreadyAwarded, Achievement: ach, Award: award}, nil
	}

	progress, err := s.Store.UpsertProgress(ctx, userID, ach, amount)
	if err != nil {
		return nil, err
	}

	if progress.CurrentValue >= ach.CriteriaValue {
		return s.Award(ctx, userID, achievementID, nil)
	}

	return &ProgressResult{Outcome: OutcomeProgressUpdated, Achievement: ach, Progress: progress}, nil
}

// AddProgressBulk 逐条应用进度更新，条目之间无事务关系，单条失败不影响其余条目
func (s *AchievementService) AddProgressBulk(ctx context.Context, userID uint, updates []BulkProgressUpdate) *BulkProgressResult {
	out := &BulkProgressResult{Items: make([]BulkProgressItem, 0, len(updates))}
	for _, u := range updates {
		item := BulkProgressItem{AchievementID: u.AchievementID}
		res, err := s.AddProgress(ctx, userID, u.AchievementID, u.Amount)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = res
			out.SuccessfulUpdates++
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// Award 颁发成就。颁发记录、进度清理、积分入账和通知在同一事务内提交，
// 任何一步失败整体回滚。可由进度追踪触发，也可被外部判定逻辑直接调用。
func (s *AchievementService) Award(ctx context.Context, userID, achievementID uint, opts *AwardOptions) (*ProgressResult, error) {
	if userID == 0 || achievementID == 0 {
		return nil, util.ErrInvalidProgressInput
	}

	ach, err := s.Store.FindAchievement(ctx, achievementID)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.FindAward(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ProgressResult{Outcome: OutcomeAlreadyAwarded, Achievement: ach, Award: existing}, nil
	}

	award := &model.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		AwardedAt:     time.Now(),
	}
	if opts != nil {
		award.Metadata = opts.Metadata
	}

	err = s.Store.AwardInTx(ctx, func(tx repository.AwardWriter) error {
		if err := tx.CreateAward(award); err != nil {
			return err
		}

		// 已颁发的成就不保留残余进度
		if err := tx.DeleteProgress(userID, achievementID); err != nil {
			return err
		}

		// 零奖励成就不产生积分流水
		if ach.PointsReward > 0 {
			entry := &model.PointsTransaction{
				UserID:      userID,
				Points:      ach.PointsReward,
				Type:        model.PointsAchievementReward,
				Description: fmt.Sprintf("成就奖励：%s", ach.Name),
				ReferenceID: ach.ID,
			}
			if err := tx.CreditPoints(entry); err != nil {
				return err
			}
		}

		return tx.CreateNotification(buildUnlockNotification(userID, ach))
	})
	if err != nil {
		// 并发竞争：另一请求先行颁发，本事务回滚后按幂等结果返回
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if winner, findErr := s.Store.FindAward(ctx, userID, achievementID); findErr == nil && winner != nil {
				return &ProgressResult{Outcome: OutcomeAlreadyAwarded, Achievement: ach, Award: winner}, nil
			}
		}
		return nil, err
	}

	monitoring.AchievementAwards.WithLabelValues(ach.Name).Inc()

	return &ProgressResult{Outcome: OutcomeAwarded, Achievement: ach, Award: award}, nil
}

func buildUnlockNotification(userID uint, ach *model.Achievement) *model.Notification {
	content := fmt.Sprintf("恭喜解锁成就「%s」！%s", ach.Name, ach.Description)
	if ach.PointsReward > 0 {
		content = fmt.Sprintf("%s 获得 %d 积分奖励。", content, ach.PointsReward)
	}
	return &model.Notification{
		UserID:    userID,
		Title:     "成就解锁",
		Content:   content,
		Type:      model.NotificationAchievement,
		RelatedID: ach.ID,
		ActionURL: fmt.Sprintf("/achievements/%d", ach.ID),
	}
}

type ProgressState string

const (
	StateNotStarted ProgressState = "NOT_STARTED"
	StateInProgress ProgressState = "IN_PROGRESS"
	StateCompleted  ProgressState = "COMPLETED"
)

type ProgressView struct {
	State       ProgressState              `json:"state"`
	Achievement *model.Achievement         `json:"achievement"`
	Progress    *model.AchievementProgress `json:"progress,omitempty"`
	AwardedAt   *time.Time                 `json:"awardedAt,omitempty"`
}

// GetProgress 返回某用户对某成就的三态之一：已完成 / 进行中 / 未开始
func (s *AchievementService) GetProgress(ctx context.Context, userID, achievementID uint) (*ProgressView, error) {
	ach, err := s.Store.FindAchievement(ctx, achievementID)
	if err != nil {
		return nil, err
	}

	award, err := s.Store.FindAward(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	if award != nil {
		awardedAt := award.AwardedAt
		return &ProgressView{State: StateCompleted, Achievement: ach, AwardedAt: &awardedAt}, nil
	}

	progress, err := s.Store.FindProgress(ctx, userID, achievementID)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		return &ProgressView{State: StateInProgress, Achievement: ach, Progress: progress}, nil
	}

	return &ProgressView{State: StateNotStarted, Achievement: ach}, nil
}

// ListWithStatus 列出成就目录及该用户的状态；隐藏成就只在已解锁后出现
func (s *AchievementService) ListWithStatus(ctx context.Context, userID uint) ([]ProgressView, error) {
	achievements, err := s.Store.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}

	awards, err := s.Store.ListAwards(ctx, userID)
	if err != nil {
		return nil, err
	}
	awardByID := make(map[uint]*model.UserAchievement, len(awards))
	for i := range awards {
		awardByID[awards[i].AchievementID] = &awards[i]
	}

	progressList, err := s.Store.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	progressByID := make(map[uint]*model.AchievementProgress, len(progressList))
	for i := range progressList {
		progressByID[progressList[i].AchievementID] = &progressList[i]
	}

	views := make([]ProgressView, 0, len(achievements))
	for i := range achievements {
		ach := &achievements[i]
		if award, ok := awardByID[ach.ID]; ok {
			awardedAt := award.AwardedAt
			views = append(views, ProgressView{State: StateCompleted, Achievement: ach, AwardedAt: &awardedAt})
			continue
		}
		if ach.Hidden {
			continue
		}
		if progress, ok := progressByID[ach.ID]; ok {
			views = append(views, ProgressView{State: StateInProgress, Achievement: ach, Progress: progress})
			continue
		}
		views = append(views, ProgressView{State: StateNotStarted, Achievement: ach})
	}
	return views, nil
}

type AwardView struct {
	Achievement *model.Achievement `json:"achievement"`
	AwardedAt   time.Time          `json:"awardedAt"`
	Metadata    string             `json:"metadata,omitempty"`
}

// ListAwards 返回用户已解锁的成就及其定义
func (s *AchievementService) ListAwards(ctx context.Context, userID uint) ([]AwardView, error) {
	awards, err := s.Store.ListAwards(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]AwardView, 0, len(awards))
	for _, award := range awards {
		ach, err := s.Store.FindAchievement(ctx, award.AchievementID)
		if err != nil {
			if errors.Is(err, util.ErrAchievementNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, AwardView{Achievement: ach, AwardedAt: award.AwardedAt, Metadata: award.Metadata})
	}
	return views, nil
}
