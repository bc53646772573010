package service

import (
	"context"
	"fmt"
	"time"

	"dirhub.app/server/common/id"
	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/store"
)

type ActivityService interface {
	// Record appends one immutable entry to the audit trail.
	Record(ctx context.Context, actorID int64, workspaceID *int64, action string, targetType model.TargetType, targetID int64, message string) (*model.ActivityLogEntry, error)
	// Feed returns entries across the actor's workspaces plus the actor's
	// own entries, newest first.
	Feed(ctx context.Context, actor model.Identity, page, limit int32) ([]model.ActivityLogEntry, int64, error)
	// ForWorkspace returns one workspace's entries, newest first, in fixed
	// pages of ten.
	ForWorkspace(ctx context.Context, workspaceID int64, page int32) ([]model.ActivityLogEntry, error)
	// Heatmap buckets the actor's entries of the past year by calendar day.
	Heatmap(ctx context.Context, actor model.Identity) ([]model.ActivityDay, error)
	// ClearForActor is the only deletion: all entries belonging to one
	// actor, invoked by that actor.
	ClearForActor(ctx context.Context, actor model.Identity) error
}

type activityService struct {
	activityLogs store.ActivityLogStore
	workspaces   store.WorkspaceStore
}

func NewActivityService(activityLogs store.ActivityLogStore, workspaces store.WorkspaceStore) ActivityService {
	return &activityService{
		activityLogs: activityLogs,
		workspaces:   workspaces,
	}
}

func (s *activityService) Record(ctx context.Context, actorID int64, workspaceID *int64, action string, targetType model.TargetType, targetID int64, message string) (*model.ActivityLogEntry, error) {
	if actorID == 0 || action == "" {
		return nil, fmt.Errorf("%w: actor and action are required", ErrValidation)
	}
	if !targetType.Valid() {
		return nil, fmt.Errorf("%w: unknown target type %q", ErrValidation, targetType)
	}

	entry := &model.ActivityLogEntry{
		ID:          id.New(),
		ActorID:     actorID,
		WorkspaceID: workspaceID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Message:     message,
	}
	if err := s.activityLogs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording activity: %w", err)
	}
	return entry, nil
}

func (s *activityService) Feed(ctx context.Context, actor model.Identity, page, limit int32) ([]model.ActivityLogEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	memberOf, err := s.workspaces.ListByMember(ctx, actor.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("listing actor workspaces: %w", err)
	}
	workspaceIDs := make([]int64, len(memberOf))
	for i, ws := range memberOf {
		workspaceIDs[i] = ws.ID
	}

	entries, err := s.activityLogs.ListForActor(ctx, actor.UserID, workspaceIDs, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("listing activity: %w", err)
	}

	total, err := s.activityLogs.CountForActor(ctx, actor.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("counting activity: %w", err)
	}

	return entries, total, nil
}

const workspaceActivityPageSize = 10

func (s *activityService) ForWorkspace(ctx context.Context, workspaceID int64, page int32) ([]model.ActivityLogEntry, error) {
	if page < 1 {
		page = 1
	}
	if _, err := s.workspaces.GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.activityLogs.ListForWorkspace(ctx, workspaceID,
		workspaceActivityPageSize, (page-1)*workspaceActivityPageSize)
}

func (s *activityService) Heatmap(ctx context.Context, actor model.Identity) ([]model.ActivityDay, error) {
	if actor.UserID == 0 {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}
	since := time.Now().AddDate(-1, 0, 0)
	days, err := s.activityLogs.CountPerDay(ctx, actor.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("bucketing activity: %w", err)
	}
	return days, nil
}

func (s *activityService) ClearForActor(ctx context.Context, actor model.Identity) error {
	if actor.UserID == 0 {
		return fmt.Errorf("%w: actor is required", ErrValidation)
	}
	return s.activityLogs.DeleteByActor(ctx, actor.UserID)
}
