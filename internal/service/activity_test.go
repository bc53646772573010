package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dirhub.app/server/common/id"
	"dirhub.app/server/common/logger"
	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/service"
	"dirhub.app/server/internal/store"
)

var _ = Describe("ActivityService", func() {
	var (
		ctx            context.Context
		svc            service.ActivityService
		mockActivity   *mockActivityLogStore
		mockWorkspaces *mockWorkspaceStore
		actor          model.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())

		mockActivity = &mockActivityLogStore{}
		mockWorkspaces = &mockWorkspaceStore{}
		actor = model.Identity{UserID: 11, Username: "alice"}

		svc = service.NewActivityService(mockActivity, mockWorkspaces)
	})

	Describe("Record", func() {
		It("appends an entry with a fresh id", func() {
			entry, err := svc.Record(ctx, 11, logger.Ptr(int64(42)), "imported workspace",
				model.TargetTypeWorkspace, 42, "imported dir from GitHub")

			Expect(err).NotTo(HaveOccurred())
			Expect(entry.ID).NotTo(BeZero())
			Expect(entry.ActorID).To(Equal(int64(11)))
			Expect(*entry.WorkspaceID).To(Equal(int64(42)))
			Expect(mockActivity.capturedEntries).To(HaveLen(1))
		})

		It("rejects an unknown target type", func() {
			_, err := svc.Record(ctx, 11, nil, "did something",
				model.TargetType("galaxy"), 1, "")

			Expect(err).To(MatchError(service.ErrValidation))
			Expect(mockActivity.capturedEntries).To(BeEmpty())
		})

		It("rejects a missing actor or action", func() {
			_, err := svc.Record(ctx, 0, nil, "did something", model.TargetTypeUser, 1, "")
			Expect(err).To(MatchError(service.ErrValidation))

			_, err = svc.Record(ctx, 11, nil, "", model.TargetTypeUser, 1, "")
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("Feed", func() {
		BeforeEach(func() {
			mockWorkspaces.listByMemberFn = func(ctx context.Context, userID int64) ([]model.Workspace, error) {
				return []model.Workspace{{ID: 42}, {ID: 43}}, nil
			}
		})

		It("scopes the listing to the actor and their workspaces", func() {
			var gotActor int64
			var gotWorkspaces []int64
			mockActivity.listForActorFn = func(ctx context.Context, actorID int64, workspaceIDs []int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
				gotActor = actorID
				gotWorkspaces = workspaceIDs
				return []model.ActivityLogEntry{{ID: 1}}, nil
			}
			mockActivity.countForActorFn = func(ctx context.Context, actorID int64) (int64, error) {
				return 27, nil
			}

			entries, total, err := svc.Feed(ctx, actor, 1, 10)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(total).To(Equal(int64(27)))
			Expect(gotActor).To(Equal(actor.UserID))
			Expect(gotWorkspaces).To(Equal([]int64{42, 43}))
		})

		It("clamps page and limit to sane values", func() {
			var gotLimit, gotOffset int32
			mockActivity.listForActorFn = func(ctx context.Context, actorID int64, workspaceIDs []int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
				gotLimit = limit
				gotOffset = offset
				return nil, nil
			}

			_, _, err := svc.Feed(ctx, actor, -3, 999)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotLimit).To(Equal(int32(10)))
			Expect(gotOffset).To(BeZero())
		})

		It("translates page to offset", func() {
			var gotOffset int32
			mockActivity.listForActorFn = func(ctx context.Context, actorID int64, workspaceIDs []int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
				gotOffset = offset
				return nil, nil
			}

			_, _, err := svc.Feed(ctx, actor, 3, 20)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotOffset).To(Equal(int32(40)))
		})
	})

	Describe("ForWorkspace", func() {
		BeforeEach(func() {
			mockWorkspaces.getByIDFn = func(ctx context.Context, wid int64) (*model.Workspace, error) {
				return &model.Workspace{ID: wid}, nil
			}
		})

		It("lists one workspace's entries in pages of ten", func() {
			var gotWorkspace int64
			var gotLimit, gotOffset int32
			mockActivity.listForWorkspaceFn = func(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
				gotWorkspace = workspaceID
				gotLimit = limit
				gotOffset = offset
				return []model.ActivityLogEntry{{ID: 1}}, nil
			}

			entries, err := svc.ForWorkspace(ctx, 42, 3)

			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(gotWorkspace).To(Equal(int64(42)))
			Expect(gotLimit).To(Equal(int32(10)))
			Expect(gotOffset).To(Equal(int32(20)))
		})

		It("defaults an out-of-range page to the first", func() {
			var gotOffset int32
			mockActivity.listForWorkspaceFn = func(ctx context.Context, workspaceID int64, limit, offset int32) ([]model.ActivityLogEntry, error) {
				gotOffset = offset
				return nil, nil
			}

			_, err := svc.ForWorkspace(ctx, 42, -1)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotOffset).To(BeZero())
		})

		It("propagates ErrNotFound for a missing workspace", func() {
			mockWorkspaces.getByIDFn = nil

			_, err := svc.ForWorkspace(ctx, 42, 1)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Heatmap", func() {
		It("buckets the past year of the actor's entries", func() {
			var gotActor int64
			var gotSince time.Time
			mockActivity.countPerDayFn = func(ctx context.Context, actorID int64, since time.Time) ([]model.ActivityDay, error) {
				gotActor = actorID
				gotSince = since
				return []model.ActivityDay{
					{Date: "2026-08-30", Count: 3},
					{Date: "2026-08-31", Count: 1},
				}, nil
			}

			days, err := svc.Heatmap(ctx, actor)

			Expect(err).NotTo(HaveOccurred())
			Expect(days).To(HaveLen(2))
			Expect(gotActor).To(Equal(actor.UserID))
			Expect(gotSince).To(BeTemporally("~", time.Now().AddDate(-1, 0, 0), time.Minute))
		})

		It("rejects a missing actor", func() {
			_, err := svc.Heatmap(ctx, model.Identity{})
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("ClearForActor", func() {
		It("deletes only the actor's entries", func() {
			var gotActor int64
			mockActivity.deleteByActorFn = func(ctx context.Context, actorID int64) error {
				gotActor = actorID
				return nil
			}

			Expect(svc.ClearForActor(ctx, actor)).To(Succeed())
			Expect(gotActor).To(Equal(actor.UserID))
		})

		It("rejects a missing actor", func() {
			Expect(svc.ClearForActor(ctx, model.Identity{})).To(MatchError(service.ErrValidation))
		})
	})
})
