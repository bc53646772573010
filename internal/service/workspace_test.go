package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dirhub.app/server/common/id"
	"dirhub.app/server/common/logger"
	"dirhub.app/server/internal/cache"
	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/provider"
	"dirhub.app/server/internal/service"
	"dirhub.app/server/internal/store"
)

var _ = Describe("WorkspaceService", func() {
	var (
		ctx            context.Context
		svc            service.WorkspaceService
		mockUsers      *mockUserStore
		mockWorkspaces *mockWorkspaceStore
		mockActivity   *mockActivityLogStore
		mockRawEvents  *mockRawEventStore
		mockProvider   *mockProviderClient
		backend        *memoryBackend
		stores         *mockStoreProvider
		actor          model.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		Expect(id.Init(1)).To(Succeed())

		mockUsers = &mockUserStore{}
		mockWorkspaces = &mockWorkspaceStore{}
		mockActivity = &mockActivityLogStore{}
		mockRawEvents = &mockRawEventStore{}
		mockProvider = &mockProviderClient{}
		backend = newMemoryBackend()
		actor = model.Identity{UserID: 11, Username: "alice"}

		stores = &mockStoreProvider{
			users:        mockUsers,
			workspaces:   mockWorkspaces,
			activityLogs: mockActivity,
			rawEvents:    mockRawEvents,
		}

		txRunner := &mockTxRunner{
			withTxFn: func(ctx context.Context, fn func(stores service.StoreProvider) error) error {
				return fn(stores)
			},
		}

		svc = service.NewWorkspaceService(
			stores,
			txRunner,
			cache.New(backend, nil),
			cache.NewInvalidator(backend, nil),
			mockProvider,
			service.NewActivityService(mockActivity, mockWorkspaces),
			time.Hour,
			nil,
		)
	})

	Describe("Import", func() {
		params := service.ImportParams{ExternalRef: "9001", Name: "dir"}

		It("creates the workspace with the actor as sole owner", func() {
			ws, err := svc.Import(ctx, actor, params)

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.ExternalRef).To(Equal("9001"))
			Expect(ws.OwnerID).To(Equal(actor.UserID))
			Expect(ws.Members).To(HaveLen(1))
			Expect(ws.Members[0].Role).To(Equal(model.MemberRoleOwner))
			Expect(ws.Channels).To(HaveLen(1))
			Expect(ws.Channels[0].Name).To(Equal("general"))
			Expect(ws.WebhookSecret).NotTo(BeEmpty())
		})

		It("appends the workspace to the owner's owned-list in the same unit", func() {
			_, err := svc.Import(ctx, actor, params)

			Expect(err).NotTo(HaveOccurred())
			Expect(mockUsers.appendCalls).To(Equal(1))
		})

		It("records an import entry after commit", func() {
			_, err := svc.Import(ctx, actor, params)

			Expect(err).NotTo(HaveOccurred())
			Expect(mockActivity.capturedEntries).To(HaveLen(1))
			Expect(mockActivity.capturedEntries[0].Action).To(Equal("imported workspace"))
			Expect(mockActivity.capturedEntries[0].ActorID).To(Equal(actor.UserID))
		})

		It("purges the owner's discovery and active lists after commit", func() {
			backend.entries[cache.DiscoveryListKey(actor.UserID)] = "[]"
			backend.entries[cache.ActiveListKey(actor.UserID)] = "[]"

			_, err := svc.Import(ctx, actor, params)

			Expect(err).NotTo(HaveOccurred())
			Expect(backend.deleted).To(ContainElements(
				cache.DiscoveryListKey(actor.UserID),
				cache.ActiveListKey(actor.UserID),
			))
		})

		Context("when the external reference is already bound", func() {
			BeforeEach(func() {
				mockWorkspaces.createFn = func(ctx context.Context, ws *model.Workspace) error {
					return store.ErrConflict
				}
			})

			It("fails with ErrConflict and leaves no side effects", func() {
				_, err := svc.Import(ctx, actor, params)

				Expect(err).To(MatchError(store.ErrConflict))
				Expect(mockUsers.appendCalls).To(BeZero())
				Expect(mockActivity.capturedEntries).To(BeEmpty())
				Expect(backend.deleted).To(BeEmpty())
			})
		})

		Context("when the activity recorder fails after commit", func() {
			BeforeEach(func() {
				mockActivity.createFn = func(ctx context.Context, entry *model.ActivityLogEntry) error {
					return errors.New("audit store down")
				}
			})

			It("still returns the imported workspace", func() {
				ws, err := svc.Import(ctx, actor, params)

				Expect(err).NotTo(HaveOccurred())
				Expect(ws).NotTo(BeNil())
			})
		})

		It("rejects missing identifiers", func() {
			_, err := svc.Import(ctx, actor, service.ImportParams{Name: "dir"})
			Expect(err).To(MatchError(service.ErrValidation))

			_, err = svc.Import(ctx, model.Identity{}, params)
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("Get", func() {
		ws := &model.Workspace{ID: 42, Name: "dir", OwnerID: 11}

		It("serves the second read from cache without the store", func() {
			calls := 0
			mockWorkspaces.getByIDFn = func(ctx context.Context, id int64) (*model.Workspace, error) {
				calls++
				return ws, nil
			}

			first, err := svc.Get(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Name).To(Equal("dir"))

			second, err := svc.Get(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Name).To(Equal("dir"))
			Expect(calls).To(Equal(1))
		})

		It("propagates ErrNotFound from the loader", func() {
			_, err := svc.Get(ctx, 42)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("ListActive", func() {
		It("bypasses the cache for filtered views", func() {
			filteredCalls := 0
			mockWorkspaces.listByMemberFilteredFn = func(ctx context.Context, userID int64, search, tag string) ([]model.Workspace, error) {
				filteredCalls++
				return []model.Workspace{{ID: 1}}, nil
			}

			_, err := svc.ListActive(ctx, actor, "dir", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.ListActive(ctx, actor, "dir", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(filteredCalls).To(Equal(2))
			Expect(backend.entries).To(BeEmpty())
		})

		It("caches the filter-less view", func() {
			mockWorkspaces.listByMemberFn = func(ctx context.Context, userID int64) ([]model.Workspace, error) {
				return []model.Workspace{{ID: 1}}, nil
			}

			_, err := svc.ListActive(ctx, actor, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.entries).To(HaveKey(cache.ActiveListKey(actor.UserID)))
		})
	})

	Describe("Discovery", func() {
		BeforeEach(func() {
			mockProvider.listOwnReposFn = func(ctx context.Context) ([]provider.RepoSummary, error) {
				return []provider.RepoSummary{
					{ExternalRef: "9001", Name: "dir"},
					{ExternalRef: "9002", Name: "other"},
				}, nil
			}
			mockWorkspaces.listExternalRefsByOwnerFn = func(ctx context.Context, ownerID int64) ([]string, error) {
				return []string{"9001"}, nil
			}
		})

		It("flags repositories that already have a workspace", func() {
			repos, err := svc.Discovery(ctx, actor)

			Expect(err).NotTo(HaveOccurred())
			Expect(repos).To(HaveLen(2))
			Expect(repos[0].IsImported).To(BeTrue())
			Expect(repos[1].IsImported).To(BeFalse())
		})

		It("does not call the provider again on a warm cache", func() {
			calls := 0
			mockProvider.listOwnReposFn = func(ctx context.Context) ([]provider.RepoSummary, error) {
				calls++
				return []provider.RepoSummary{{ExternalRef: "9001"}}, nil
			}

			_, err := svc.Discovery(ctx, actor)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Discovery(ctx, actor)
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal(1))
		})

		It("returns the provider error uncached", func() {
			mockProvider.listOwnReposFn = func(ctx context.Context) ([]provider.RepoSummary, error) {
				return nil, errors.New("rate limited")
			}

			_, err := svc.Discovery(ctx, actor)
			Expect(err).To(HaveOccurred())
			Expect(backend.entries).To(BeEmpty())
		})
	})

	Describe("Explore", func() {
		BeforeEach(func() {
			mockProvider.searchPublicReposFn = func(ctx context.Context, query provider.SearchQuery) (*provider.SearchResult, error) {
				return &provider.SearchResult{
					Total: 120,
					Repos: []provider.RepoSummary{
						{ExternalRef: "9001", Name: "dir"},
						{ExternalRef: "7777", Name: "popular"},
					},
					HasNext: true,
				}, nil
			}
			mockWorkspaces.filterExternalRefsFn = func(ctx context.Context, refs []string) ([]string, error) {
				return []string{"9001"}, nil
			}
		})

		It("flags repositories imported by any workspace", func() {
			result, err := svc.Explore(ctx, service.ExploreParams{Search: "dir"})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total).To(Equal(120))
			Expect(result.HasNextPage).To(BeTrue())
			Expect(result.Repos).To(HaveLen(2))
			Expect(result.Repos[0].IsImported).To(BeTrue())
			Expect(result.Repos[1].IsImported).To(BeFalse())
		})

		It("forwards search text, tag, and a defaulted page to the provider", func() {
			var gotQuery provider.SearchQuery
			mockProvider.searchPublicReposFn = func(ctx context.Context, query provider.SearchQuery) (*provider.SearchResult, error) {
				gotQuery = query
				return &provider.SearchResult{}, nil
			}

			_, err := svc.Explore(ctx, service.ExploreParams{Search: "http server", Tag: "go", Page: 0})

			Expect(err).NotTo(HaveOccurred())
			Expect(gotQuery.Text).To(Equal("http server"))
			Expect(gotQuery.Tag).To(Equal("go"))
			Expect(gotQuery.Page).To(Equal(int32(1)))
		})

		It("never writes the result to the cache", func() {
			_, err := svc.Explore(ctx, service.ExploreParams{Search: "dir"})

			Expect(err).NotTo(HaveOccurred())
			Expect(backend.entries).To(BeEmpty())
		})

		It("skips the imported lookup when the search comes back empty", func() {
			mockProvider.searchPublicReposFn = func(ctx context.Context, query provider.SearchQuery) (*provider.SearchResult, error) {
				return &provider.SearchResult{}, nil
			}
			called := false
			mockWorkspaces.filterExternalRefsFn = func(ctx context.Context, refs []string) ([]string, error) {
				called = true
				return nil, nil
			}

			result, err := svc.Explore(ctx, service.ExploreParams{})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Repos).To(BeEmpty())
			Expect(called).To(BeFalse())
		})

		It("propagates a provider failure", func() {
			mockProvider.searchPublicReposFn = func(ctx context.Context, query provider.SearchQuery) (*provider.SearchResult, error) {
				return nil, errors.New("rate limited")
			}

			_, err := svc.Explore(ctx, service.ExploreParams{Search: "dir"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		BeforeEach(func() {
			mockWorkspaces.getByIDFn = func(ctx context.Context, wid int64) (*model.Workspace, error) {
				return &model.Workspace{ID: wid, Name: "dir", OwnerID: 11}, nil
			}
		})

		It("applies the patch and purges detail and active list", func() {
			ws, err := svc.Update(ctx, actor, 42, service.UpdateParams{
				Name: logger.Ptr("renamed"),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(ws.Name).To(Equal("renamed"))
			Expect(mockWorkspaces.capturedUpdate.Name).To(Equal("renamed"))
			Expect(backend.deleted).To(ContainElements(
				cache.WorkspaceDetailKey(42),
				cache.ActiveListKey(11),
			))
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			mockWorkspaces.getByIDFn = func(ctx context.Context, wid int64) (*model.Workspace, error) {
				return &model.Workspace{ID: wid, Name: "dir", OwnerID: 11}, nil
			}
		})

		It("removes the row and the owned-list entry together", func() {
			err := svc.Delete(ctx, actor, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(mockWorkspaces.deleteCalls).To(Equal(1))
			Expect(mockUsers.removeCalls).To(Equal(1))
		})

		It("purges every key naming the workspace", func() {
			err := svc.Delete(ctx, actor, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(backend.deleted).To(ContainElements(
				cache.WorkspaceDetailKey(42),
				cache.ActiveListKey(11),
				cache.DiscoveryListKey(11),
			))
		})

		It("propagates ErrNotFound without side effects", func() {
			mockWorkspaces.getByIDFn = nil

			err := svc.Delete(ctx, actor, 42)

			Expect(err).To(MatchError(store.ErrNotFound))
			Expect(mockWorkspaces.deleteCalls).To(BeZero())
			Expect(mockUsers.removeCalls).To(BeZero())
		})
	})

	Describe("ListEvents", func() {
		BeforeEach(func() {
			mockWorkspaces.getByIDFn = func(ctx context.Context, wid int64) (*model.Workspace, error) {
				return &model.Workspace{ID: wid, OwnerID: 11}, nil
			}
		})

		It("lists the raw deliveries for the workspace", func() {
			mockRawEvents.listByWorkspaceFn = func(ctx context.Context, wid int64, limit int32) ([]model.RawEvent, error) {
				return []model.RawEvent{{ID: 1, WorkspaceID: wid}}, nil
			}

			events, err := svc.ListEvents(ctx, 42, 50)

			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
		})

		It("defaults a missing limit to 50", func() {
			var gotLimit int32
			mockRawEvents.listByWorkspaceFn = func(ctx context.Context, wid int64, limit int32) ([]model.RawEvent, error) {
				gotLimit = limit
				return nil, nil
			}

			_, err := svc.ListEvents(ctx, 42, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotLimit).To(Equal(int32(50)))
		})

		It("caps an oversized limit at 200", func() {
			var gotLimit int32
			mockRawEvents.listByWorkspaceFn = func(ctx context.Context, wid int64, limit int32) ([]model.RawEvent, error) {
				gotLimit = limit
				return nil, nil
			}

			_, err := svc.ListEvents(ctx, 42, 300)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotLimit).To(Equal(int32(200)))
		})

		It("propagates ErrNotFound for a missing workspace", func() {
			mockWorkspaces.getByIDFn = nil

			_, err := svc.ListEvents(ctx, 42, 50)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("Sync", func() {
		BeforeEach(func() {
			mockWorkspaces.getByIDFn = func(ctx context.Context, wid int64) (*model.Workspace, error) {
				return &model.Workspace{ID: wid, Name: "dir", OwnerID: 11}, nil
			}
			mockProvider.getRepoFn = func(ctx context.Context, owner, name string) (*provider.RepoSummary, error) {
				return &provider.RepoSummary{
					ExternalRef: "9001",
					Name:        "dir",
					Description: logger.Ptr("refreshed"),
					Language:    logger.Ptr("Go"),
				}, nil
			}
		})

		It("refreshes metadata from the provider", func() {
			ws, err := svc.Sync(ctx, actor, 42)

			Expect(err).NotTo(HaveOccurred())
			Expect(*ws.Description).To(Equal("refreshed"))
			Expect(*ws.Language).To(Equal("Go"))
			Expect(mockWorkspaces.capturedUpdate).NotTo(BeNil())
		})

		It("does not write when the provider fails", func() {
			mockProvider.getRepoFn = func(ctx context.Context, owner, name string) (*provider.RepoSummary, error) {
				return nil, errors.New("rate limited")
			}

			_, err := svc.Sync(ctx, actor, 42)
			Expect(err).To(HaveOccurred())
			Expect(mockWorkspaces.capturedUpdate).To(BeNil())
		})
	})
})
