package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"dirhub.app/server/common/id"
	"dirhub.app/server/internal/cache"
	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/provider"
)

type ImportParams struct {
	ExternalRef string  `json:"external_ref"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Language    *string `json:"language,omitempty"`
}

type UpdateParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DiscoveryRepo is one row of the discovery list: a provider repository
// flagged with whether a workspace already mirrors it.
type DiscoveryRepo struct {
	provider.RepoSummary
	IsImported bool `json:"is_imported"`
}

type ExploreParams struct {
	Search string
	Tag    string
	Page   int32
}

type ExploreResult struct {
	Total       int             `json:"total"`
	Repos       []DiscoveryRepo `json:"repos"`
	HasNextPage bool            `json:"has_next_page"`
}

// explorePageSize keeps explore responses small; the endpoint feeds a
// browse view, not a sync.
const explorePageSize = 6

type WorkspaceService interface {
	// Import atomically creates the workspace and appends its id to the
	// owner's owned-list. A taken external reference fails with
	// store.ErrConflict and zero side effects.
	Import(ctx context.Context, actor model.Identity, params ImportParams) (*model.Workspace, error)
	Get(ctx context.Context, workspaceID int64) (*model.Workspace, error)
	// ListActive returns the actor's workspaces. Only the filter-less view
	// is served through the cache.
	ListActive(ctx context.Context, actor model.Identity, search, tag string) ([]model.Workspace, error)
	Discovery(ctx context.Context, actor model.Identity) ([]DiscoveryRepo, error)
	// Explore searches the provider's public repositories and flags the
	// ones any workspace already mirrors. Free-form search input, so the
	// result is never cached.
	Explore(ctx context.Context, params ExploreParams) (*ExploreResult, error)
	Update(ctx context.Context, actor model.Identity, workspaceID int64, patch UpdateParams) (*model.Workspace, error)
	AddTag(ctx context.Context, actor model.Identity, workspaceID int64, tag string) (*model.Workspace, error)
	Delete(ctx context.Context, actor model.Identity, workspaceID int64) error
	// Sync refreshes workspace metadata from the provider on demand.
	Sync(ctx context.Context, actor model.Identity, workspaceID int64) (*model.Workspace, error)
	// ListEvents returns the verified raw deliveries recorded for a
	// workspace, newest first.
	ListEvents(ctx context.Context, workspaceID int64, limit int32) ([]model.RawEvent, error)
}

type workspaceService struct {
	stores      StoreProvider
	txRunner    TxRunner
	cache       *cache.Cache
	invalidator *cache.Invalidator
	provider    provider.Client
	activity    ActivityService
	cacheTTL    time.Duration
	logger      *slog.Logger
}

func NewWorkspaceService(
	stores StoreProvider,
	txRunner TxRunner,
	c *cache.Cache,
	invalidator *cache.Invalidator,
	providerClient provider.Client,
	activity ActivityService,
	cacheTTL time.Duration,
	logger *slog.Logger,
) WorkspaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &workspaceService{
		stores:      stores,
		txRunner:    txRunner,
		cache:       c,
		invalidator: invalidator,
		provider:    providerClient,
		activity:    activity,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

func (s *workspaceService) Import(ctx context.Context, actor model.Identity, params ImportParams) (*model.Workspace, error) {
	if actor.UserID == 0 {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}
	if params.ExternalRef == "" || params.Name == "" {
		return nil, fmt.Errorf("%w: external_ref and name are required", ErrValidation)
	}

	secret, err := newWebhookSecret()
	if err != nil {
		return nil, fmt.Errorf("generating webhook secret: %w", err)
	}

	ws := &model.Workspace{
		ID:          id.New(),
		ExternalRef: params.ExternalRef,
		Name:        params.Name,
		Description: params.Description,
		URL:         params.URL,
		Language:    params.Language,
		OwnerID:     actor.UserID,
		Members: []model.Member{
			{UserID: actor.UserID, Role: model.MemberRoleOwner},
		},
		Channels: []model.Channel{
			{ID: id.New(), Name: "general"},
		},
		Tags:          []string{},
		WebhookSecret: secret,
	}

	// One atomic unit: the workspace row and the owner's owned-list entry
	// commit together or not at all. The uniqueness constraint on
	// external_ref decides races between concurrent imports.
	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Workspaces().Create(ctx, ws); err != nil {
			return err
		}
		return stores.Users().AppendOwnedWorkspace(ctx, actor.UserID, ws.ID)
	})
	if err != nil {
		return nil, err
	}

	runPostCommit(ctx, s.logger, []PostCommitHook{
		{Name: "record_import", Run: func(ctx context.Context) error {
			_, err := s.activity.Record(ctx, actor.UserID, &ws.ID, "imported workspace",
				model.TargetTypeWorkspace, ws.ID,
				fmt.Sprintf("imported %s from GitHub", ws.Name))
			return err
		}},
		{Name: "invalidate_import", Run: func(ctx context.Context) error {
			s.invalidator.Invalidate(ctx, cache.MutationImportWorkspace, actor.UserID, ws.ID)
			return nil
		}},
	})

	return ws, nil
}

func (s *workspaceService) Get(ctx context.Context, workspaceID int64) (*model.Workspace, error) {
	return cache.Fetch(ctx, s.cache, cache.WorkspaceDetailKey(workspaceID), s.cacheTTL,
		func(ctx context.Context) (*model.Workspace, error) {
			return s.stores.Workspaces().GetByID(ctx, workspaceID)
		})
}

func (s *workspaceService) ListActive(ctx context.Context, actor model.Identity, search, tag string) ([]model.Workspace, error) {
	if search != "" || tag != "" {
		// Free-form filters bypass the cache to keep the key space bounded.
		return s.stores.Workspaces().ListByMemberFiltered(ctx, actor.UserID, search, tag)
	}
	return cache.Fetch(ctx, s.cache, cache.ActiveListKey(actor.UserID), s.cacheTTL,
		func(ctx context.Context) ([]model.Workspace, error) {
			return s.stores.Workspaces().ListByMember(ctx, actor.UserID)
		})
}

func (s *workspaceService) Discovery(ctx context.Context, actor model.Identity) ([]DiscoveryRepo, error) {
	return cache.Fetch(ctx, s.cache, cache.DiscoveryListKey(actor.UserID), s.cacheTTL,
		func(ctx context.Context) ([]DiscoveryRepo, error) {
			repos, err := s.provider.ListOwnRepos(ctx)
			if err != nil {
				return nil, err
			}

			imported, err := s.stores.Workspaces().ListExternalRefsByOwner(ctx, actor.UserID)
			if err != nil {
				return nil, err
			}
			importedSet := make(map[string]struct{}, len(imported))
			for _, ref := range imported {
				importedSet[ref] = struct{}{}
			}

			list := make([]DiscoveryRepo, len(repos))
			for i, r := range repos {
				_, ok := importedSet[r.ExternalRef]
				list[i] = DiscoveryRepo{RepoSummary: r, IsImported: ok}
			}
			return list, nil
		})
}

func (s *workspaceService) Explore(ctx context.Context, params ExploreParams) (*ExploreResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	found, err := s.provider.SearchPublicRepos(ctx, provider.SearchQuery{
		Text:    params.Search,
		Tag:     params.Tag,
		Page:    params.Page,
		PerPage: explorePageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("searching provider: %w", err)
	}

	// Imported is a global flag here, unlike discovery: any workspace
	// mirroring the repository counts, not just the actor's.
	refs := make([]string, len(found.Repos))
	for i, r := range found.Repos {
		refs[i] = r.ExternalRef
	}
	var imported []string
	if len(refs) > 0 {
		imported, err = s.stores.Workspaces().FilterExternalRefs(ctx, refs)
		if err != nil {
			return nil, fmt.Errorf("flagging imported repositories: %w", err)
		}
	}
	importedSet := make(map[string]struct{}, len(imported))
	for _, ref := range imported {
		importedSet[ref] = struct{}{}
	}

	repos := make([]DiscoveryRepo, len(found.Repos))
	for i, r := range found.Repos {
		_, ok := importedSet[r.ExternalRef]
		repos[i] = DiscoveryRepo{RepoSummary: r, IsImported: ok}
	}
	return &ExploreResult{
		Total:       found.Total,
		Repos:       repos,
		HasNextPage: found.HasNext,
	}, nil
}

func (s *workspaceService) Update(ctx context.Context, actor model.Identity, workspaceID int64, patch UpdateParams) (*model.Workspace, error) {
	ws, err := s.stores.Workspaces().GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != "" {
		ws.Name = *patch.Name
	}
	if patch.Description != nil {
		ws.Description = patch.Description
	}

	if err := s.stores.Workspaces().Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("updating workspace: %w", err)
	}

	runPostCommit(ctx, s.logger, []PostCommitHook{
		{Name: "record_update", Run: func(ctx context.Context) error {
			_, err := s.activity.Record(ctx, actor.UserID, &ws.ID, "updated workspace",
				model.TargetTypeWorkspace, ws.ID, "updated workspace metadata")
			return err
		}},
		{Name: "invalidate_update", Run: func(ctx context.Context) error {
			s.invalidator.Invalidate(ctx, cache.MutationUpdateWorkspace, ws.OwnerID, ws.ID)
			return nil
		}},
	})

	return ws, nil
}

func (s *workspaceService) AddTag(ctx context.Context, actor model.Identity, workspaceID int64, tag string) (*model.Workspace, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", ErrValidation)
	}

	ws, err := s.stores.Workspaces().AddTag(ctx, workspaceID, tag)
	if err != nil {
		return nil, err
	}

	runPostCommit(ctx, s.logger, []PostCommitHook{
		{Name: "record_tag", Run: func(ctx context.Context) error {
			_, err := s.activity.Record(ctx, actor.UserID, &ws.ID, "tagged workspace",
				model.TargetTypeTag, ws.ID, fmt.Sprintf("added tag %q", tag))
			return err
		}},
		{Name: "invalidate_tag", Run: func(ctx context.Context) error {
			s.invalidator.Invalidate(ctx, cache.MutationTagWorkspace, ws.OwnerID, ws.ID)
			return nil
		}},
	})

	return ws, nil
}

func (s *workspaceService) Delete(ctx context.Context, actor model.Identity, workspaceID int64) error {
	var ownerID int64

	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		ws, err := stores.Workspaces().GetByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		ownerID = ws.OwnerID

		if err := stores.Workspaces().Delete(ctx, workspaceID); err != nil {
			return err
		}
		return stores.Users().RemoveOwnedWorkspace(ctx, ws.OwnerID, workspaceID)
	})
	if err != nil {
		return err
	}

	runPostCommit(ctx, s.logger, []PostCommitHook{
		{Name: "record_delete", Run: func(ctx context.Context) error {
			_, err := s.activity.Record(ctx, actor.UserID, nil, "deleted workspace",
				model.TargetTypeWorkspace, workspaceID, "removed workspace")
			return err
		}},
		{Name: "invalidate_delete", Run: func(ctx context.Context) error {
			s.invalidator.Invalidate(ctx, cache.MutationDeleteWorkspace, ownerID, workspaceID)
			return nil
		}},
	})

	return nil
}

func (s *workspaceService) Sync(ctx context.Context, actor model.Identity, workspaceID int64) (*model.Workspace, error) {
	ws, err := s.stores.Workspaces().GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	remote, err := s.provider.GetRepo(ctx, actor.Username, ws.Name)
	if err != nil {
		return nil, fmt.Errorf("syncing with provider: %w", err)
	}

	ws.Description = remote.Description
	ws.Language = remote.Language
	if err := s.stores.Workspaces().Update(ctx, ws); err != nil {
		return nil, fmt.Errorf("storing synced metadata: %w", err)
	}

	runPostCommit(ctx, s.logger, []PostCommitHook{
		{Name: "record_sync", Run: func(ctx context.Context) error {
			_, err := s.activity.Record(ctx, actor.UserID, &ws.ID, "synced workspace",
				model.TargetTypeWorkspace, ws.ID, "synced metadata from GitHub")
			return err
		}},
		{Name: "invalidate_sync", Run: func(ctx context.Context) error {
			s.invalidator.Invalidate(ctx, cache.MutationUpdateWorkspace, ws.OwnerID, ws.ID)
			return nil
		}},
	})

	return ws, nil
}

func (s *workspaceService) ListEvents(ctx context.Context, workspaceID int64, limit int32) ([]model.RawEvent, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if _, err := s.stores.Workspaces().GetByID(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.stores.RawEvents().ListByWorkspace(ctx, workspaceID, limit)
}

func newWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
