package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"dirhub.app/server/common/id"
	"dirhub.app/server/common/logger"
	"dirhub.app/server/internal/cache"
	"dirhub.app/server/internal/model"
	"dirhub.app/server/internal/store"
)

type IngestParams struct {
	// SignatureHeader is the raw X-Hub-Signature-256 value,
	// "sha256=<hex hmac>".
	SignatureHeader string
	// EventTypeHeader is the raw X-GitHub-Event value.
	EventTypeHeader string
	// Payload is the request body byte-for-byte; the signature was computed
	// over these bytes, never over a re-serialized structure.
	Payload []byte
}

type IngestOutcome string

const (
	// IngestOutcomeProcessed: verified, audited, classified.
	IngestOutcomeProcessed IngestOutcome = "processed"
	// IngestOutcomeIgnored: no local workspace for the embedded reference.
	// Reported as success so senders cannot tell which repositories exist
	// and are never prompted to retry.
	IngestOutcomeIgnored IngestOutcome = "ignored"
)

type IngestResult struct {
	Outcome  IngestOutcome
	RawEvent *model.RawEvent
}

type WebhookService interface {
	Ingest(ctx context.Context, params IngestParams) (*IngestResult, error)
}

type webhookService struct {
	stores      StoreProvider
	invalidator *cache.Invalidator
	activity    ActivityService
	logger      *slog.Logger
}

func NewWebhookService(stores StoreProvider, invalidator *cache.Invalidator, activity ActivityService, log *slog.Logger) WebhookService {
	if log == nil {
		log = slog.Default()
	}
	return &webhookService{
		stores:      stores,
		invalidator: invalidator,
		activity:    activity,
		logger:      log,
	}
}

// webhookPayload is the minimal shape ingestion needs from any event body.
type webhookPayload struct {
	Repository struct {
		ID int64 `json:"id"`
	} `json:"repository"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
	Ref    string `json:"ref"`
	Action string `json:"action"`
	Issue  struct {
		Title string `json:"title"`
	} `json:"issue"`
}

// Ingest runs the strictly ordered pipeline: resolve the workspace from the
// embedded repository reference, verify the HMAC signature against the
// workspace secret, persist the raw audit copy, then classify. Verification
// happens before anything is persisted; the audit copy is persisted before
// classification, so a verified-but-partially-processed delivery always
// leaves a recoverable trail.
func (s *webhookService) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	sc := logger.StartSpan(ctx, "dirhub.webhook.ingest")
	defer sc.End()
	ctx = sc.Context()

	if len(params.Payload) == 0 {
		return nil, fmt.Errorf("%w: payload is required", ErrValidation)
	}

	var payload webhookPayload
	if err := json.Unmarshal(params.Payload, &payload); err != nil || payload.Repository.ID == 0 {
		// Unresolvable payloads get the same no-op success as unknown
		// repositories: differing responses would leak state to the sender.
		s.logger.InfoContext(ctx, "webhook payload has no resolvable repository reference")
		return &IngestResult{Outcome: IngestOutcomeIgnored}, nil
	}

	externalRef := strconv.FormatInt(payload.Repository.ID, 10)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ExternalRef: logger.Ptr(externalRef),
		EventType:   logger.Ptr(params.EventTypeHeader),
		Component:   "dirhub.webhook.ingest",
	})

	ws, err := s.stores.Workspaces().GetByExternalRef(ctx, externalRef)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.InfoContext(ctx, "webhook for unknown repository, ignoring")
			return &IngestResult{Outcome: IngestOutcomeIgnored}, nil
		}
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}

	if !verifySignature(params.SignatureHeader, params.Payload, ws.WebhookSecret) {
		return nil, ErrInvalidSignature
	}

	// The audit copy is unconditional once the signature checks out, even
	// if classification below fails.
	event := &model.RawEvent{
		ID:            id.New(),
		WorkspaceID:   ws.ID,
		EventType:     model.EventType(params.EventTypeHeader),
		ActorUsername: payload.Sender.Login,
		Payload:       params.Payload,
	}
	if err := s.stores.RawEvents().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("persisting raw event: %w", err)
	}

	s.classify(ctx, ws, event.EventType, payload)

	return &IngestResult{Outcome: IngestOutcomeProcessed, RawEvent: event}, nil
}

// classify dispatches on the event type. Failures here are caught and
// logged; the already-committed raw event and the response are unaffected.
func (s *webhookService) classify(ctx context.Context, ws *model.Workspace, eventType model.EventType, payload webhookPayload) {
	var message string
	switch eventType {
	case model.EventTypePush:
		s.invalidator.Invalidate(ctx, cache.MutationPushEvent, ws.OwnerID, ws.ID)
		message = fmt.Sprintf("pushed to %s", branchFromRef(payload.Ref))
	case model.EventTypeIssues:
		message = fmt.Sprintf("%s issue: %s", payload.Action, payload.Issue.Title)
	case model.EventTypeStar:
		message = "starred the repository"
	default:
		return
	}

	_, err := s.activity.Record(ctx, ws.OwnerID, &ws.ID,
		fmt.Sprintf("github_%s", eventType), model.TargetTypeWorkspace, ws.ID,
		fmt.Sprintf("GitHub: %s %s", payload.Sender.Login, message))
	if err != nil {
		s.logger.ErrorContext(ctx, "recording webhook activity failed", "error", err)
	}
}

// verifySignature compares HMAC-SHA256(secret, payload) in "sha256=<hex>"
// form against the supplied header using a constant-time comparison.
func verifySignature(signatureHeader string, payload []byte, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

func branchFromRef(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
