package webhook_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dirhub.app/server/internal/http/handler/webhook"
	"dirhub.app/server/internal/service"
)

type fakeWebhookService struct {
	ingestFn       func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error)
	capturedParams *service.IngestParams
}

func (f *fakeWebhookService) Ingest(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
	f.capturedParams = &params
	if f.ingestFn != nil {
		return f.ingestFn(ctx, params)
	}
	return &service.IngestResult{Outcome: service.IngestOutcomeProcessed}, nil
}

var _ = Describe("GitHubWebhookHandler", func() {
	var (
		router  *gin.Engine
		ingest  *fakeWebhookService
		payload []byte
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		ingest = &fakeWebhookService{}
		payload = []byte(`{"repository":{"id":9001},"sender":{"login":"alice"}}`)

		h := webhook.NewGitHubWebhookHandler(ingest)
		router.POST("/webhooks/github", h.HandleEvent)
	})

	deliver := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Hub-Signature-256", "sha256=abc")
		req.Header.Set("X-GitHub-Event", "push")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("passes the body bytes and headers through unmodified", func() {
		w := deliver(payload)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(ingest.capturedParams).NotTo(BeNil())
		Expect(ingest.capturedParams.Payload).To(Equal(payload))
		Expect(ingest.capturedParams.SignatureHeader).To(Equal("sha256=abc"))
		Expect(ingest.capturedParams.EventTypeHeader).To(Equal("push"))
	})

	It("responds 200 for an ignored delivery", func() {
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return &service.IngestResult{Outcome: service.IngestOutcomeIgnored}, nil
		}

		w := deliver(payload)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("responds 401 for an invalid signature", func() {
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return nil, service.ErrInvalidSignature
		}

		w := deliver(payload)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("responds 400 for a validation failure", func() {
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return nil, service.ErrValidation
		}

		w := deliver(nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("responds 500 for a processing failure", func() {
		ingest.ingestFn = func(ctx context.Context, params service.IngestParams) (*service.IngestResult, error) {
			return nil, errors.New("db down")
		}

		w := deliver(payload)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
