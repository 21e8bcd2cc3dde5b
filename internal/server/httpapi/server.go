// Package httpapi is the HTTP transport layer: a chi router over the service
// layer, bearer-token authentication, and the Stripe webhook endpoint. It
// translates service errors into HTTP statuses and never leaks credential or
// key material into responses.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dayli-app/api/internal/logging"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/services"
)

// AccountProvider is the slice of the account service the handlers use.
type AccountProvider interface {
	Register(ctx context.Context, email, password string, wrap models.KeyWrap) (*models.Account, error)
	Login(ctx context.Context, login, password string) (*services.LoginResult, error)
	RenewToken(ctx context.Context, accountID string) (string, error)
	GetProfile(ctx context.Context, accountID string) (*models.Account, *models.Subscription, error)
	Update(ctx context.Context, accountID string, upd services.AccountUpdate) (*models.Account, error)
}

// BillingProvider is the slice of the billing service the handlers use.
type BillingProvider interface {
	HandleWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error
	HasActiveEntitlement(ctx context.Context, accountID string) (bool, error)
	Subscribe(ctx context.Context, accountID string) (string, error)
	Portal(ctx context.Context, accountID string) (string, error)
}

// PostProvider is the slice of the post service the handlers use.
type PostProvider interface {
	Save(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, accountID, date string) (*models.Post, error)
	List(ctx context.Context, accountID string) ([]*models.Post, error)
	Delete(ctx context.Context, accountID, date string) error
}

// AttachmentProvider is the slice of the attachment service the handlers use.
type AttachmentProvider interface {
	CreateUpload(ctx context.Context, accountID, postDate, nonce string) (*services.AttachmentUpload, error)
	MarkUploaded(ctx context.Context, accountID, id string) error
	DownloadURL(ctx context.Context, accountID, id string) (string, error)
	ListForPost(ctx context.Context, accountID, postDate string) ([]*models.Attachment, error)
	Delete(ctx context.Context, accountID, id string) error
}

type Server struct {
	address     string
	accounts    AccountProvider
	billing     BillingProvider
	posts       PostProvider
	attachments AttachmentProvider
	logger      logging.Logger
	jwtSecret   []byte
}

func NewServer(address string, l logging.Logger, accounts AccountProvider, billing BillingProvider,
	posts PostProvider, attachments AttachmentProvider, secretKey string) *Server {
	return &Server{
		address:     address,
		logger:      l.With("module", "http_server"),
		accounts:    accounts,
		billing:     billing,
		posts:       posts,
		attachments: attachments,
		jwtSecret:   []byte(secretKey),
	}
}

// Routes constructs the chi router containing all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/signup", s.handleSignup)

		// webhook authenticates by signature, not bearer token
		r.Post("/billing/stripe-webhook", s.handleStripeWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/token", s.handleRenewToken)
			r.Get("/auth/user", s.handleGetProfile)
			r.Put("/auth/user", s.handleUpdateProfile)

			r.Post("/billing/subscribe", s.handleSubscribe)
			r.Post("/billing/portal", s.handlePortal)

			// reads and deletes stay available after a subscription
			// lapses; only writing new content needs an entitlement
			r.Get("/posts", s.handleListPosts)
			r.Get("/posts/{date}", s.handleGetPost)
			r.Delete("/posts/{date}", s.handleDeletePost)
			r.Get("/posts/{date}/attachments", s.handleListAttachments)
			r.Get("/attachments/{id}/download", s.handleAttachmentDownload)
			r.Delete("/attachments/{id}", s.handleDeleteAttachment)

			r.Group(func(r chi.Router) {
				r.Use(s.requireSubscription)

				r.Post("/posts", s.handleSavePost)
				r.Post("/posts/{date}/attachments", s.handleCreateAttachment)
				r.Post("/attachments/{id}/uploaded", s.handleAttachmentUploaded)
			})
		})
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
