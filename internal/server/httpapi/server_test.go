package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/logging"
	"github.com/dayli-app/api/internal/server/auth"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/services"
)

const testSecret = "test-secret"

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeAccounts struct {
	registerResp *models.Account
	registerErr  error

	loginResp *services.LoginResult
	loginErr  error

	renewResp string
	renewErr  error

	profileAccount *models.Account
	profileSub     *models.Subscription
	profileErr     error

	updateResp *models.Account
	updateErr  error
}

func (f *fakeAccounts) Register(ctx context.Context, email, password string, wrap models.KeyWrap) (*models.Account, error) {
	return f.registerResp, f.registerErr
}
func (f *fakeAccounts) Login(ctx context.Context, login, password string) (*services.LoginResult, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeAccounts) RenewToken(ctx context.Context, accountID string) (string, error) {
	return f.renewResp, f.renewErr
}
func (f *fakeAccounts) GetProfile(ctx context.Context, accountID string) (*models.Account, *models.Subscription, error) {
	return f.profileAccount, f.profileSub, f.profileErr
}
func (f *fakeAccounts) Update(ctx context.Context, accountID string, upd services.AccountUpdate) (*models.Account, error) {
	return f.updateResp, f.updateErr
}

type fakeBilling struct {
	webhookErr error

	entitled    bool
	entitledErr error

	subscribeURL string
	subscribeErr error

	portalURL string
	portalErr error
}

func (f *fakeBilling) HandleWebhookEvent(ctx context.Context, payload []byte, sig string) error {
	return f.webhookErr
}
func (f *fakeBilling) HasActiveEntitlement(ctx context.Context, accountID string) (bool, error) {
	return f.entitled, f.entitledErr
}
func (f *fakeBilling) Subscribe(ctx context.Context, accountID string) (string, error) {
	return f.subscribeURL, f.subscribeErr
}
func (f *fakeBilling) Portal(ctx context.Context, accountID string) (string, error) {
	return f.portalURL, f.portalErr
}

type fakePosts struct {
	saveErr error

	getResp *models.Post
	getErr  error

	listResp []*models.Post
	listErr  error

	deleteErr error
}

func (f *fakePosts) Save(ctx context.Context, post *models.Post) error { return f.saveErr }
func (f *fakePosts) Get(ctx context.Context, accountID, date string) (*models.Post, error) {
	return f.getResp, f.getErr
}
func (f *fakePosts) List(ctx context.Context, accountID string) ([]*models.Post, error) {
	return f.listResp, f.listErr
}
func (f *fakePosts) Delete(ctx context.Context, accountID, date string) error { return f.deleteErr }

type fakeAttachments struct {
	createResp *services.AttachmentUpload
	createErr  error

	markErr error

	url    string
	urlErr error

	listResp []*models.Attachment
	listErr  error

	deleteErr error
}

func (f *fakeAttachments) CreateUpload(ctx context.Context, accountID, postDate, nonce string) (*services.AttachmentUpload, error) {
	return f.createResp, f.createErr
}
func (f *fakeAttachments) MarkUploaded(ctx context.Context, accountID, id string) error {
	return f.markErr
}
func (f *fakeAttachments) DownloadURL(ctx context.Context, accountID, id string) (string, error) {
	return f.url, f.urlErr
}
func (f *fakeAttachments) ListForPost(ctx context.Context, accountID, postDate string) ([]*models.Attachment, error) {
	return f.listResp, f.listErr
}
func (f *fakeAttachments) Delete(ctx context.Context, accountID, id string) error {
	return f.deleteErr
}

type serverFakes struct {
	accounts    *fakeAccounts
	billing     *fakeBilling
	posts       *fakePosts
	attachments *fakeAttachments
}

func newTestServer(t *testing.T) (*httptest.Server, *serverFakes) {
	t.Helper()

	f := &serverFakes{
		accounts:    &fakeAccounts{},
		billing:     &fakeBilling{},
		posts:       &fakePosts{},
		attachments: &fakeAttachments{},
	}
	s := NewServer("", nopLogger{}, f.accounts, f.billing, f.posts, f.attachments, testSecret)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, f
}

func validToken(t *testing.T, accountID string) string {
	t.Helper()
	token, err := auth.GenerateToken(accountID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken err: %v", err)
	}
	return token
}

func doRequest(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("NewRequest err: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// ---- auth ----

func TestHandleLogin(t *testing.T) {
	ts, f := newTestServer(t)

	f.accounts.loginResp = &services.LoginResult{
		Token: "tok",
		Account: &models.Account{
			ID:    "acc-1",
			Email: "a@example.com",
		},
		KeyWrap: models.KeyWrap{Salt: "s", WrappedMasterKey: "w", Nonce: "n"},
	}

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/auth/login", "",
		map[string]string{"login": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "tok", body["token"])
	wrap := body["key_wrap"].(map[string]any)
	require.Equal(t, "w", wrap["wrapped_master_key"])
	require.Nil(t, body["subscription"])
}

func TestHandleLogin_Unauthorized(t *testing.T) {
	ts, f := newTestServer(t)
	f.accounts.loginErr = common.ErrorUnauthorized

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/auth/login", "",
		map[string]string{"login": "a@example.com", "password": "bad"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "unauthorized", body["error"])
}

func TestHandleSignup(t *testing.T) {
	ts, f := newTestServer(t)
	f.accounts.registerResp = &models.Account{ID: "acc-1", Email: "a@example.com"}

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/auth/signup", "",
		map[string]any{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHandleSignup_Conflict(t *testing.T) {
	ts, f := newTestServer(t)
	f.accounts.registerErr = common.ErrorConflict

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/auth/signup", "",
		map[string]any{"email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	ts, f := newTestServer(t)
	f.accounts.renewResp = "fresh"

	// no token
	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/auth/token", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// garbage token
	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/auth/token", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// wrong secret
	wrong, err := auth.GenerateToken("acc-1", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/auth/token", wrong, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// valid token
	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/auth/token", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, "fresh", body["token"])
}

func TestHandleGetProfile(t *testing.T) {
	ts, f := newTestServer(t)
	f.accounts.profileAccount = &models.Account{ID: "acc-1", Email: "a@example.com"}
	f.accounts.profileSub = &models.Subscription{Status: "active", Plan: "standard"}

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/auth/user", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	account := body["account"].(map[string]any)
	require.Equal(t, "a@example.com", account["email"])
	// key material never rides along with the profile
	require.NotContains(t, account, "key_wrap")
	sub := body["subscription"].(map[string]any)
	require.Equal(t, "active", sub["status"])
}

// ---- billing ----

func TestHandleStripeWebhook(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"applied", nil, http.StatusOK},
		{"bad signature", common.ErrorSignatureInvalid, http.StatusBadRequest},
		{"unknown customer", common.ErrorNotFound, http.StatusNotFound},
		{"unhandled type", common.ErrorUnhandledEventType, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, f := newTestServer(t)
			f.billing.webhookErr = tt.err

			resp := doRequest(t, http.MethodPost, ts.URL+"/v1/billing/stripe-webhook", "",
				map[string]any{"id": "evt_1"})
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHandleSubscribe(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.subscribeURL = "https://checkout.example/session"

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/billing/subscribe", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "https://checkout.example/session", body["url"])
}

func TestHandleSubscribe_ProviderDown(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.subscribeErr = common.ErrorPaymentProviderCall

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/billing/subscribe", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

// ---- posts ----

func TestCreationRequiresSubscription(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = false

	token := validToken(t, "acc-1")
	post := map[string]any{
		"date":           "2026-08-30",
		"format_version": 1,
		"nonce":          "n",
		"data":           "Y2lwaGVydGV4dA==",
	}

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/posts", token, post)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/posts/2026-08-30/attachments", token,
		map[string]any{"nonce": "n"})
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestLapsedSubscriptionKeepsExistingContentAccessible(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = false
	f.posts.getResp = &models.Post{
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "n",
		Data:          []byte("ciphertext"),
	}
	f.attachments.url = "https://blobs.example/get"

	token := validToken(t, "acc-1")

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/posts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/posts/2026-08-30", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/attachments/att-1/download", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodDelete, ts.URL+"/v1/posts/2026-08-30", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleSavePost(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/posts", validToken(t, "acc-1"),
		map[string]any{
			"date":           "2026-08-30",
			"format_version": 1,
			"nonce":          "n",
			"data":           "Y2lwaGVydGV4dA==",
		})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleSavePost_BadBase64(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/posts", validToken(t, "acc-1"),
		map[string]any{
			"date":           "2026-08-30",
			"format_version": 1,
			"nonce":          "n",
			"data":           "not base64!!",
		})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleGetPost(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true
	f.posts.getResp = &models.Post{
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "n",
		Data:          []byte("ciphertext"),
	}

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/posts/2026-08-30", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	post := body["post"].(map[string]any)
	require.Equal(t, "2026-08-30", post["date"])
	require.Equal(t, "Y2lwaGVydGV4dA==", post["data"])
}

func TestHandleDeletePost_NotFound(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true
	f.posts.deleteErr = common.ErrorNotFound

	resp := doRequest(t, http.MethodDelete, ts.URL+"/v1/posts/2026-08-30", validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ---- attachments ----

func TestHandleCreateAttachment(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true
	f.attachments.createResp = &services.AttachmentUpload{
		Attachment: &models.Attachment{
			ID:           "att-1",
			Nonce:        "n",
			UploadStatus: models.AttachmentUploadPending,
		},
		UploadURL: "https://storage.example/put/key",
	}

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/posts/2026-08-30/attachments",
		validToken(t, "acc-1"), map[string]any{"nonce": "n"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "https://storage.example/put/key", body["upload_url"])
}

func TestHandleAttachmentDownload(t *testing.T) {
	ts, f := newTestServer(t)
	f.billing.entitled = true
	f.attachments.url = "https://storage.example/get/key"

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/attachments/att-1/download",
		validToken(t, "acc-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "https://storage.example/get/key", body["url"])
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
