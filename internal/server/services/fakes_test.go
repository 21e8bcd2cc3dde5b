package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/dbx"
	"github.com/dayli-app/api/internal/server/billing"
	"github.com/dayli-app/api/internal/server/models"
	"github.com/dayli-app/api/internal/server/repositories/accounts"
	"github.com/dayli-app/api/internal/server/repositories/attachments"
	"github.com/dayli-app/api/internal/server/repositories/posts"
	"github.com/dayli-app/api/internal/server/repositories/subscriptions"
)

// In-memory repository fakes. They intentionally ignore the DBTX they are
// bound to, so service tests exercise service logic without SQL.

type fakeAccountsRepo struct {
	byID  map[string]*models.Account
	wraps map[string]models.KeyWrap
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{
		byID:  make(map[string]*models.Account),
		wraps: make(map[string]models.KeyWrap),
	}
}

func (r *fakeAccountsRepo) Create(_ context.Context, account *models.Account, wrap models.KeyWrap) (*models.Account, error) {
	for _, a := range r.byID {
		if a.Email == account.Email {
			return nil, common.ErrorConflict
		}
	}
	created := *account
	created.ID = uuid.NewString()
	created.Joined = time.Now()
	created.LastSeen = time.Now()
	r.byID[created.ID] = &created
	r.wraps[created.ID] = wrap
	return &created, nil
}

func (r *fakeAccountsRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *a
	return &copy, nil
}

func (r *fakeAccountsRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	for _, a := range r.byID {
		if a.Email == email {
			copy := *a
			return &copy, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccountsRepo) GetByLegacyUsername(_ context.Context, username string) (*models.Account, error) {
	for _, a := range r.byID {
		if a.LegacyUsername == username && username != "" {
			copy := *a
			return &copy, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccountsRepo) GetByStripeCustomerID(_ context.Context, stripeCustomerID string) (*models.Account, error) {
	for _, a := range r.byID {
		if a.StripeCustomerID == stripeCustomerID && stripeCustomerID != "" {
			copy := *a
			return &copy, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccountsRepo) UpdateEmail(_ context.Context, id string, email string) error {
	for otherID, a := range r.byID {
		if otherID != id && a.Email == email {
			return common.ErrorConflict
		}
	}
	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Email = email
	return nil
}

func (r *fakeAccountsRepo) UpdateCredential(_ context.Context, id string, cred models.Credential) error {
	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Password = cred
	return nil
}

func (r *fakeAccountsRepo) TouchLastSeen(_ context.Context, id string) error {
	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.LastSeen = time.Now()
	return nil
}

func (r *fakeAccountsRepo) SetStripeCustomerID(_ context.Context, id string, stripeCustomerID string) error {
	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.StripeCustomerID = stripeCustomerID
	return nil
}

func (r *fakeAccountsRepo) GetKeyWrap(_ context.Context, id string) (models.KeyWrap, error) {
	if _, ok := r.byID[id]; !ok {
		return models.KeyWrap{}, common.ErrorNotFound
	}
	return r.wraps[id], nil
}

func (r *fakeAccountsRepo) SetKeyWrap(_ context.Context, id string, wrap models.KeyWrap) error {
	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	r.wraps[id] = wrap
	return nil
}

type fakeSubscriptionsRepo struct {
	byAccountID map[string]*models.Subscription
}

func newFakeSubscriptionsRepo() *fakeSubscriptionsRepo {
	return &fakeSubscriptionsRepo{byAccountID: make(map[string]*models.Subscription)}
}

func (r *fakeSubscriptionsRepo) GetByAccountID(_ context.Context, accountID string) (*models.Subscription, error) {
	sub, ok := r.byAccountID[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *sub
	return &copy, nil
}

func (r *fakeSubscriptionsRepo) Upsert(_ context.Context, sub *models.Subscription) error {
	stored := *sub
	if existing, ok := r.byAccountID[sub.AccountID]; ok {
		stored.ID = existing.ID
		stored.StartTime = existing.StartTime
	} else {
		stored.ID = uuid.NewString()
		stored.StartTime = time.Now()
	}
	stored.LastChanged = time.Now()
	r.byAccountID[sub.AccountID] = &stored
	return nil
}

func (r *fakeSubscriptionsRepo) DeleteByAccountID(_ context.Context, accountID string) error {
	delete(r.byAccountID, accountID)
	return nil
}

type fakePostsRepo struct {
	byKey map[string]*models.Post
}

func newFakePostsRepo() *fakePostsRepo {
	return &fakePostsRepo{byKey: make(map[string]*models.Post)}
}

func postKey(accountID, date string) string {
	return accountID + "/" + date
}

func (r *fakePostsRepo) Upsert(_ context.Context, post *models.Post) error {
	stored := *post
	if existing, ok := r.byKey[postKey(post.AccountID, post.Date)]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = uuid.NewString()
	}
	r.byKey[postKey(post.AccountID, post.Date)] = &stored
	return nil
}

func (r *fakePostsRepo) GetByAccountAndDate(_ context.Context, accountID, date string) (*models.Post, error) {
	post, ok := r.byKey[postKey(accountID, date)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copy := *post
	return &copy, nil
}

func (r *fakePostsRepo) ListByAccount(_ context.Context, accountID string) ([]*models.Post, error) {
	var result []*models.Post
	for _, post := range r.byKey {
		if post.AccountID == accountID {
			copy := *post
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (r *fakePostsRepo) DeleteByAccountAndDate(_ context.Context, accountID, date string) error {
	if _, ok := r.byKey[postKey(accountID, date)]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byKey, postKey(accountID, date))
	return nil
}

type fakeAttachmentsRepo struct {
	byID map[string]*models.Attachment
}

func newFakeAttachmentsRepo() *fakeAttachmentsRepo {
	return &fakeAttachmentsRepo{byID: make(map[string]*models.Attachment)}
}

func (r *fakeAttachmentsRepo) Create(_ context.Context, att *models.Attachment) (*models.Attachment, error) {
	stored := *att
	stored.ID = uuid.NewString()
	r.byID[stored.ID] = &stored
	copy := stored
	return &copy, nil
}

func (r *fakeAttachmentsRepo) GetByID(_ context.Context, accountID, id string) (*models.Attachment, error) {
	att, ok := r.byID[id]
	if !ok || att.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	copy := *att
	return &copy, nil
}

func (r *fakeAttachmentsRepo) ListByPost(_ context.Context, accountID, postID string) ([]*models.Attachment, error) {
	var result []*models.Attachment
	for _, att := range r.byID {
		if att.AccountID == accountID && att.PostID == postID {
			copy := *att
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (r *fakeAttachmentsRepo) MarkCompleted(_ context.Context, accountID, id string) error {
	att, ok := r.byID[id]
	if !ok || att.AccountID != accountID {
		return common.ErrorNotFound
	}
	att.UploadStatus = models.AttachmentUploadCompleted
	return nil
}

func (r *fakeAttachmentsRepo) Delete(_ context.Context, accountID, id string) error {
	att, ok := r.byID[id]
	if !ok || att.AccountID != accountID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeRepoManager struct {
	accounts      *fakeAccountsRepo
	subscriptions *fakeSubscriptionsRepo
	posts         *fakePostsRepo
	attachments   *fakeAttachmentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:      newFakeAccountsRepo(),
		subscriptions: newFakeSubscriptionsRepo(),
		posts:         newFakePostsRepo(),
		attachments:   newFakeAttachmentsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

func (m *fakeRepoManager) Subscriptions(dbx.DBTX) subscriptions.Repository {
	return m.subscriptions
}

func (m *fakeRepoManager) Posts(dbx.DBTX) posts.Repository { return m.posts }

func (m *fakeRepoManager) Attachments(dbx.DBTX) attachments.Repository {
	return m.attachments
}

type fakeProvider struct {
	customers int
	checkouts int
	portals   int
	failCalls bool
}

func (p *fakeProvider) CreateCustomer(_ context.Context, email string) (string, error) {
	if p.failCalls {
		return "", fmt.Errorf("%w: customer create", common.ErrorPaymentProviderCall)
	}
	p.customers++
	return fmt.Sprintf("cus_fake_%d", p.customers), nil
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, customerID string) (string, error) {
	if p.failCalls {
		return "", fmt.Errorf("%w: checkout session", common.ErrorPaymentProviderCall)
	}
	p.checkouts++
	return "https://checkout.example/" + customerID, nil
}

func (p *fakeProvider) CreatePortalSession(_ context.Context, customerID string) (string, error) {
	if p.failCalls {
		return "", fmt.Errorf("%w: portal session", common.ErrorPaymentProviderCall)
	}
	p.portals++
	return "https://portal.example/" + customerID, nil
}

type fakeDecoder struct {
	event *billing.Event
	err   error
}

func (d *fakeDecoder) Decode([]byte, string) (*billing.Event, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.event, nil
}
