package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/models"
)

func TestPostService_SaveAndGet(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	post := &models.Post{
		AccountID:     "acc-1",
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "bm9uY2U=",
		Data:          []byte("ciphertext"),
	}
	require.NoError(t, s.Save(context.Background(), post))

	got, err := s.Get(context.Background(), "acc-1", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, post.Nonce, got.Nonce)
	require.Equal(t, post.Data, got.Data)
}

func TestPostService_SaveReplacesSameDate(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	first := &models.Post{
		AccountID:     "acc-1",
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "n1",
		Data:          []byte("v1"),
	}
	require.NoError(t, s.Save(context.Background(), first))

	second := &models.Post{
		AccountID:     "acc-1",
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "n2",
		Data:          []byte("v2"),
	}
	require.NoError(t, s.Save(context.Background(), second))

	got, err := s.Get(context.Background(), "acc-1", "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got.Data)

	list, err := s.List(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestPostService_SaveValidation(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	tests := []struct {
		name string
		post *models.Post
	}{
		{"bad date", &models.Post{
			AccountID: "acc-1", Date: "30.08.2026",
			FormatVersion: models.PostFormatLegacy, Data: []byte("x"),
		}},
		{"unknown format", &models.Post{
			AccountID: "acc-1", Date: "2026-08-30",
			FormatVersion: 7, Data: []byte("x"),
		}},
		{"encrypted without nonce", &models.Post{
			AccountID: "acc-1", Date: "2026-08-30",
			FormatVersion: models.PostFormatEncrypted, Data: []byte("x"),
		}},
		{"empty payload", &models.Post{
			AccountID: "acc-1", Date: "2026-08-30",
			FormatVersion: models.PostFormatLegacy,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Save(context.Background(), tt.post)
			require.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestPostService_LegacyFormatWithoutNonce(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	post := &models.Post{
		AccountID:     "acc-1",
		Date:          "2014-02-01",
		FormatVersion: models.PostFormatLegacy,
		Data:          []byte("plain old entry"),
	}
	require.NoError(t, s.Save(context.Background(), post))
}

func TestPostService_DeleteMissing(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	err := s.Delete(context.Background(), "acc-1", "2026-08-30")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostService_ScopedToAccount(t *testing.T) {
	m := newFakeRepoManager()
	s := NewPostService(nil, m)

	require.NoError(t, s.Save(context.Background(), &models.Post{
		AccountID:     "acc-1",
		Date:          "2026-08-30",
		FormatVersion: models.PostFormatEncrypted,
		Nonce:         "n",
		Data:          []byte("x"),
	}))

	_, err := s.Get(context.Background(), "acc-2", "2026-08-30")
	require.ErrorIs(t, err, common.ErrorNotFound)

	list, err := s.List(context.Background(), "acc-2")
	require.NoError(t, err)
	require.Empty(t, list)
}
