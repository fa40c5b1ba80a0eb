package integration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Tribhuvan-Web/cinebook/internal/idempotency"
)

func (s *RepositoryTestSuite) TestIdempotencyStore() {
	ctx := context.Background()
	store := idempotency.NewStore(s.cache, time.Minute)

	resp, err := store.Get(ctx, "payment", "unseen-key")
	s.Require().NoError(err)
	s.Nil(resp)

	original := idempotency.Response{
		Status: http.StatusCreated,
		Body:   json.RawMessage(`{"holdId":"abc"}`),
	}
	s.Require().NoError(store.Set(ctx, "payment", "key-1", original))

	retry := idempotency.Response{
		Status: http.StatusConflict,
		Body:   json.RawMessage(`{"message":"late writer"}`),
	}
	s.Require().NoError(store.Set(ctx, "payment", "key-1", retry))

	resp, err = store.Get(ctx, "payment", "key-1")
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusCreated, resp.Status)
	s.JSONEq(`{"holdId":"abc"}`, string(resp.Body))

	resp, err = store.Get(ctx, "selection", "key-1")
	s.Require().NoError(err)
	s.Nil(resp)
}
