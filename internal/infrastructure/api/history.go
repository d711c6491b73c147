package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/history"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// ListHistory fetches one page of purchases with GET /history. The service
// answers either with a bare array or with an object carrying the records
// and a last_evaluated_key cursor.
func (c *Client) ListHistory(ctx context.Context, token string, tenant catalog.TenantID, limit int, cursor string) (shared.Page[history.Record], error) {
	q := url.Values{}
	q.Set("tenant_id", string(tenant))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("last_evaluated_key", cursor)
	}

	body, err := c.do(ctx, request{
		method: http.MethodGet,
		base:   c.cfg.HistoryURL,
		path:   "/history",
		query:  q,
		token:  token,
		auth:   c.cfg.HistoryAuth,
	})
	if err != nil {
		return shared.Page[history.Record]{}, err
	}

	var (
		records []historyRecordDTO
		next    string
	)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decode(trimmed, &records); err != nil {
			return shared.Page[history.Record]{}, err
		}
	} else {
		var dto historyPageDTO
		if err := decode(body, &dto); err != nil {
			return shared.Page[history.Record]{}, err
		}
		records = dto.records()
		next = dto.next()
	}

	page := shared.Page[history.Record]{
		Items: make([]history.Record, 0, len(records)),
		Next:  next,
	}
	for _, r := range records {
		page.Items = append(page.Items, r.toDomain(tenant))
	}
	return page, nil
}
