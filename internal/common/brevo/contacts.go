package brevo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"lead-intake/internal/models"
)

type createContactRequest struct {
	Email         string            `json:"email"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	ListIDs       []int64           `json:"listIds,omitempty"`
	UpdateEnabled bool              `json:"updateEnabled"`
}

type createContactResponse struct {
	ID int64 `json:"id"`
}

// UpsertContact creates the contact or, when the email already exists,
// updates it in place. Brevo answers 201 with an id on create and 204
// without a body on update, so the returned id may be empty.
func (c *Client) UpsertContact(ctx context.Context, record *models.ContactRecord) (string, error) {
	if record == nil || record.Email == "" {
		return "", fmt.Errorf("contact email is required")
	}

	req := createContactRequest{
		Email:         record.Email,
		Attributes:    record.Attributes,
		ListIDs:       record.ListIDs,
		UpdateEnabled: true,
	}

	var resp createContactResponse
	if _, err := c.do(ctx, OpCreateContact, http.MethodPost, "/contacts", req, &resp); err != nil {
		return "", err
	}

	if resp.ID == 0 {
		return "", nil
	}
	return strconv.FormatInt(resp.ID, 10), nil
}

type List struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	TotalBlacklisted  int64  `json:"totalBlacklisted"`
	TotalSubscribers  int64  `json:"totalSubscribers"`
	UniqueSubscribers int64  `json:"uniqueSubscribers"`
	FolderID          int64  `json:"folderId"`
}

type ListsResponse struct {
	Lists []List `json:"lists"`
	Count int64  `json:"count"`
}

// GetLists returns one page of contact lists.
func (c *Client) GetLists(ctx context.Context, limit, offset int) (*ListsResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	resp := &ListsResponse{}
	if _, err := c.do(ctx, OpGetLists, http.MethodGet, "/contacts/lists?"+q.Encode(), nil, resp); err != nil {
		return nil, err
	}
	if resp.Lists == nil {
		resp.Lists = []List{}
	}
	return resp, nil
}
