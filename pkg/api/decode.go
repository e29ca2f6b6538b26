package api

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/json-iterator/go"
)

// PostRef is a reference to a post. The list endpoints send a bare id, the
// stream and admin endpoints send an object with at least an id.
type PostRef struct {
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
}

// UnmarshalJSON accepts "id", {"id": ...} and null
func (p *PostRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &p.ID)
	case '{':
		var obj struct {
			ID      interface{} `json:"id"`
			Content string      `json:"content"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		p.ID = idString(obj.ID)
		p.Content = obj.Content
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("post reference: unexpected %s", string(data))
		}
		p.ID = idString(n)
		return nil
	}
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// rawPagination is the union of every pagination block the backend emits.
// Each list view names its totals after the collection.
type rawPagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`

	TotalItems     *int `json:"total_items"`
	TotalUsers     *int `json:"total_users"`
	TotalFollowers *int `json:"total_followers"`
	TotalFollowing *int `json:"total_following"`

	ItemsPerPage     int `json:"items_per_page"`
	UsersPerPage     int `json:"users_per_page"`
	FollowersPerPage int `json:"followers_per_page"`
	FollowingPerPage int `json:"following_per_page"`
}

func (r rawPagination) normalize() Pagination {
	p := Pagination{
		CurrentPage: r.CurrentPage,
		TotalPages:  r.TotalPages,
		HasNext:     r.HasNext,
		HasPrevious: r.HasPrevious,
	}
	for _, total := range []*int{r.TotalItems, r.TotalUsers, r.TotalFollowers, r.TotalFollowing} {
		if total != nil {
			p.TotalItems = *total
			break
		}
	}
	for _, per := range []int{r.ItemsPerPage, r.UsersPerPage, r.FollowersPerPage, r.FollowingPerPage} {
		if per > 0 {
			p.PerPage = per
			break
		}
	}
	return p
}

// decodeItems decodes a collection response. It accepts a bare array, an
// envelope keyed by one of keys, or a DRF page ({"count", "results"}), and
// rejects anything else.
func decodeItems[T any](body []byte, keys ...string) ([]T, Pagination, error) {
	body = bytes.TrimSpace(body)
	var items []T

	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, Pagination{}, nil
	}

	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, Pagination{}, err
		}
		return nonNil(items), singlePage(len(items)), nil
	}

	if body[0] != '{' {
		return nil, Pagination{}, fmt.Errorf("unexpected response shape")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, Pagination{}, err
	}

	raw, found := json.RawMessage(nil), false
	for _, key := range append(keys, "results") {
		if v, ok := envelope[key]; ok {
			raw, found = v, true
			break
		}
	}
	if !found {
		return nil, Pagination{}, fmt.Errorf("unexpected response shape: none of %v present", append(keys, "results"))
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, Pagination{}, err
	}
	items = nonNil(items)

	if v, ok := envelope["pagination"]; ok {
		var rp rawPagination
		if err := json.Unmarshal(v, &rp); err != nil {
			return nil, Pagination{}, err
		}
		return items, rp.normalize(), nil
	}

	if v, ok := envelope["count"]; ok {
		var count int
		if err := json.Unmarshal(v, &count); err == nil {
			p := Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: count, PerPage: len(items)}
			if len(items) > 0 {
				p.TotalPages = (count + len(items) - 1) / len(items)
			}
			if next, ok := envelope["next"]; ok {
				p.HasNext = !bytes.Equal(bytes.TrimSpace(next), []byte("null"))
			}
			return items, p, nil
		}
	}

	return items, singlePage(len(items)), nil
}

func singlePage(n int) Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: n, PerPage: n}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
