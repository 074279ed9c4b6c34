package workshop

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResultOK is the Steam EResult value for success.
const ResultOK = 1

// FlexUint64 decodes a JSON number or a JSON string holding a number.
// Steam sends 64-bit ids as strings and most counters as numbers, and
// both shapes occur for the same field across endpoints.
type FlexUint64 uint64

func (f *FlexUint64) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid unsigned number %s: %w", string(b), err)
	}
	*f = FlexUint64(v)
	return nil
}

// FlexBool decodes true/false, 0/1 or a string holding either form.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		return fmt.Errorf("invalid boolean %s", string(b))
	}
	return nil
}

// Tag is one workshop tag.
type Tag struct {
	Tag string `json:"tag"`
}

// Item is one entry of publishedfiledetails.
type Item struct {
	PublishedFileID       FlexUint64 `json:"publishedfileid"`
	Result                FlexUint64 `json:"result"`
	Creator               FlexUint64 `json:"creator"`
	CreatorAppID          FlexUint64 `json:"creator_app_id"`
	ConsumerAppID         FlexUint64 `json:"consumer_app_id"`
	Filename              string     `json:"filename"`
	FileSize              FlexUint64 `json:"file_size"`
	FileURL               string     `json:"file_url"`
	HContentFile          string     `json:"hcontent_file"`
	Preview               string     `json:"preview_url"`
	HContentPreview       string     `json:"hcontent_preview"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	TimeCreated           FlexUint64 `json:"time_created"`
	TimeUpdated           FlexUint64 `json:"time_updated"`
	Visibility            FlexUint64 `json:"visibility"`
	Banned                FlexBool   `json:"banned"`
	BanReason             string     `json:"ban_reason"`
	Subscriptions         FlexUint64 `json:"subscriptions"`
	Favorited             FlexUint64 `json:"favorited"`
	LifetimeSubscriptions FlexUint64 `json:"lifetime_subscriptions"`
	LifetimeFavorited     FlexUint64 `json:"lifetime_favorited"`
	Views                 FlexUint64 `json:"views"`
	Tags                  []Tag      `json:"tags"`
}

// ID returns the published file id.
func (it *Item) ID() uint64 { return uint64(it.PublishedFileID) }

// OK reports whether Steam resolved this item.
func (it *Item) OK() bool { return it.Result == ResultOK }

// PreviewURL returns the preview image URL without surrounding whitespace.
func (it *Item) PreviewURL() string { return strings.TrimSpace(it.Preview) }

func (it *Item) IsBanned() bool { return bool(it.Banned) }

// TagNames returns the tag strings in the order Steam sent them.
func (it *Item) TagNames() []string {
	names := make([]string, 0, len(it.Tags))
	for _, t := range it.Tags {
		names = append(names, t.Tag)
	}
	return names
}

func (it *Item) CreatedAt() time.Time { return time.Unix(int64(it.TimeCreated), 0) }

func (it *Item) UpdatedAt() time.Time { return time.Unix(int64(it.TimeUpdated), 0) }

type detailsResponse struct {
	Response struct {
		Result               FlexUint64 `json:"result"`
		ResultCount          FlexUint64 `json:"resultcount"`
		PublishedFileDetails []Item     `json:"publishedfiledetails"`
	} `json:"response"`
}
