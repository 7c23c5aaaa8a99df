package payloadapi

import (
	"context"
	"strings"

	"payloadseed/internal/contentstore"
	"payloadseed/internal/services"
)

type entityFields struct {
	Name          string            `json:"name"`
	FeaturedImage *contentstore.ID  `json:"featuredImage,omitempty"`
	Logo          *contentstore.ID  `json:"logo,omitempty"`
	Images        []contentstore.ID `json:"images"`
}

type entityResponse struct {
	Doc struct {
		ID contentstore.ID `json:"id"`
	} `json:"doc"`
}

// CreateEntity creates a centre document.
func (c *Client) CreateEntity(ctx context.Context, entity contentstore.EntityInput) (contentstore.EntityRecord, error) {
	name := strings.TrimSpace(entity.Name)
	if name == "" {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", "name is required", nil)
	}
	fields := entityFields{
		Name:          name,
		FeaturedImage: optional(entity.FeaturedImage),
		Logo:          optional(entity.Logo),
		Images:        make([]contentstore.ID, 0, len(entity.Images)),
	}
	for _, id := range entity.Images {
		if id != "" {
			fields.Images = append(fields.Images, id)
		}
	}

	var resp entityResponse
	if err := c.postJSON(ctx, c.endpoint(c.entityCollection), fields, &resp); err != nil {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", name, err)
	}
	if resp.Doc.ID == "" {
		return contentstore.EntityRecord{}, services.Wrap(services.ErrStore, "store", "create entity", name+": response carried no id", nil)
	}
	return contentstore.EntityRecord{
		ID:            resp.Doc.ID,
		Name:          name,
		FeaturedImage: entity.FeaturedImage,
		Logo:          entity.Logo,
		Images:        fields.Images,
	}, nil
}

func optional(id contentstore.ID) *contentstore.ID {
	if id == "" {
		return nil
	}
	return &id
}
