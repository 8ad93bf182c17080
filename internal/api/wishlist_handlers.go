package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerWishlistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getWishlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/wishlist",
		Summary:     "Get wishlist",
		Description: "Returns the saved product IDs in the order they were added",
		Tags:        []string{"Wishlist"},
	}, s.handleGetWishlist)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleWishlistItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/wishlist/{id}/toggle",
		Summary:     "Toggle wishlist item",
		Description: "Adds the product if absent, removes it otherwise",
		Tags:        []string{"Wishlist"},
	}, s.handleToggleWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearWishlist",
		Method:      http.MethodDelete,
		Path:        "/api/v1/wishlist",
		Summary:     "Clear wishlist",
		Description: "Removes every saved product",
		Tags:        []string{"Wishlist"},
	}, s.handleClearWishlist)
}

// WishlistResponse contains wishlist data in API responses.
type WishlistResponse struct {
	Items []string `json:"items" doc:"Saved product IDs"`
	Count int      `json:"count" doc:"Number of saved products"`
}

// WishlistOutput wraps the wishlist for Huma.
type WishlistOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         WishlistResponse
}

// ToggleWishlistInput contains parameters for toggling a wishlist item.
type ToggleWishlistInput struct {
	ID string `path:"id" minLength:"1" doc:"Product ID"`
}

// ToggleWishlistResponse is the wishlist after a toggle.
type ToggleWishlistResponse struct {
	WishlistResponse
	Saved bool `json:"saved" doc:"Whether the product is saved after the toggle"`
}

// ToggleWishlistOutput wraps the toggle result for Huma.
type ToggleWishlistOutput struct {
	Body ToggleWishlistResponse
}

func (s *Server) handleGetWishlist(_ context.Context, _ *struct{}) (*WishlistOutput, error) {
	return &WishlistOutput{
		CacheControl: CacheNoStore,
		Body:         s.wishlistResponse(),
	}, nil
}

func (s *Server) handleToggleWishlistItem(ctx context.Context, input *ToggleWishlistInput) (*ToggleWishlistOutput, error) {
	saved := s.services.Wishlist.Toggle(ctx, input.ID)
	return &ToggleWishlistOutput{
		Body: ToggleWishlistResponse{
			WishlistResponse: s.wishlistResponse(),
			Saved:            saved,
		},
	}, nil
}

func (s *Server) handleClearWishlist(ctx context.Context, _ *struct{}) (*WishlistOutput, error) {
	s.services.Wishlist.Clear(ctx)
	return &WishlistOutput{
		CacheControl: CacheNoStore,
		Body:         s.wishlistResponse(),
	}, nil
}

func (s *Server) wishlistResponse() WishlistResponse {
	items := s.services.Wishlist.Items()
	if items == nil {
		items = []string{}
	}
	return WishlistResponse{Items: items, Count: len(items)}
}
