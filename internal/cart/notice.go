package cart

import "context"

// NoticeLevel classifies a user-visible notice.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

const (
	MsgLoginToAddToCart     = "Please login to add items to cart"
	MsgLoginToAddToWishlist = "Please login to add items to wishlist"
	MsgAddToCartFailed      = "Failed to add item to cart"
	MsgUpdateQuantityFailed = "Failed to update quantity"
)

// Notice is a message shown to the visitor on the next rendered page.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier delivers notices to the visitor.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}
