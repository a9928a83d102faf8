package kv

import "fmt"

// Key and channel names are a wire contract shared with existing store
// contents; do not rename.
const (
	keyToken         = "token:%s"
	keyProduct       = "product:%d"
	KeyProducts      = "products"
	keyCart          = "cart:%d"
	keyNotifications = "notifications:%d"

	chanUserNotifications = "user_notifications:%d"
	ChanOrders            = "orders"
)

const (
	TTLToken   = 3600
	TTLCatalog = 300
	TTLCart    = 86400
)

func KeyToken(token string) string         { return fmt.Sprintf(keyToken, token) }
func KeyProduct(id int64) string           { return fmt.Sprintf(keyProduct, id) }
func KeyCart(userID int64) string          { return fmt.Sprintf(keyCart, userID) }
func KeyNotifications(userID int64) string { return fmt.Sprintf(keyNotifications, userID) }

func ChanUserNotifications(userID int64) string {
	return fmt.Sprintf(chanUserNotifications, userID)
}
