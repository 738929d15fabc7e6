package entities

type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Usage        int    `json:"usage"`        // prompts consumed while unpaid
	PaymentDone  bool   `json:"payment_done"` // monotonic, flipped once by a successful payment
}
