package models

// APIResponse is the standard response envelope of the JSON API.
type APIResponse struct {
	Status bool        `json:"status"`
	Msg    string      `json:"msg"`
	Obj    interface{} `json:"obj"`
}

// PaginatedResponse wraps list results with pagination info.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// CheckoutRequest starts a hosted checkout for an order.
type CheckoutRequest struct {
	OrderID           string            `json:"order_id" validate:"required,max=100"`
	OrderNumber       string            `json:"order_number" validate:"omitempty,max=100"`
	OrderReference    string            `json:"order_reference" validate:"omitempty,max=255"`
	Amount            int64             `json:"amount" validate:"gte=0"`
	Currency          string            `json:"currency" validate:"required,len=3"`
	Email             string            `json:"email" validate:"omitempty,email"`
	FirstName         string            `json:"first_name" validate:"omitempty,max=255"`
	LastName          string            `json:"last_name" validate:"omitempty,max=255"`
	CustomerReference string            `json:"customer_reference" validate:"omitempty,max=255"`
	Country           string            `json:"country" validate:"omitempty,len=2"`
	Properties        map[string]string `json:"properties"`
}

// OperationRequest carries the optional amount of a capture or refund.
// Zero means the full amount.
type OperationRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

// PaymentListRequest filters the payment list.
type PaymentListRequest struct {
	Limit  int    `query:"limit" validate:"gte=0,lte=500"`
	Page   int    `query:"page" validate:"gte=0"`
	Status string `query:"status"`
}
