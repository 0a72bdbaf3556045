package packets

// body for operator-triggered test broadcasts
type TestBroadcastRequest struct {
	Message string `json:"message" binding:"required"`
	Data    any    `json:"data"`
}
