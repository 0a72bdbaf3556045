package packets

// body for POST /player/register
type RegisterPairingCodeRequest struct {
	PairingCode string `json:"code" binding:"required"`
	DeviceID    string `json:"device_id" binding:"required"`
}

// body for POST /player/heartbeat
type HeartbeatRequest struct {
	Display string `json:"display" binding:"required"`
}
