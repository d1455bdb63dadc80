package dto

// 对外公开的玩家信息，不包含身份
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Alive  bool   `json:"alive"`
	IsHost bool   `json:"isHost"`
}

type WaitingPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JoinedResponse struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type RoleInfoResponse struct {
	Role string `json:"role"`
}

type WaitingCountResponse struct {
	Count int `json:"count"`
}
