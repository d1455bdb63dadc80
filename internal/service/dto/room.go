package dto

// Winner 为 null 表示尚未分出胜负
type RoomState struct {
	RoomID        string   `json:"roomId"`
	Phase         string   `json:"phase"`
	DoctorEnabled bool     `json:"doctorEnabled"`
	NightRound    int      `json:"nightRound"`
	Players       []Player `json:"players"`
	Winner        *string  `json:"winner"`
}

type ControlState struct {
	ActiveRoom     *RoomState      `json:"activeRoom"`
	WaitingCount   int             `json:"waitingCount"`
	WaitingPlayers []WaitingPlayer `json:"waitingPlayers"`
	// 大厅配置，下一局开始时生效
	DoctorEnabled bool `json:"doctorEnabled"`
}

type PhaseChangeResponse struct {
	RoomID string `json:"roomId"`
	Phase  string `json:"phase"`
}
