package dto

type JoinPlayerRequest struct {
	Name string `json:"name"`
}

// Round 可省略，省略时视为当前夜晚轮次
type NightActionRequest struct {
	TargetID string `json:"targetId"`
	Round    int    `json:"round,omitempty"`
}

type McqAnswerRequest struct {
	QuestionID string `json:"questionId"`
	TargetID   string `json:"targetId"`
}

type SetDoctorEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

type McqOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

type McqQuestionResponse struct {
	QuestionID string      `json:"questionId"`
	Text       string      `json:"text"`
	Options    []McqOption `json:"options"`
}

// KilledID 和 Winner 为 null 表示无人死亡、未分胜负
type NightResultResponse struct {
	RoomID   string  `json:"roomId"`
	Round    int     `json:"round"`
	KilledID *string `json:"killedId"`
	Winner   *string `json:"winner"`
}

type AckResponse struct {
	RequestType string `json:"request_type"`
}
