package game

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// 玩家请求类型
const (
	REQ_JOIN_PLAYER = "join_player"
	REQ_NIGHT_KILL  = "night_kill"
	REQ_NIGHT_SAVE  = "night_save"
	REQ_MCQ_ANSWER  = "mcq_answer"
)

// 控制端请求类型
const (
	REQ_SET_DOCTOR_ENABLED = "control_set_doctor_enabled"
	REQ_START_GAME         = "control_start_game"
	REQ_END_NIGHT          = "control_end_night"
	REQ_START_NEXT_NIGHT   = "control_start_next_night"
	REQ_RESET_GAME         = "control_reset_game"
)

// 服务端内部请求，不接受来自客户端的同名消息
const (
	REQ_CONNECT      = "connect"
	REQ_DISCONNECT   = "disconnect"
	REQ_TRIVIA_READY = "trivia_ready"
	REQ_SNAPSHOT     = "snapshot"
)

func isInternalRequest(reqType string) bool {
	switch reqType {
	case REQ_CONNECT, REQ_DISCONNECT, REQ_TRIVIA_READY, REQ_SNAPSHOT:
		return true
	}

	return false
}

func isControlRequest(reqType string) bool {
	switch reqType {
	case REQ_SET_DOCTOR_ENABLED, REQ_START_GAME, REQ_END_NIGHT, REQ_START_NEXT_NIGHT, REQ_RESET_GAME:
		return true
	}

	return false
}

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 内部请求直接携带 Go 值，不经过 JSON
	NativeData any `json:"-"`
}

// unwrap decodes the payload of a client request; an empty payload yields the zero value.
func unwrap[T any](wrapper RequestWrapper) (T, error) {
	var data T

	if len(wrapper.Data) == 0 || string(wrapper.Data) == "null" {
		return data, nil
	}

	if err := json.Unmarshal(wrapper.Data, &data); err != nil {
		zap.L().Debug(
			"Failed to unwrap request",
			zap.String("request_type", wrapper.ReqType),
			zap.Error(err),
		)
		return data, fmt.Errorf("%w: %s", ErrMalformedRequest, wrapper.ReqType)
	}

	return data, nil
}

// 响应类型
const (
	RESP_ERROR = "error"
	RESP_ACK   = "ack"

	RESP_JOINED        = "joined"
	RESP_ROOM_STATE    = "room_state"
	RESP_ROLE_INFO     = "role_info"
	RESP_PHASE_CHANGE  = "phase_change"
	RESP_MCQ_QUESTION  = "mcq_question"
	RESP_NIGHT_RESULT  = "night_result"
	RESP_WAITING_COUNT = "waiting_count"
	RESP_CONTROL_STATE = "control_state"
)

// Seq is strictly increasing across every envelope the engine emits, so clients can
// drop snapshots older than one they already applied.
type ResponseWrapper struct {
	Seq      uint64 `json:"seq"`
	RespType string `json:"response_type"`
	Data     any    `json:"data,omitempty"`
	ErrKind  string `json:"error_kind,omitempty"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(err error) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrKind:  ErrorKind(err),
		ErrMsg:   err.Error(),
	}
}
