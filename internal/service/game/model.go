package game

import (
	"encoding/json"
	"fmt"
	"time"
)

type Phase string

// lobby 是初始阶段，ended 是终止阶段（只能通过重置回到 lobby）
const (
	PhaseLobby Phase = "lobby"
	PhaseNight Phase = "night"
	PhaseDay   Phase = "day"
	PhaseEnded Phase = "ended"
)

// Role 的零值是 RoleUnassigned，开局分配之前所有玩家都是这个值
type Role int

const (
	RoleUnassigned Role = iota
	RoleVillager
	RoleGodfather
	RoleDoctor
)

func (r Role) String() string {
	switch r {
	case RoleVillager:
		return "villager"
	case RoleGodfather:
		return "godfather"
	case RoleDoctor:
		return "doctor"
	default:
		return "unassigned"
	}
}

func (r Role) Assigned() bool {
	return r != RoleUnassigned
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Assigned() {
		return nil, fmt.Errorf("role not assigned")
	}

	return []byte(r.String()), nil
}

type Winner int

const (
	WinnerNone Winner = iota
	WinnerVillagers
	WinnerGodfather
)

func (w Winner) String() string {
	switch w {
	case WinnerVillagers:
		return "villagers"
	case WinnerGodfather:
		return "godfather"
	default:
		return "none"
	}
}

func (w Winner) Decided() bool {
	return w != WinnerNone
}

// Ptr returns nil for WinnerNone so the wire form is null.
func (w Winner) Ptr() *string {
	if !w.Decided() {
		return nil
	}

	s := w.String()
	return &s
}

func (w Winner) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Ptr())
}

// Victim is the outcome of one night: either nobody died or exactly one player did.
type Victim struct {
	playerID string
	killed   bool
}

func NoKill() Victim {
	return Victim{}
}

func Killed(playerID string) Victim {
	return Victim{playerID: playerID, killed: true}
}

func (v Victim) PlayerID() (string, bool) {
	return v.playerID, v.killed
}

func (v Victim) Ptr() *string {
	if !v.killed {
		return nil
	}

	id := v.playerID
	return &id
}

func (v Victim) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Ptr())
}

type RoundOutcome struct {
	Round  int
	Victim Victim
	Winner Winner
}

type ConnKind string

const (
	ConnPlayer  ConnKind = "player"
	ConnControl ConnKind = "control"
)

// Connection 是一个已注册的客户端连接
type Connection struct {
	ID   string
	Kind ConnKind
	// 绑定的玩家身份，未加入时为空
	PlayerID string

	sink Sink
}

type Player struct {
	ID     string
	Name   string
	Seated bool
	Alive  bool
	IsHost bool
	Role   Role

	// 断线后为 nil，广播时跳过
	conn *Connection
}

func (p *Player) Connected() bool {
	return p.conn != nil
}

type WaitingEntry struct {
	PlayerID string
	Name     string
	JoinedAt time.Time

	conn *Connection
}

type TriviaPrompt struct {
	QuestionID string
	Text       string
	Round      int
	Options    []TriviaOption
	// key: player_id, value: option_id
	Answers map[string]string
}

type TriviaOption struct {
	ID    string
	Label string
	Alive bool
}

func (tp *TriviaPrompt) HasOption(optionID string) bool {
	for _, o := range tp.Options {
		if o.ID == optionID {
			return true
		}
	}

	return false
}

type Room struct {
	ID            string
	Phase         Phase
	NightRound    int
	DoctorEnabled bool
	Winner        Winner
	// 按入座顺序排列
	Players []*Player

	actions NightActions
	prompt  *TriviaPrompt
}

func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (r *Room) PlayerWithRole(role Role) *Player {
	for _, p := range r.Players {
		if p.Role == role {
			return p
		}
	}

	return nil
}

func (r *Room) CountAlive() int {
	count := 0
	for _, p := range r.Players {
		if p.Alive {
			count++
		}
	}

	return count
}
