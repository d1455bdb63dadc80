package game

import (
	"fmt"

	"godfather-be/internal/service/dto"
	"godfather-be/internal/service/trivia"

	"go.uber.org/zap"
)

type triviaReady struct {
	RoomID   string
	Round    int
	Question trivia.Question
}

// onTriviaReady installs a fetched question if the night it was requested for is still open.
func onTriviaReady(ctx *GameContext, ready triviaReady) {
	room := ctx.Room
	if room == nil || room.ID != ready.RoomID || room.Phase != PhaseNight || room.NightRound != ready.Round || room.prompt != nil {
		zap.L().Debug(
			"discarding late trivia question",
			zap.Int("night_round", ready.Round),
			zap.String("phase", string(ctx.Phase())),
		)
		return
	}

	prompt := &TriviaPrompt{
		QuestionID: fmt.Sprintf("q-%d-%s", ready.Round, GenShortID()),
		Text:       ready.Question.Text,
		Round:      ready.Round,
		Options:    make([]TriviaOption, 0, len(room.Players)),
		Answers:    make(map[string]string),
	}

	options := make([]dto.McqOption, 0, len(room.Players))
	for _, p := range room.Players {
		prompt.Options = append(prompt.Options, TriviaOption{ID: p.ID, Label: p.Name, Alive: p.Alive})
		options = append(options, dto.McqOption{ID: p.ID, Name: p.Name, Alive: p.Alive})
	}

	room.prompt = prompt

	zap.L().Info(
		"trivia question opened",
		zap.String("room_id", room.ID),
		zap.Int("night_round", ready.Round),
		zap.String("question_id", prompt.QuestionID),
	)

	ctx.BroadcastRoom(WrapResponse(RESP_MCQ_QUESTION, dto.McqQuestionResponse{
		QuestionID: prompt.QuestionID,
		Text:       prompt.Text,
		Options:    options,
	}))
}

// onMcqAnswer records an answer to the active prompt. Answers to any other question
// return ErrUnknownPrompt, which is never reported back to the client.
func onMcqAnswer(ctx *GameContext, conn *Connection, req RequestWrapper) error {
	data, err := unwrap[dto.McqAnswerRequest](req)
	if err != nil {
		return err
	}

	room := ctx.Room
	if room == nil || room.prompt == nil || room.prompt.QuestionID != data.QuestionID {
		return fmt.Errorf("%w: %q", ErrUnknownPrompt, data.QuestionID)
	}

	// 死亡玩家也可以答题
	player := room.Player(conn.PlayerID)
	if player == nil {
		return fmt.Errorf("%w: not seated", ErrNotEntitled)
	}

	if !room.prompt.HasOption(data.TargetID) {
		return fmt.Errorf("%w: %q is not an option", ErrInvalidTarget, data.TargetID)
	}

	room.prompt.Answers[player.ID] = data.TargetID

	ctx.Unicast(conn, WrapResponse(RESP_ACK, dto.AckResponse{RequestType: req.ReqType}))

	return nil
}
