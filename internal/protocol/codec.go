package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Version is the envelope version written and accepted by this package.
const Version = 1

// Envelope is the wire form of every message.
type Envelope struct {
	Version int             `json:"v"`
	Type    Kind            `json:"type"`
	ID      string          `json:"id"`
	Sender  string          `json:"sender,omitempty"`
	SentAt  time.Time       `json:"sentAt"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeError describes why raw bytes could not become a Message.
type DecodeError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %q: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %q: %s", e.Kind, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode wraps msg in a versioned envelope.
func Encode(msg Message, sender string, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msg.Kind(), err)
	}
	return json.Marshal(Envelope{
		Version: Version,
		Type:    msg.Kind(),
		ID:      uuid.NewString(),
		Sender:  sender,
		SentAt:  now.UTC(),
		Payload: payload,
	})
}

// Decode parses an envelope and its typed payload. Absent optional payload
// fields keep their defaults; absent correct-answer indexes read as -1.
func Decode(data []byte) (Envelope, Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, nil, &DecodeError{Reason: "malformed envelope", Err: err}
	}
	if env.Version != Version {
		return env, nil, &DecodeError{Kind: env.Type, Reason: fmt.Sprintf("unsupported version %d", env.Version)}
	}
	msg, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return env, nil, err
	}
	return env, msg, nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Message, error) {
	switch kind {
	case KindQuestionShow:
		return decodeInto(kind, raw, QuestionShow{})
	case KindResults:
		return decodeInto(kind, raw, Results{CorrectAnswerIndex: -1})
	case KindLeaderboard:
		return decodeInto(kind, raw, Leaderboard{})
	case KindPlayerUpdate:
		return decodeInto(kind, raw, PlayerUpdate{})
	case KindGameStart:
		return decodeInto(kind, raw, GameStart{})
	case KindGameEnd:
		return decodeInto(kind, raw, GameEnd{})
	case KindGameReset:
		return decodeInto(kind, raw, GameReset{})
	case KindSettingsUpdate:
		return decodeInto(kind, raw, SettingsUpdate{})
	case KindStateResponse:
		return decodeInto(kind, raw, StateResponse{Snapshot: Snapshot{CorrectAnswerIndex: -1}})
	case KindHostChanged:
		return decodeInto(kind, raw, HostChanged{})
	case KindControllerReady:
		return decodeInto(kind, raw, ControllerReady{})
	case KindAnswerSubmitted:
		return decodeInto(kind, raw, AnswerSubmitted{})
	case KindNextQuestion:
		return decodeInto(kind, raw, NextQuestion{})
	case KindStateRequest:
		return decodeInto(kind, raw, StateRequest{})
	case KindSettingsChange:
		return decodeInto(kind, raw, SettingsChange{})
	case KindAwardPoints:
		return decodeInto(kind, raw, AwardPoints{})
	case KindStartGame:
		return decodeInto(kind, raw, StartGame{})
	case KindEndGame:
		return decodeInto(kind, raw, EndGame{})
	case KindPlayAgain:
		return decodeInto(kind, raw, PlayAgain{})
	default:
		return nil, &DecodeError{Kind: kind, Reason: "unknown message type"}
	}
}

func decodeInto[T Message](kind Kind, raw json.RawMessage, msg T) (Message, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return msg, nil
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &DecodeError{Kind: kind, Reason: "invalid payload", Err: err}
	}
	return msg, nil
}
