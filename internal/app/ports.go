package app

import (
	"context"

	"phone-trivia/internal/domain"
	"phone-trivia/internal/protocol"
)

// Bus is the broadcast transport beneath the message contract. Delivery is
// at-least-once and not ordered across kinds.
type Bus interface {
	Send(ctx context.Context, msg protocol.Message) error
	Subscribe(handler func(protocol.Message)) (cancel func())
}

// QuestionSource supplies the question bank used to resolve questions the
// controller announces by index only.
type QuestionSource interface {
	FetchQuestions(ctx context.Context) ([]domain.Question, error)
}

// ScoreStore persists a participant's lifetime score across restarts.
type ScoreStore interface {
	GetScore(ctx context.Context, participantID string) (int, error)
	SetScore(ctx context.Context, participantID string, score int) error
}

// AvatarOptions tunes avatar retrieval.
type AvatarOptions struct {
	Size int
}

// AvatarService fetches participant avatars. A nil image is a valid result.
type AvatarService interface {
	GetAvatarImage(ctx context.Context, participantID string, opts AvatarOptions) ([]byte, error)
}

// Registry tracks live client instances so a controller can discover them
// without global lookups. Register must be idempotent.
type Registry interface {
	Register(ctx context.Context, participantID, instanceID string) (already bool, err error)
	Unregister(ctx context.Context, participantID, instanceID string) error
}

// Surface is the rendering target hosting a client. Render is called with the
// client's handler lock held and must not call back into the client.
type Surface interface {
	Render(View)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(View)

func (f SurfaceFunc) Render(v View) { f(v) }

// BankRepository loads question banks by id (cache or backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankInvalidator is implemented by caching repositories.
type BankInvalidator interface {
	Invalidate(ctx context.Context, bankID string) error
}

// BankSource binds a BankRepository to one bank id.
type BankSource struct {
	repo   BankRepository
	bankID string
}

func NewBankSource(repo BankRepository, bankID string) *BankSource {
	return &BankSource{repo: repo, bankID: bankID}
}

func (s *BankSource) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	bank, err := s.repo.GetBank(ctx, s.bankID)
	if err != nil {
		return nil, err
	}
	if len(bank.Questions) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return bank.Questions, nil
}

// Refresh drops any cached copy of the bank so the next fetch reads the
// backing store.
func (s *BankSource) Refresh(ctx context.Context) error {
	if inv, ok := s.repo.(BankInvalidator); ok {
		return inv.Invalidate(ctx, s.bankID)
	}
	return nil
}
