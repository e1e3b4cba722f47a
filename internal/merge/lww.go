package merge

import (
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// version одна сторона поля для сравнения last-writer-wins.
type version struct {
	at   time.Time
	side models.Side
}

// winner возвращает сторону с более поздней версией.
// При равных временах побеждает инициатор синхронизации, чтобы задача
// продвигалась вперед, а результат был детерминированным.
func winner(a, b version, initiator models.Side) models.Side {
	switch {
	case a.at.After(b.at):
		return a.side
	case b.at.After(a.at):
		return b.side
	default:
		return initiator
	}
}
