// Package testfixtures provides deterministic builders and harnesses for
// application and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/village-api/internal/application"
)

var (
	userCounter     uint64
	gameCounter     uint64
	playerCounter   uint64
	residentCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// NewUser materialises a deterministic account record.
func NewUser() application.User {
	n := atomic.AddUint64(&userCounter, 1)
	return application.User{
		ID:          fmt.Sprintf("user-%d", n),
		Email:       fmt.Sprintf("user%d@example.test", n),
		DisplayName: fmt.Sprintf("User %d", n),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
}

// NewGame materialises an unstarted game record.
func NewGame() application.Game {
	n := atomic.AddUint64(&gameCounter, 1)
	return application.Game{
		ID:        fmt.Sprintf("game-%d", n),
		CreatedAt: referenceTime,
	}
}

// NewPlayer materialises a seat in the given game at the given position.
func NewPlayer(gameID string, position int) application.Player {
	n := atomic.AddUint64(&playerCounter, 1)
	return application.Player{
		ID:        fmt.Sprintf("player-%d", n),
		GameID:    gameID,
		UserID:    fmt.Sprintf("user-for-player-%d", n),
		Team:      application.TeamVillager,
		Position:  position,
		CreatedAt: referenceTime,
	}
}

// NewResident materialises a hidden role-holder for the given game and role.
func NewResident(gameID, roleID string) application.Resident {
	n := atomic.AddUint64(&residentCounter, 1)
	return application.Resident{
		ID:     fmt.Sprintf("resident-%d", n),
		GameID: gameID,
		RoleID: roleID,
	}
}
